package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pushchain/validator-spawner/spawner/config"
	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/core"
	"github.com/pushchain/validator-spawner/spawner/logger"
)

const flagHome = "home"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pspawnerd",
		Short:         "Validator spawner daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagHome, constant.DefaultNodeHome, "Node home directory")

	InitRootCmd(rootCmd) // add subcommands like `start` and `version`

	return rootCmd
}

func homeDir(cmd *cobra.Command) string {
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil || home == "" {
		return constant.DefaultNodeHome
	}
	return home
}

// loadNode reads the config under --home and opens the node's storage.
func loadNode(cmd *cobra.Command) (*core.Node, zerolog.Logger, error) {
	cfg, err := config.Load(homeDir(cmd))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(cfg)
	node, err := core.NewNode(cfg, log)
	if err != nil {
		return nil, log, err
	}
	return node, log, nil
}
