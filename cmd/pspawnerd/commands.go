package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pushchain/validator-spawner/spawner/config"
	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/spawn"
)

// Set at build time with -ldflags "-X main.Version=... -X main.Commit=...".
var (
	Version = "dev"
	Commit  = ""
)

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(operateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(registerValidatorCmd())
	rootCmd.AddCommand(stakeEthCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(versionCmd())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func initCmd() *cobra.Command {
	var (
		network string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config to the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := homeDir(cmd)
			path := filepath.Join(home, constant.ConfigSubdir, constant.ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			if network != "" {
				cfg.Network = network
			}
			if err := config.Save(cfg, home); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "set %s_P2P_API_KEY, %s_SIGNER_PRIVATE_KEY and the eigen pod address before running operate\n", config.EnvPrefix, config.EnvPrefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "Network preset (mainnet|goerli)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the spawner daemon: periodic operate, query server and history cleanup",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			ctx, cancel := signalContext()
			defer cancel()
			return node.Run(ctx)
		},
	}
}

func operateCmd() *cobra.Command {
	var clearRecord, stake bool

	cmd := &cobra.Command{
		Use:   "operate",
		Short: "Advance the validator spawn sequence once",
		Long: `Resumes the spawn sequence from its stored state and runs it until the
deposit is confirmed, staking is disabled at the registered state, or an
error occurs. Intended to be invoked on a schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			if !cmd.Flags().Changed("stake") {
				stake = node.Config().Stake
			}

			ctx, cancel := signalContext()
			defer cancel()

			outcome, err := node.Operate(ctx, spawn.RunOptions{Clear: clearRecord, Stake: stake})
			fmt.Fprintf(cmd.OutOrStdout(), "outcome: %s\n", outcome)
			return err
		},
	}

	cmd.Flags().BoolVar(&clearRecord, "clear", false, "Discard any stored progress before running")
	cmd.Flags().BoolVar(&stake, "stake", false, "Submit the deposit after registration (defaults to the config value)")
	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the in-flight spawn record",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			removed, err := node.Reset(cmd.Context())
			if err != nil {
				return err
			}
			if removed == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no spawn in progress")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "discarded request %s in state %s\n", removed.RequestID, removed.State)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print pspawnerd version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Name:       %s\n", "pspawnerd")
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit:     %s\n", Commit)
		},
	}
}
