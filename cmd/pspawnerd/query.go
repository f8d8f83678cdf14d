package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

// StatusOutput represents the output format for the in-flight spawn
type StatusOutput struct {
	InProgress              bool   `yaml:"in_progress" json:"in_progress"`
	RequestID               string `yaml:"request_id,omitempty" json:"request_id,omitempty"`
	State                   string `yaml:"state" json:"state"`
	ErrorCount              int    `yaml:"error_count" json:"error_count"`
	ValidatorPubkey         string `yaml:"validator_pubkey,omitempty" json:"validator_pubkey,omitempty"`
	ValidatorRegistrationTx string `yaml:"validator_registration_tx,omitempty" json:"validator_registration_tx,omitempty"`
	DepositTx               string `yaml:"deposit_tx,omitempty" json:"deposit_tx,omitempty"`
}

// AttemptOutput represents the output format for one finished attempt
type AttemptOutput struct {
	RequestID  string    `yaml:"request_id" json:"request_id"`
	LastState  string    `yaml:"last_state" json:"last_state"`
	Outcome    string    `yaml:"outcome" json:"outcome"`
	Reason     string    `yaml:"reason,omitempty" json:"reason,omitempty"`
	ErrorCount int       `yaml:"error_count" json:"error_count"`
	FinishedAt time.Time `yaml:"finished_at" json:"finished_at"`
}

func statusCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the in-flight spawn record",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			rec, err := node.Tracker().Load(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), newStatusOutput(rec), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		outputFormat string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished spawn attempts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			rows, err := node.Attempts().RecentAttempts(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), newAttemptOutputs(rows), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of attempts to show (0 for all)")
	return cmd
}

func newStatusOutput(rec *progress.Record) StatusOutput {
	if rec == nil {
		return StatusOutput{State: progress.StateAbsent.String()}
	}
	out := StatusOutput{
		InProgress:              true,
		RequestID:               rec.RequestID,
		State:                   rec.State.String(),
		ErrorCount:              rec.ErrorCount,
		ValidatorRegistrationTx: rec.Metadata.ValidatorRegistrationTx,
		DepositTx:               rec.Metadata.DepositTx,
	}
	if rec.Metadata.DepositData != nil {
		out.ValidatorPubkey = rec.Metadata.DepositData.Pubkey
	}
	return out
}

func newAttemptOutputs(rows []store.SpawnAttempt) []AttemptOutput {
	out := make([]AttemptOutput, 0, len(rows))
	for _, row := range rows {
		out = append(out, AttemptOutput{
			RequestID:  row.RequestID,
			LastState:  row.LastState,
			Outcome:    row.Outcome,
			Reason:     row.Reason,
			ErrorCount: row.ErrorCount,
			FinishedAt: row.CreatedAt,
		})
	}
	return out
}

// printOutput prints the output in the specified format
func printOutput(w io.Writer, data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
