package main

import (
	"context"

	"github.com/paraflow/paraflow/internal/repl"
	"github.com/spf13/cobra"
)

var replUser string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive classification shell",
	Long: `Start an interactive shell. Each typed line is classified through
the full pipeline; :history, :show, and :compare inspect the audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		orch, err := buildOrchestrator(snapshots)
		if err != nil {
			return err
		}

		shell, err := repl.New(&repl.Config{
			Orchestrator: orch,
			Snapshots:    snapshots,
			UserID:       replUser,
		})
		if err != nil {
			return err
		}
		return shell.Run(context.Background())
	},
}

func init() {
	replCmd.Flags().StringVar(&replUser, "user", "", "user id for profile lookup")
	rootCmd.AddCommand(replCmd)
}
