package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/paraflow/paraflow/internal/repl"
	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect the classification audit trail",
}

var snapshotsListLimit int

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent snapshots, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		snaps, err := snapshots.List(context.Background(), snapshotsListLimit)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots recorded.")
			return nil
		}
		for _, snap := range snaps {
			repl.PrintSnapshotLine(snap)
		}
		return nil
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one snapshot in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		snap, err := snapshots.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		repl.PrintSnapshot(snap)
		return nil
	},
}

var snapshotsCompareCmd = &cobra.Command{
	Use:   "compare <id1> <id2>",
	Short: "Diff two snapshots' outcomes to spot classification drift",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		diff, err := snapshots.Compare(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		repl.PrintDiff(diff)
		return nil
	},
}

var snapshotsClearForce bool

var snapshotsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the entire audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !snapshotsClearForce {
			fmt.Print("Delete ALL snapshots? This cannot be undone. [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		if err := snapshots.Clear(context.Background()); err != nil {
			return err
		}
		fmt.Println("Snapshots cleared.")
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().IntVar(&snapshotsListLimit, "limit", 20, "maximum snapshots to list (0 = all)")
	snapshotsClearCmd.Flags().BoolVar(&snapshotsClearForce, "force", false, "skip the confirmation prompt")

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsCompareCmd)
	snapshotsCmd.AddCommand(snapshotsClearCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
