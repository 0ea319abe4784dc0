package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paraflow/paraflow/internal/orchestrator"
	"github.com/paraflow/paraflow/internal/repl"
	"github.com/spf13/cobra"
)

var (
	classifyUser       string
	classifyOccupation string
	classifyAreas      []string
	classifyInterests  []string
	classifyJSON       bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a document into a PARA category",
	Long: `Classify text into Projects, Areas, Resources, or Archives.

Text is taken from the argument, or from stdin when the argument is "-"
or absent. The --occupation/--areas/--interests flags override the stored
profile for --user.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args)
		if err != nil {
			return err
		}

		snapshots, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snapshots.Close()

		orch, err := buildOrchestrator(snapshots)
		if err != nil {
			return err
		}

		resp, err := orch.Classify(context.Background(), orchestrator.Request{
			Text:       text,
			UserID:     classifyUser,
			Occupation: classifyOccupation,
			Areas:      classifyAreas,
			Interests:  classifyInterests,
			Metadata:   map[string]string{"trigger": "cli"},
		})
		if err != nil {
			return err
		}

		if classifyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(resp)
		}

		repl.PrintResponse(resp)
		return nil
	},
}

// readText resolves the document text from the argument or stdin.
func readText(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text provided (pass an argument or pipe to stdin)")
	}
	return text, nil
}

func init() {
	classifyCmd.Flags().StringVar(&classifyUser, "user", "", "user id for profile lookup and audit metadata")
	classifyCmd.Flags().StringVar(&classifyOccupation, "occupation", "", "occupation override")
	classifyCmd.Flags().StringSliceVar(&classifyAreas, "areas", nil, "declared responsibility areas override")
	classifyCmd.Flags().StringSliceVar(&classifyInterests, "interests", nil, "interests override")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "emit the boundary JSON response")
	rootCmd.AddCommand(classifyCmd)
}
