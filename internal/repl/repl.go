// Package repl provides the interactive classification shell: each typed
// line is classified through the full pipeline and the decision (with its
// audit snapshot id) is printed inline.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/paraflow/paraflow/internal/orchestrator"
	"github.com/paraflow/paraflow/internal/snapshot"
)

// REPL is the interactive shell.
type REPL struct {
	orch      *orchestrator.Orchestrator
	snapshots *snapshot.Manager
	userID    string
	rl        *readline.Instance
}

// Config holds REPL configuration.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Snapshots    *snapshot.Manager
	UserID       string
}

// New creates a REPL instance.
func New(cfg *Config) (*REPL, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if cfg.Snapshots == nil {
		return nil, fmt.Errorf("snapshot manager is required")
	}
	return &REPL{
		orch:      cfg.Orchestrator,
		snapshots: cfg.Snapshots,
		userID:    cfg.UserID,
	}, nil
}

// Run starts the interactive loop. Plain lines are classified; lines
// starting with ':' are commands.
func (r *REPL) Run(ctx context.Context) error {
	cyan := color.New(color.FgCyan).SprintFunc()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("paraflow> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if err := r.handleCommand(ctx, line); err != nil {
				if err == io.EOF {
					return nil
				}
				printError(err)
			}
			continue
		}

		if err := r.classify(ctx, line); err != nil {
			printError(err)
		}
	}
}

func (r *REPL) printWelcome() {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s — type text to classify it into Projects/Areas/Resources/Archives\n", bold("paraflow"))
	fmt.Println("Commands: :history [n]   :show <id>   :compare <id1> <id2>   :quit")
	fmt.Println()
}

func (r *REPL) classify(ctx context.Context, text string) error {
	resp, err := r.orch.Classify(ctx, orchestrator.Request{
		Text:     text,
		UserID:   r.userID,
		Metadata: map[string]string{"trigger": "repl"},
	})
	if err != nil {
		return err
	}

	PrintResponse(resp)
	return nil
}

func (r *REPL) handleCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	switch parts[0] {
	case ":quit", ":q", ":exit":
		fmt.Println("Goodbye!")
		return io.EOF

	case ":history", ":h":
		limit := 10
		if len(parts) > 1 {
			fmt.Sscanf(parts[1], "%d", &limit)
		}
		snaps, err := r.snapshots.List(ctx, limit)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No classifications yet.")
			return nil
		}
		for _, snap := range snaps {
			PrintSnapshotLine(snap)
		}
		return nil

	case ":show", ":s":
		if len(parts) != 2 {
			return fmt.Errorf("usage: :show <snapshot-id>")
		}
		snap, err := r.snapshots.Get(ctx, parts[1])
		if err != nil {
			return err
		}
		PrintSnapshot(snap)
		return nil

	case ":compare", ":c":
		if len(parts) != 3 {
			return fmt.Errorf("usage: :compare <id1> <id2>")
		}
		diff, err := r.snapshots.Compare(ctx, parts[1], parts[2])
		if err != nil {
			return err
		}
		PrintDiff(diff)
		return nil

	default:
		return fmt.Errorf("unknown command %s (try :history, :show, :compare, :quit)", parts[0])
	}
}

func printError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("%s %v\n", red("Error:"), err)
}
