// paraflow classifies free-text documents into the four PARA buckets
// (Projects / Areas / Resources / Archives) using two independent
// classifiers arbitrated by a confidence-gap resolver, with an append-only
// snapshot audit trail.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/paraflow/paraflow/internal/ai"
	"github.com/paraflow/paraflow/internal/classifier"
	"github.com/paraflow/paraflow/internal/config"
	"github.com/paraflow/paraflow/internal/orchestrator"
	"github.com/paraflow/paraflow/internal/profile"
	"github.com/paraflow/paraflow/internal/resolver"
	"github.com/paraflow/paraflow/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	memoryOnly bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "paraflow",
	Short: "PARA document classification with conflict arbitration",
	Long: `paraflow classifies free-text documents into the PARA buckets
(Projects / Areas / Resources / Archives).

Two classifiers run on every document: a reasoning classifier (LLM-backed
when ANTHROPIC_API_KEY is set, deterministic rules otherwise) and a keyword
matcher. A confidence-gap resolver arbitrates between them, and every
decision is recorded as an immutable snapshot for audit and drift
comparison.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if dbPath != "" {
			cfg.SnapshotDB = dbPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "paraflow.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "snapshot database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&memoryOnly, "memory", false, "use an in-memory snapshot store (no durability)")
}

// openSnapshots opens the configured snapshot store. Callers own Close.
func openSnapshots() (*snapshot.Manager, error) {
	var store snapshot.Store
	if memoryOnly || cfg.SnapshotDB == "" {
		store = snapshot.NewMemoryStore()
	} else {
		sqliteStore, err := snapshot.NewSQLiteStore(cfg.SnapshotDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		store = sqliteStore
	}
	return snapshot.NewManager(store)
}

// buildOrchestrator wires the full pipeline. The primary classifier is
// LLM-backed when an API key is present and rule-based otherwise; the
// pipeline behaves identically either way.
func buildOrchestrator(snapshots *snapshot.Manager) (*orchestrator.Orchestrator, error) {
	var primary classifier.Classifier
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		client, err := ai.NewClient(cfg.Model, ai.DefaultRetryConfig())
		if err != nil {
			return nil, err
		}
		primary, err = classifier.NewPARAClassifier(client)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("[PARAFLOW] ANTHROPIC_API_KEY not set, using rule-based primary classifier")
		primary = classifier.NewRuleClassifier()
	}

	res, err := resolver.New(resolver.Config{Threshold: cfg.ResolutionThreshold})
	if err != nil {
		return nil, err
	}

	profiles, err := profile.LoadStore(cfg.Profiles)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return orchestrator.New(primary, classifier.NewKeywordClassifier(), res, snapshots, profiles, timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
