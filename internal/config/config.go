// Package config loads paraflow.yaml, the operator-facing configuration
// for the classification pipeline.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/paraflow/paraflow/internal/ai"
	"github.com/paraflow/paraflow/internal/resolver"
	"gopkg.in/yaml.v3"
)

// Config is the structure of paraflow.yaml.
type Config struct {
	// Model is the Anthropic model for the primary classifier. Empty means
	// the built-in default (PARAFLOW_MODEL env still wins).
	Model string `yaml:"model"`

	// ResolutionThreshold is the resolver's confidence-gap threshold.
	ResolutionThreshold float64 `yaml:"resolution_threshold"`

	// ClassifierTimeout bounds each classifier side, e.g. "45s".
	ClassifierTimeout string `yaml:"classifier_timeout"`

	// SnapshotDB is the sqlite path for the snapshot store. Empty selects
	// the in-memory store (no durability across runs).
	SnapshotDB string `yaml:"snapshot_db"`

	// Profiles is the path to the stored user profiles file.
	Profiles string `yaml:"profiles"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Model:               ai.GetModel(),
		ResolutionThreshold: resolver.DefaultThreshold,
		ClassifierTimeout:   "45s",
		SnapshotDB:          ".paraflow/snapshots.db",
		Profiles:            ".paraflow/profiles.yaml",
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a present-but-invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Zero values from a sparse file fall back to defaults
	defaults := Default()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.ResolutionThreshold == 0 {
		cfg.ResolutionThreshold = defaults.ResolutionThreshold
	}
	if cfg.ClassifierTimeout == "" {
		cfg.ClassifierTimeout = defaults.ClassifierTimeout
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ResolutionThreshold <= 0 || c.ResolutionThreshold > 1 {
		return fmt.Errorf("resolution_threshold must be in (0.0, 1.0] (got %v)", c.ResolutionThreshold)
	}
	if _, err := time.ParseDuration(c.ClassifierTimeout); err != nil {
		return fmt.Errorf("classifier_timeout is not a duration: %w", err)
	}
	return nil
}

// Timeout returns the parsed classifier timeout. Validate must have passed.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.ClassifierTimeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}
