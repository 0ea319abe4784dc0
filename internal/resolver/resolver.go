// Package resolver arbitrates between the primary and secondary classifier
// results. Resolve is a pure function: same inputs always produce the same
// outcome, which the snapshot trail relies on for replay and comparison.
package resolver

import (
	"fmt"
	"log"
	"math"

	"github.com/paraflow/paraflow/internal/types"
)

// DefaultThreshold is the confidence-gap threshold below which the two
// sides are considered to be in conflict.
const DefaultThreshold = 0.2

// Config holds resolver configuration.
type Config struct {
	// Threshold is the confidence-gap boundary. A gap at or above it means
	// the higher-confidence side wins outright; below it, the race is a
	// conflict and the primary side wins by tie-break with a review flag.
	Threshold float64
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threshold <= 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be in (0.0, 1.0] (got %.2f)", c.Threshold)
	}
	return nil
}

// Resolver decides the final category for a pair of classifier results.
// Stateless; one instance is safe for concurrent use.
type Resolver struct {
	config   Config
	strategy Strategy
}

// New creates a resolver with the confidence-gap strategy.
func New(config Config) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}
	return &Resolver{config: config, strategy: confidenceStrategy{}}, nil
}

// Threshold returns the configured gap threshold.
func (r *Resolver) Threshold() float64 {
	return r.config.Threshold
}

// Resolve arbitrates between the two classifier results.
//
// Order of decisions:
//  1. Degraded inputs: one fallback side loses outright; two fallback
//     sides yield the fixed default (Resources, 0.0, flagged for review).
//  2. A secondary result with no matched keywords has no opinion; the
//     primary result wins unconditionally.
//  3. Otherwise the contested case goes to the confidence-gap strategy.
//
// Resolve never returns an error and never produces an empty final
// category. Out-of-range confidences are clamped and logged rather than
// propagated.
func (r *Resolver) Resolve(primary, secondary *types.ClassificationResult) *types.ConflictOutcome {
	primaryFailed := primary == nil || primary.Fallback
	secondaryFailed := secondary == nil || secondary.Fallback

	secondaryCategory, secondaryConfidence := impliedOpinion(secondary)

	if primaryFailed && secondaryFailed {
		// The pipeline must never throw past this boundary: file under the
		// uncertain bucket and flag for review.
		return &types.ConflictOutcome{
			FinalCategory:    types.DefaultCategory,
			Confidence:       0.0,
			ConfidenceGap:    0.0,
			ConflictDetected: true,
			RequiresReview:   true,
			ResolutionMethod: types.ResolutionAutoByConfidence,
			WinnerSource:     types.SourcePrimary,
			Reason:           "both classifiers degraded; defaulted to Resources for review",
		}
	}

	if primaryFailed {
		if secondaryCategory == "" {
			// The surviving side has no opinion either.
			return &types.ConflictOutcome{
				FinalCategory:    types.DefaultCategory,
				Confidence:       0.0,
				ConfidenceGap:    0.0,
				ConflictDetected: true,
				RequiresReview:   true,
				ResolutionMethod: types.ResolutionAutoByConfidence,
				WinnerSource:     types.SourceSecondary,
				Reason:           "primary degraded and secondary matched no keywords; defaulted to Resources for review",
			}
		}
		return &types.ConflictOutcome{
			FinalCategory:    secondaryCategory,
			Confidence:       secondaryConfidence,
			ConfidenceGap:    -secondaryConfidence,
			ConflictDetected: false,
			RequiresReview:   false,
			ResolutionMethod: types.ResolutionAutoByConfidence,
			WinnerSource:     types.SourceSecondary,
			Reason:           "primary classifier degraded; secondary result used outright",
		}
	}

	primaryCategory := primary.Category
	if !primaryCategory.Valid() {
		// Defensive: a non-fallback primary result should always carry a
		// category. Repair rather than propagate.
		log.Printf("[RESOLVER] primary result carried invalid category %q, repaired to %s", primaryCategory, types.DefaultCategory)
		primaryCategory = types.DefaultCategory
	}
	primaryConfidence := clampLogged(primary.Confidence, "primary")

	if secondaryFailed {
		return &types.ConflictOutcome{
			FinalCategory:    primaryCategory,
			Confidence:       primaryConfidence,
			ConfidenceGap:    primaryConfidence,
			ConflictDetected: false,
			RequiresReview:   false,
			ResolutionMethod: types.ResolutionAutoByConfidence,
			WinnerSource:     types.SourcePrimary,
			Reason:           "secondary classifier degraded; primary result used outright",
		}
	}

	if secondaryCategory == "" {
		return &types.ConflictOutcome{
			FinalCategory:    primaryCategory,
			Confidence:       primaryConfidence,
			ConfidenceGap:    primaryConfidence - clampLogged(secondary.Confidence, "secondary"),
			ConflictDetected: false,
			RequiresReview:   false,
			ResolutionMethod: types.ResolutionAutoByConfidence,
			WinnerSource:     types.SourcePrimary,
			Reason:           "no secondary opinion (no keywords matched); primary wins unconditionally",
		}
	}

	return r.strategy.Decide(
		primaryCategory, primaryConfidence,
		secondaryCategory, secondaryConfidence,
		r.config.Threshold,
	)
}

// impliedOpinion normalizes the secondary result into a comparable opinion:
// the category with the most matched keywords and the classifier's own
// confidence as the match strength. Canonical category order breaks count
// ties so the resolution stays deterministic. An empty matched-keyword map
// means no opinion.
func impliedOpinion(secondary *types.ClassificationResult) (types.Category, float64) {
	if secondary == nil || secondary.Fallback {
		return "", 0.0
	}

	var best types.Category
	bestCount := 0
	for _, category := range types.AllCategories {
		if n := len(secondary.MatchedKeywords[category]); n > bestCount {
			best = category
			bestCount = n
		}
	}
	if bestCount == 0 {
		return "", 0.0
	}
	return best, clampLogged(secondary.Confidence, "secondary")
}

// clampLogged forces a confidence into [0, 1], logging when repair was
// needed. The final_category-is-never-empty guarantee extends to
// confidences: malformed values are fixed here, not propagated.
func clampLogged(confidence float64, side string) float64 {
	clamped := types.ClampUnit(confidence)
	if clamped != confidence || math.IsNaN(confidence) {
		log.Printf("[RESOLVER] %s confidence %v out of range, clamped to %.2f", side, confidence, clamped)
	}
	if math.IsNaN(confidence) {
		return 0.0
	}
	return clamped
}
