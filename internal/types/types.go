// Package types defines the core types shared across the paraflow
// classification pipeline: the PARA category enum, per-classifier results,
// the resolver's conflict outcome, and the snapshot audit record.
//
// This package is intentionally dependency-free so that every other package
// can import it without cycles.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Category is one of the four fixed PARA classification buckets.
type Category string

const (
	// CategoryProjects holds actionable work with a defined outcome and deadline.
	CategoryProjects Category = "Projects"

	// CategoryAreas holds ongoing responsibilities with no end date.
	CategoryAreas Category = "Areas"

	// CategoryResources holds reference material for future use.
	// This is also the fallback bucket when classification is uncertain.
	CategoryResources Category = "Resources"

	// CategoryArchives holds inactive items from the other three categories.
	CategoryArchives Category = "Archives"
)

// DefaultCategory is the bucket used when no classifier produced a usable
// answer. Resources is the "uncertain / reference" bucket: an uncertain
// answer filed under Resources is recoverable, a dropped document is not.
const DefaultCategory = CategoryResources

// AllCategories lists the four categories in their canonical order.
// The order matters: it is the deterministic tie-break when two categories
// have equal keyword match counts.
var AllCategories = []Category{
	CategoryProjects,
	CategoryAreas,
	CategoryResources,
	CategoryArchives,
}

// categoryAliases maps lowercase spellings (including the Korean labels used
// by the source documents) to canonical categories.
var categoryAliases = map[string]Category{
	"projects":  CategoryProjects,
	"project":   CategoryProjects,
	"프로젝트":      CategoryProjects,
	"areas":     CategoryAreas,
	"area":      CategoryAreas,
	"영역":        CategoryAreas,
	"resources": CategoryResources,
	"resource":  CategoryResources,
	"자료":        CategoryResources,
	"archives":  CategoryArchives,
	"archive":   CategoryArchives,
	"보관":        CategoryArchives,
}

// ParseCategory converts a free-form category label (as returned by an LLM
// or typed by a user) into a canonical Category. Parsing is lenient about
// case and accepts the Korean labels from the source domain.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (expected one of Projects/Areas/Resources/Archives)", s)
}

// Valid reports whether c is one of the four canonical categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryProjects, CategoryAreas, CategoryResources, CategoryArchives:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Source identifies which classifier produced a result.
type Source string

const (
	// SourcePrimary is the reasoning (LLM or rule-based) PARA classifier.
	SourcePrimary Source = "primary"

	// SourceSecondary is the keyword-matching classifier.
	SourceSecondary Source = "secondary"
)

// ResolutionMethod identifies how a conflict between the two classifiers
// was resolved.
type ResolutionMethod string

const (
	// ResolutionAutoByConfidence resolves by comparing classifier confidence
	// scores against the configured gap threshold. This is the only method
	// the resolver currently produces.
	ResolutionAutoByConfidence ResolutionMethod = "auto_by_confidence"

	// ResolutionAutoByContext is declared for a future context-weighted
	// strategy. No resolver path produces it yet.
	ResolutionAutoByContext ResolutionMethod = "auto_by_context"

	// ResolutionManualOverride is declared for human review tooling.
	// No resolver path produces it yet.
	ResolutionManualOverride ResolutionMethod = "manual_override"
)

// ClassificationResult is the output of a single classifier invocation.
// Results are immutable after creation and owned by the orchestration call
// that created them; classifiers must never retain or mutate a returned
// result.
type ClassificationResult struct {
	// Category is the classifier's chosen bucket. Empty for a secondary
	// result whose opinion is expressed only through MatchedKeywords.
	Category Category `json:"category,omitempty"`

	// Confidence is the classifier's confidence in its own answer (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// Reasoning is free-text justification for display and audit. May be empty.
	Reasoning string `json:"reasoning,omitempty"`

	// Source identifies which classifier produced this result.
	Source Source `json:"source"`

	// HasContext is true when a non-empty user context influenced the result.
	HasContext bool `json:"has_context"`

	// Fallback marks the deterministic degraded result substituted when the
	// classifier timed out, errored, or returned malformed output. The
	// resolver treats a fallback side as having no opinion.
	Fallback bool `json:"fallback,omitempty"`

	// Tags are the display tags extracted by the secondary classifier.
	// Surfaced to the caller regardless of which side won the category.
	Tags []string `json:"tags,omitempty"`

	// MatchedKeywords maps each category to the keywords that matched the
	// input text. Only the secondary classifier populates this; a non-empty
	// entry is what gives the secondary side an "implied category" during
	// conflict resolution.
	MatchedKeywords map[Category][]string `json:"matched_keywords,omitempty"`
}

// Validate checks that the result is well-formed.
func (r *ClassificationResult) Validate() error {
	if r.Confidence < 0.0 || r.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", r.Confidence)
	}
	if r.Source != SourcePrimary && r.Source != SourceSecondary {
		return fmt.Errorf("source must be primary or secondary (got %q)", r.Source)
	}
	if r.Category != "" && !r.Category.Valid() {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	for cat := range r.MatchedKeywords {
		if !cat.Valid() {
			return fmt.Errorf("matched_keywords contains invalid category %q", cat)
		}
	}
	return nil
}

// ClampConfidence returns the confidence forced into [0, 1]. Used by the
// resolver's defensive invariant repair: a malformed confidence is clamped
// and logged, never propagated.
func (r *ClassificationResult) ClampConfidence() float64 {
	return ClampUnit(r.Confidence)
}

// ClampUnit forces v into the [0, 1] interval.
func ClampUnit(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// ConflictOutcome is the resolver's arbitration decision for one pair of
// classifier results. Computed once, immutable.
//
// Invariants (enforced by Validate and relied on by the snapshot trail):
//   - FinalCategory is always one of the four categories, never empty.
//   - ConflictDetected implies the confidence gap was below the threshold.
//   - RequiresReview implies ConflictDetected.
type ConflictOutcome struct {
	// FinalCategory is the winning bucket. Never empty, even when both
	// classifiers failed (fallback policy guarantees a default).
	FinalCategory Category `json:"final_category"`

	// Confidence is the winning side's confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// ConfidenceGap is the signed distance primary.Confidence minus the
	// secondary's implied confidence. Threshold comparisons use its
	// absolute value; the sign records which side was stronger.
	ConfidenceGap float64 `json:"confidence_gap"`

	// ConflictDetected is true when both sides expressed an opinion and the
	// gap between them was below the resolution threshold.
	ConflictDetected bool `json:"conflict_detected"`

	// RequiresReview is true when the race was close enough that a human or
	// a scheduled reclassification pass should re-examine the decision.
	RequiresReview bool `json:"requires_review"`

	// ResolutionMethod records how the decision was made.
	ResolutionMethod ResolutionMethod `json:"resolution_method"`

	// WinnerSource records which classifier's category was adopted.
	WinnerSource Source `json:"winner_source"`

	// Reason is a short human-readable justification stating the gap and
	// whether it was decisive.
	Reason string `json:"reason"`
}

// Validate checks the outcome's structural invariants.
func (o *ConflictOutcome) Validate() error {
	if !o.FinalCategory.Valid() {
		return fmt.Errorf("final_category must be a valid category (got %q)", o.FinalCategory)
	}
	if o.Confidence < 0.0 || o.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", o.Confidence)
	}
	if o.RequiresReview && !o.ConflictDetected {
		return fmt.Errorf("requires_review implies conflict_detected")
	}
	if o.WinnerSource != SourcePrimary && o.WinnerSource != SourceSecondary {
		return fmt.Errorf("winner_source must be primary or secondary (got %q)", o.WinnerSource)
	}
	return nil
}

// UserContext carries the user's declared responsibilities, built fresh per
// request from a stored profile. Immutable for the duration of one
// classification; both classifiers receive the same instance.
type UserContext struct {
	// Occupation is the user's declared occupation, used to bias the
	// primary classifier's prompt.
	Occupation string `json:"occupation,omitempty"`

	// Areas are the user's declared responsibility domains, in the order
	// the user listed them.
	Areas []string `json:"areas,omitempty"`

	// Interests are free-form interest topics.
	Interests []string `json:"interests,omitempty"`

	// ContextKeywords maps each declared area to its derived keyword
	// variants (the area itself plus fixed-suffix expansions). These are
	// literal substrings for the keyword classifier to match, not semantic
	// expansions.
	ContextKeywords map[string][]string `json:"context_keywords,omitempty"`
}

// Empty reports whether the context carries no usable signal. Classifiers
// treat an empty context as "no context" and must degrade gracefully.
func (c *UserContext) Empty() bool {
	if c == nil {
		return true
	}
	return c.Occupation == "" && len(c.Areas) == 0 && len(c.Interests) == 0
}

// AreasOrNil returns the declared areas, tolerating a nil receiver.
func (c *UserContext) AreasOrNil() []string {
	if c == nil {
		return nil
	}
	return c.Areas
}

// ContextKeywordsOrNil returns the derived keyword map, tolerating a nil
// receiver.
func (c *UserContext) ContextKeywordsOrNil() map[string][]string {
	if c == nil {
		return nil
	}
	return c.ContextKeywords
}

// Snapshot is the append-only audit record of one classification decision:
// the bounded input text, both raw classifier results, and the resolver's
// outcome. Snapshots are created once at the end of a classification cycle
// and never updated; comparing two snapshots by id is how the
// reclassification automation detects drift over time.
type Snapshot struct {
	// ID is a unique, collision-resistant identifier
	// (millisecond timestamp plus random suffix).
	ID string `json:"id"`

	// CreatedAt is when the snapshot was recorded.
	CreatedAt time.Time `json:"created_at"`

	// TextPrefix is a bounded prefix of the classified text, truncated for
	// storage economy.
	TextPrefix string `json:"text_prefix"`

	// Primary is the raw primary classifier result.
	Primary ClassificationResult `json:"primary"`

	// Secondary is the raw secondary classifier result.
	Secondary ClassificationResult `json:"secondary"`

	// Outcome is the resolver's decision.
	Outcome ConflictOutcome `json:"outcome"`

	// Metadata carries arbitrary caller-supplied labels, e.g. whether the
	// classification was triggered by a file upload or direct text.
	Metadata map[string]string `json:"metadata,omitempty"`
}
