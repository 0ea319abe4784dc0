// Package profile builds per-request user contexts from stored user
// profiles. The context biases both classifiers toward the user's declared
// responsibilities.
package profile

import (
	"strings"

	"github.com/paraflow/paraflow/internal/types"
)

// keywordSuffixes are the fixed expansion suffixes applied to each declared
// area. The expansion is intentionally naive string concatenation, not
// semantic: it exists to give the keyword classifier literal substrings to
// match against the user's (largely Korean) documents.
//
// "관련" = related, "업무" = work/duties, "프로젝트" = project.
var keywordSuffixes = []string{"관련", "업무", "프로젝트"}

// Builder constructs UserContext values. Stateless; the zero value is ready
// to use and safe for concurrent callers.
type Builder struct{}

// NewBuilder returns a context builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build assembles a UserContext from profile fields. Pure and deterministic:
// same inputs always yield the same context, and no network or model call is
// made. Malformed input (blank areas, duplicate entries) is cleaned rather
// than rejected — a degraded context is always preferable to a failed
// classification.
//
// An empty areas list yields an empty keyword map; downstream classifiers
// treat that as "no context".
func (b *Builder) Build(userID, occupation string, areas, interests []string) *types.UserContext {
	cleanAreas := cleanList(areas)

	ctx := &types.UserContext{
		Occupation: strings.TrimSpace(occupation),
		Areas:      cleanAreas,
		Interests:  cleanList(interests),
	}

	if len(cleanAreas) == 0 {
		return ctx
	}

	keywords := make(map[string][]string, len(cleanAreas))
	for _, area := range cleanAreas {
		variants := make([]string, 0, len(keywordSuffixes)+1)
		variants = append(variants, area)
		for _, suffix := range keywordSuffixes {
			variants = append(variants, area+" "+suffix)
		}
		keywords[area] = variants
	}
	ctx.ContextKeywords = keywords

	return ctx
}

// cleanList trims entries and drops blanks and duplicates, preserving the
// user's declared order.
func cleanList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
