package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/paraflow/paraflow/internal/types"
)

// ruleMarkers are the deterministic heuristics behind the rule-based
// primary classifier: literal markers whose presence votes for a category.
// Korean first (the source documents), English alongside.
var ruleMarkers = map[types.Category][]string{
	types.CategoryProjects: {
		"마감", "기한", "까지", "출시", "런칭", "계획서", "해야 할",
		"deadline", "due", "launch", "milestone", "deliverable", "todo",
	},
	types.CategoryAreas: {
		"관리", "습관", "루틴", "정기", "매주", "매달", "책임",
		"routine", "habit", "ongoing", "weekly", "monthly", "maintain",
	},
	types.CategoryResources: {
		"참고", "자료", "아티클", "튜토리얼", "정리", "링크", "메모",
		"reference", "article", "tutorial", "guide", "notes", "how to",
	},
	types.CategoryArchives: {
		// Substring matching: keep these long enough to avoid false hits
		// inside unrelated words.
		"보관", "완료됨", "완료된", "종료", "지난", "예전", "백업",
		"archived", "completed", "finished", "backup",
	},
}

// RuleClassifier is the deterministic primary classifier used when no model
// is available. Same interface, same result contract; the resolver never
// knows whether rules or a model produced the primary side.
type RuleClassifier struct{}

var _ Classifier = (*RuleClassifier)(nil)

// NewRuleClassifier creates a rule-based primary classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Source implements Classifier.
func (r *RuleClassifier) Source() types.Source {
	return types.SourcePrimary
}

// Classify scores each category by marker hits, with declared-area overlap
// counted as extra Areas votes. Deterministic: same text and context always
// yield the same result.
func (r *RuleClassifier) Classify(_ context.Context, text string, uctx *types.UserContext) (*types.ClassificationResult, error) {
	lower := strings.ToLower(text)

	scores := make(map[types.Category]int, len(ruleMarkers))
	hits := make(map[types.Category][]string, len(ruleMarkers))
	for _, category := range types.AllCategories {
		for _, marker := range ruleMarkers[category] {
			if strings.Contains(lower, strings.ToLower(marker)) {
				scores[category]++
				hits[category] = append(hits[category], marker)
			}
		}
	}

	// A document mentioning a declared responsibility area leans Areas.
	contextHit := false
	for _, area := range uctx.AreasOrNil() {
		if strings.Contains(lower, strings.ToLower(area)) {
			scores[types.CategoryAreas] += 2
			hits[types.CategoryAreas] = append(hits[types.CategoryAreas], area)
			contextHit = true
		}
	}

	best := types.DefaultCategory
	bestScore := 0
	// Canonical order keeps ties deterministic
	for _, category := range types.AllCategories {
		if scores[category] > bestScore {
			best = category
			bestScore = scores[category]
		}
	}

	if bestScore == 0 {
		return &types.ClassificationResult{
			Category:   types.DefaultCategory,
			Confidence: 0.3,
			Reasoning:  "no rule markers matched; defaulted to Resources",
			Source:     types.SourcePrimary,
			HasContext: !uctx.Empty(),
		}, nil
	}

	confidence := 0.4 + 0.1*float64(bestScore)
	if confidence > 0.8 {
		confidence = 0.8 // rules never claim model-grade certainty
	}

	matched := hits[best]
	sort.Strings(matched)

	return &types.ClassificationResult{
		Category:   best,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("rule markers matched for %s: %s", best, strings.Join(matched, ", ")),
		Source:     types.SourcePrimary,
		HasContext: contextHit,
	}, nil
}
