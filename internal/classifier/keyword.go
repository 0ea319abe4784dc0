package classifier

import (
	"context"
	"sort"
	"strings"

	"github.com/paraflow/paraflow/internal/types"
)

// categoryKeywords are the base per-category dictionaries for the keyword
// classifier. Korean entries first (the source documents), English
// alongside. Matching is literal substring matching, by design: the
// secondary side exists as an independent, mechanism-free signal against
// which the reasoning classifier is arbitrated.
var categoryKeywords = map[types.Category][]string{
	types.CategoryProjects: {
		"프로젝트", "마감", "출시", "런칭", "기획", "개발 일정", "마일스톤",
		"project", "deadline", "launch", "sprint", "milestone", "release",
	},
	types.CategoryAreas: {
		"건강", "재정", "재테크", "커리어", "가족", "관리", "습관", "운동",
		"health", "finance", "career", "family", "habit", "fitness",
	},
	types.CategoryResources: {
		"참고", "자료", "아티클", "스크랩", "튜토리얼", "가이드", "링크",
		"reference", "article", "clipping", "tutorial", "guide", "bookmark",
	},
	types.CategoryArchives: {
		"보관", "아카이브", "완료", "종료", "회고", "백업",
		"archive", "completed", "retrospective", "backup", "deprecated",
	},
}

// KeywordClassifier is the secondary classifier: a naive literal keyword
// matcher over the base dictionaries plus the user's derived context
// keywords. It produces tags (for display, independent of the winning
// category) and a matched-keywords-per-category map (the resolver's
// comparison signal). It never picks a category itself.
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates the secondary keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Source implements Classifier.
func (k *KeywordClassifier) Source() types.Source {
	return types.SourceSecondary
}

// Classify scans the text for base and context-derived keywords.
// Deterministic and context-free of shared state; safe to call
// concurrently with the primary side for the same request.
//
// Confidence is match strength: 0.0 with no matches (no opinion),
// otherwise 0.5 + 0.1 per match on the strongest category, capped at 0.95.
func (k *KeywordClassifier) Classify(_ context.Context, text string, uctx *types.UserContext) (*types.ClassificationResult, error) {
	lower := strings.ToLower(text)

	matched := make(map[types.Category][]string)
	for _, category := range types.AllCategories {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				matched[category] = append(matched[category], keyword)
			}
		}
	}

	// Context keyword variants count toward Areas: a document mentioning a
	// declared responsibility is evidence for the Areas bucket.
	contextHit := false
	for _, variants := range uctx.ContextKeywordsOrNil() {
		for _, variant := range variants {
			if strings.Contains(lower, strings.ToLower(variant)) {
				matched[types.CategoryAreas] = appendUnique(matched[types.CategoryAreas], variant)
				contextHit = true
			}
		}
	}

	// Tags are every matched keyword across categories, deduplicated and
	// sorted for stable output.
	var tags []string
	seen := make(map[string]bool)
	for _, keywords := range matched {
		for _, keyword := range keywords {
			if !seen[keyword] {
				seen[keyword] = true
				tags = append(tags, keyword)
			}
		}
	}
	sort.Strings(tags)

	best := 0
	for _, category := range types.AllCategories {
		if n := len(matched[category]); n > best {
			best = n
		}
	}

	confidence := 0.0
	reasoning := "no keywords matched"
	if best > 0 {
		confidence = 0.5 + 0.1*float64(best)
		if confidence > 0.95 {
			confidence = 0.95
		}
		reasoning = "matched " + strings.Join(tags, ", ")
	}
	if len(matched) == 0 {
		matched = nil
	}

	return &types.ClassificationResult{
		Confidence:      confidence,
		Reasoning:       reasoning,
		Source:          types.SourceSecondary,
		HasContext:      contextHit,
		Tags:            tags,
		MatchedKeywords: matched,
	}, nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
