package resolver

import (
	"fmt"
	"math"

	"github.com/paraflow/paraflow/internal/types"
)

// Strategy decides the contested case: both sides expressed an opinion and
// neither was degraded. It exists as an extension point — auto_by_context
// and manual_override are declared ResolutionMethod values whose strategies
// have not been designed yet. Only the confidence-gap strategy is
// implemented; the others must not be faked.
type Strategy interface {
	// Method identifies the resolution method this strategy produces.
	Method() types.ResolutionMethod

	// Decide arbitrates between the two opinions. Implementations must be
	// pure and must honor the outcome invariants: a valid final category,
	// and RequiresReview only together with ConflictDetected.
	Decide(primaryCategory types.Category, primaryConfidence float64,
		secondaryCategory types.Category, secondaryConfidence float64,
		threshold float64) *types.ConflictOutcome
}

// confidenceStrategy resolves by the signed confidence gap between the two
// sides.
type confidenceStrategy struct{}

var _ Strategy = confidenceStrategy{}

func (confidenceStrategy) Method() types.ResolutionMethod {
	return types.ResolutionAutoByConfidence
}

// Decide applies the gap rule:
//
//	|gap| >= threshold: the higher-confidence side wins outright.
//	|gap| <  threshold: close race. The primary category wins — the
//	    reasoning-capable, context-aware side is authoritative when the
//	    race is close — but the decision is flagged for review.
//
// The close-race rule applies even when both sides name the same category:
// the conflict is about confidence, not labels, and a thin margin is worth
// a second look either way.
func (confidenceStrategy) Decide(primaryCategory types.Category, primaryConfidence float64,
	secondaryCategory types.Category, secondaryConfidence float64,
	threshold float64) *types.ConflictOutcome {

	gap := primaryConfidence - secondaryConfidence

	if math.Abs(gap) >= threshold {
		winnerCategory := primaryCategory
		winnerConfidence := primaryConfidence
		winnerSource := types.SourcePrimary
		if secondaryConfidence > primaryConfidence {
			winnerCategory = secondaryCategory
			winnerConfidence = secondaryConfidence
			winnerSource = types.SourceSecondary
		}
		return &types.ConflictOutcome{
			FinalCategory:    winnerCategory,
			Confidence:       winnerConfidence,
			ConfidenceGap:    gap,
			ConflictDetected: false,
			RequiresReview:   false,
			ResolutionMethod: types.ResolutionAutoByConfidence,
			WinnerSource:     winnerSource,
			Reason:           fmt.Sprintf("clear winner selected (gap: %.2f >= threshold %.2f)", math.Abs(gap), threshold),
		}
	}

	return &types.ConflictOutcome{
		FinalCategory:    primaryCategory,
		Confidence:       primaryConfidence,
		ConfidenceGap:    gap,
		ConflictDetected: true,
		RequiresReview:   true,
		ResolutionMethod: types.ResolutionAutoByConfidence,
		WinnerSource:     types.SourcePrimary,
		Reason:           fmt.Sprintf("close race (gap: %.2f < threshold %.2f); primary retained, flagged for review", math.Abs(gap), threshold),
	}
}
