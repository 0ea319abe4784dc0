package resolver

import (
	"math"
	"reflect"
	"testing"

	"github.com/paraflow/paraflow/internal/classifier"
	"github.com/paraflow/paraflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(DefaultConfig())
	require.NoError(t, err)
	return r
}

func primaryResult(category types.Category, confidence float64) *types.ClassificationResult {
	return &types.ClassificationResult{
		Category:   category,
		Confidence: confidence,
		Reasoning:  "test",
		Source:     types.SourcePrimary,
	}
}

func secondaryResult(category types.Category, confidence float64, keywords ...string) *types.ClassificationResult {
	result := &types.ClassificationResult{
		Confidence: confidence,
		Source:     types.SourceSecondary,
	}
	if category != "" {
		result.MatchedKeywords = map[types.Category][]string{category: keywords}
		result.Tags = keywords
	}
	return result
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Threshold: 0}.Validate())
	assert.Error(t, Config{Threshold: -0.2}.Validate())
	assert.Error(t, Config{Threshold: 1.5}.Validate())

	_, err := New(Config{Threshold: 0})
	assert.Error(t, err)
}

func TestResolveClearWinnerPrimary(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(
		primaryResult(types.CategoryProjects, 0.95),
		secondaryResult(types.CategoryAreas, 0.4, "건강"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
	assert.Equal(t, types.SourcePrimary, outcome.WinnerSource)
	assert.False(t, outcome.ConflictDetected)
	assert.False(t, outcome.RequiresReview)
	assert.InDelta(t, 0.55, outcome.ConfidenceGap, 1e-9)
	assert.Equal(t, types.ResolutionAutoByConfidence, outcome.ResolutionMethod)
	assert.Contains(t, outcome.Reason, "clear winner")
}

func TestResolveClearWinnerSecondary(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(
		primaryResult(types.CategoryResources, 0.3),
		secondaryResult(types.CategoryProjects, 0.9, "마감", "출시"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
	assert.Equal(t, types.SourceSecondary, outcome.WinnerSource)
	assert.Equal(t, 0.9, outcome.Confidence)
	assert.False(t, outcome.ConflictDetected)
	// Signed gap records that the primary side was weaker
	assert.InDelta(t, -0.6, outcome.ConfidenceGap, 1e-9)
}

func TestResolveCloseRacePrimaryTieBreak(t *testing.T) {
	r := mustResolver(t)

	// Scenario A: agreement on category, gap 0.05 below threshold.
	// The gap drives the outcome: conflict detected, primary retained,
	// flagged for review.
	outcome := r.Resolve(
		primaryResult(types.CategoryProjects, 0.95),
		secondaryResult(types.CategoryProjects, 0.9, "프로젝트"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
	assert.Equal(t, types.SourcePrimary, outcome.WinnerSource)
	assert.True(t, outcome.ConflictDetected)
	assert.True(t, outcome.RequiresReview)
	assert.InDelta(t, 0.05, outcome.ConfidenceGap, 1e-9)
	assert.Contains(t, outcome.Reason, "close race")
}

func TestResolveCloseRaceDisagreement(t *testing.T) {
	r := mustResolver(t)

	// Secondary is slightly MORE confident, but the primary side still wins
	// the tie-break: it is the context-aware, reasoning-capable side.
	outcome := r.Resolve(
		primaryResult(types.CategoryAreas, 0.7),
		secondaryResult(types.CategoryResources, 0.8, "참고"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryAreas, outcome.FinalCategory)
	assert.Equal(t, types.SourcePrimary, outcome.WinnerSource)
	assert.True(t, outcome.ConflictDetected)
	assert.True(t, outcome.RequiresReview)
	assert.InDelta(t, -0.1, outcome.ConfidenceGap, 1e-9)
}

func TestResolveNoSecondaryOpinion(t *testing.T) {
	r := mustResolver(t)

	// Scenario B: secondary matched nothing; primary wins unconditionally.
	outcome := r.Resolve(
		primaryResult(types.CategoryArchives, 0.85),
		secondaryResult("", 0.0),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryArchives, outcome.FinalCategory)
	assert.False(t, outcome.ConflictDetected)
	assert.False(t, outcome.RequiresReview)
	assert.Contains(t, outcome.Reason, "no secondary opinion")
}

func TestResolveDegradedSecondary(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(
		primaryResult(types.CategoryProjects, 0.6),
		classifier.FallbackResult(types.SourceSecondary, "timeout"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
	assert.False(t, outcome.ConflictDetected)
	assert.Contains(t, outcome.Reason, "degraded")
}

func TestResolveDegradedPrimary(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(
		classifier.FallbackResult(types.SourcePrimary, "timeout"),
		secondaryResult(types.CategoryAreas, 0.7, "건강", "운동"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryAreas, outcome.FinalCategory)
	assert.Equal(t, types.SourceSecondary, outcome.WinnerSource)
	assert.Equal(t, 0.7, outcome.Confidence)
	assert.False(t, outcome.ConflictDetected)
	assert.Contains(t, outcome.Reason, "degraded")
}

func TestResolveBothDegraded(t *testing.T) {
	r := mustResolver(t)

	// Scenario C: both sides failed. Fixed default, flagged for review.
	outcome := r.Resolve(
		classifier.FallbackResult(types.SourcePrimary, "timeout"),
		classifier.FallbackResult(types.SourceSecondary, "timeout"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryResources, outcome.FinalCategory)
	assert.Equal(t, 0.0, outcome.Confidence)
	assert.True(t, outcome.RequiresReview)
}

func TestResolveNilInputsTreatedAsDegraded(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(nil, nil)
	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryResources, outcome.FinalCategory)
	assert.True(t, outcome.RequiresReview)

	outcome = r.Resolve(primaryResult(types.CategoryProjects, 0.8), nil)
	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
}

func TestResolveIsPure(t *testing.T) {
	r := mustResolver(t)

	primary := primaryResult(types.CategoryProjects, 0.61)
	secondary := secondaryResult(types.CategoryAreas, 0.55, "건강")

	first := r.Resolve(primary, secondary)
	second := r.Resolve(primary, secondary)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve is not pure:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResolveClampsMalformedConfidence(t *testing.T) {
	r := mustResolver(t)

	outcome := r.Resolve(
		primaryResult(types.CategoryProjects, 3.7),
		secondaryResult(types.CategoryAreas, -0.4, "건강"),
	)

	require.NoError(t, outcome.Validate())
	assert.Equal(t, types.CategoryProjects, outcome.FinalCategory)
	assert.LessOrEqual(t, outcome.Confidence, 1.0)

	nan := r.Resolve(primaryResult(types.CategoryProjects, math.NaN()), secondaryResult(types.CategoryAreas, 0.5, "건강"))
	require.NoError(t, nan.Validate())
}

// TestGapThresholdProperty sweeps thresholds and confidence pairs: whenever
// the absolute gap is at or above the threshold, the outcome must not be
// flagged for review, and review always travels with conflict detection.
func TestGapThresholdProperty(t *testing.T) {
	for _, threshold := range []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.9, 1.0} {
		r, err := New(Config{Threshold: threshold})
		require.NoError(t, err)

		for pc := 0.0; pc <= 1.0; pc += 0.05 {
			for sc := 0.0; sc <= 1.0; sc += 0.05 {
				outcome := r.Resolve(
					primaryResult(types.CategoryProjects, pc),
					secondaryResult(types.CategoryAreas, sc, "건강"),
				)

				require.NoError(t, outcome.Validate(),
					"threshold=%v pc=%v sc=%v", threshold, pc, sc)

				gap := math.Abs(pc - sc)
				if gap >= threshold && outcome.RequiresReview {
					t.Fatalf("gap %.2f >= threshold %.2f but requires_review set (pc=%v sc=%v)", gap, threshold, pc, sc)
				}
				if gap < threshold && !outcome.ConflictDetected {
					t.Fatalf("gap %.2f < threshold %.2f but no conflict detected (pc=%v sc=%v)", gap, threshold, pc, sc)
				}
				if !outcome.FinalCategory.Valid() {
					t.Fatalf("invalid final category %q", outcome.FinalCategory)
				}
			}
		}
	}
}

func TestImpliedOpinionTieBreakIsCanonicalOrder(t *testing.T) {
	secondary := &types.ClassificationResult{
		Confidence: 0.6,
		Source:     types.SourceSecondary,
		MatchedKeywords: map[types.Category][]string{
			types.CategoryArchives: {"보관"},
			types.CategoryProjects: {"마감"},
		},
	}

	category, confidence := impliedOpinion(secondary)
	assert.Equal(t, types.CategoryProjects, category, "canonical order breaks equal match counts")
	assert.Equal(t, 0.6, confidence)
}

func TestImpliedOpinionPicksStrongestCategory(t *testing.T) {
	secondary := &types.ClassificationResult{
		Confidence: 0.8,
		Source:     types.SourceSecondary,
		MatchedKeywords: map[types.Category][]string{
			types.CategoryProjects: {"마감"},
			types.CategoryAreas:    {"건강", "운동", "습관"},
		},
	}

	category, _ := impliedOpinion(secondary)
	assert.Equal(t, types.CategoryAreas, category)
}
