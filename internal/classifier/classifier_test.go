package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paraflow/paraflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier lets tests script arbitrary classifier behavior.
type stubClassifier struct {
	source types.Source
	result *types.ClassificationResult
	err    error
	delay  time.Duration
}

func (s *stubClassifier) Source() types.Source { return s.source }

func (s *stubClassifier) Classify(ctx context.Context, _ string, _ *types.UserContext) (*types.ClassificationResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func TestGuardPassesThroughValidResult(t *testing.T) {
	inner := &stubClassifier{
		source: types.SourcePrimary,
		result: &types.ClassificationResult{
			Category:   types.CategoryProjects,
			Confidence: 0.9,
			Source:     types.SourcePrimary,
		},
	}

	result, err := Guard(inner, time.Second).Classify(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryProjects, result.Category)
	assert.False(t, result.Fallback)
}

func TestGuardSubstitutesFallbackOnError(t *testing.T) {
	inner := &stubClassifier{source: types.SourcePrimary, err: errors.New("api exploded")}

	result, err := Guard(inner, time.Second).Classify(context.Background(), "text", nil)
	require.NoError(t, err, "guard must never surface classifier errors")
	assert.True(t, result.Fallback)
	assert.Equal(t, types.DefaultCategory, result.Category)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, types.SourcePrimary, result.Source)
}

func TestGuardSubstitutesFallbackOnTimeout(t *testing.T) {
	inner := &stubClassifier{
		source: types.SourceSecondary,
		delay:  200 * time.Millisecond,
		result: &types.ClassificationResult{Confidence: 0.5, Source: types.SourceSecondary},
	}

	start := time.Now()
	result, err := Guard(inner, 20*time.Millisecond).Classify(context.Background(), "text", nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, types.SourceSecondary, result.Source)
	assert.Less(t, elapsed, 150*time.Millisecond, "guard should return at the timeout, not wait out the classifier")
}

func TestGuardSubstitutesFallbackOnMalformedResult(t *testing.T) {
	inner := &stubClassifier{
		source: types.SourcePrimary,
		result: &types.ClassificationResult{
			Category:   types.CategoryProjects,
			Confidence: 7.5, // out of range
			Source:     types.SourcePrimary,
		},
	}

	result, err := Guard(inner, time.Second).Classify(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestGuardSubstitutesFallbackOnNilResult(t *testing.T) {
	inner := &stubClassifier{source: types.SourcePrimary}

	result, err := Guard(inner, time.Second).Classify(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestFallbackResultIsDeterministic(t *testing.T) {
	first := FallbackResult(types.SourcePrimary, "timeout")
	second := FallbackResult(types.SourcePrimary, "timeout")
	assert.Equal(t, first, second)
	require.NoError(t, first.Validate())
	assert.Equal(t, types.DefaultCategory, first.Category)
}
