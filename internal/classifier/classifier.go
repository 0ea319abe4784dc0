// Package classifier provides the two classification sides of the pipeline:
// a reasoning primary classifier (LLM-backed or rule-based) and a
// keyword-matching secondary classifier, both behind one interface.
//
// The resolver and orchestrator never branch on which mechanism produced a
// result; the mechanism is an implementation detail behind Classifier.
package classifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paraflow/paraflow/internal/types"
)

// Classifier is the single capability both sides implement.
//
// Implementations must be stateless (or share only read-only state) so that
// one instance is safe to invoke concurrently, and must never retain the
// returned result.
type Classifier interface {
	// Classify assigns the text to a PARA category (or, for the secondary
	// side, extracts tags and matched keywords) biased by the user context.
	// A nil or empty context means "no context" and must degrade gracefully.
	Classify(ctx context.Context, text string, uctx *types.UserContext) (*types.ClassificationResult, error)

	// Source identifies which pipeline side this classifier serves.
	Source() types.Source
}

// FallbackResult is the deterministic degraded result substituted when a
// classifier fails, times out, or returns malformed output. It is the
// lowest-confidence assignment to the uncertain bucket; the resolver treats
// it as "no opinion" so the other side can win outright.
func FallbackResult(source types.Source, cause string) *types.ClassificationResult {
	return &types.ClassificationResult{
		Category:   types.DefaultCategory,
		Confidence: 0.0,
		Reasoning:  fmt.Sprintf("classifier unavailable (%s); defaulted to %s", cause, types.DefaultCategory),
		Source:     source,
		Fallback:   true,
	}
}

// Guarded wraps a classifier with a bounded timeout and the fallback
// policy: whatever goes wrong inside, the caller always receives a result
// and never an error. The resolver's guarantee that final_category is never
// empty depends on receiving some result from each side.
type Guarded struct {
	inner   Classifier
	timeout time.Duration
}

// Guard wraps c with the timeout/fallback policy.
func Guard(c Classifier, timeout time.Duration) *Guarded {
	return &Guarded{inner: c, timeout: timeout}
}

// Source returns the wrapped classifier's source.
func (g *Guarded) Source() types.Source {
	return g.inner.Source()
}

// Classify invokes the wrapped classifier with a deadline. On timeout,
// error, or a malformed result it logs and substitutes the deterministic
// fallback. The returned error is always nil.
func (g *Guarded) Classify(ctx context.Context, text string, uctx *types.UserContext) (*types.ClassificationResult, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type answer struct {
		result *types.ClassificationResult
		err    error
	}
	done := make(chan answer, 1)

	go func() {
		result, err := g.inner.Classify(callCtx, text, uctx)
		done <- answer{result, err}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			log.Printf("[CLASSIFIER] %s side failed, using fallback: %v", g.Source(), a.err)
			return FallbackResult(g.Source(), a.err.Error()), nil
		}
		if a.result == nil {
			log.Printf("[CLASSIFIER] %s side returned nil result, using fallback", g.Source())
			return FallbackResult(g.Source(), "nil result"), nil
		}
		if err := a.result.Validate(); err != nil {
			log.Printf("[CLASSIFIER] %s side returned malformed result, using fallback: %v", g.Source(), err)
			return FallbackResult(g.Source(), fmt.Sprintf("malformed result: %v", err)), nil
		}
		return a.result, nil
	case <-callCtx.Done():
		log.Printf("[CLASSIFIER] %s side timed out after %v, using fallback", g.Source(), g.timeout)
		return FallbackResult(g.Source(), "timeout"), nil
	}
}
