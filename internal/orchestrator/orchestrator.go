// Package orchestrator composes the classification pipeline into one
// request/response cycle: build context, fan out both classifiers, resolve
// the conflict, snapshot the decision, flatten the response.
//
// This is the only component the outside world calls, and the only one with
// a side effect (snapshot persistence). Everything below it is pure or
// fail-safe.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/paraflow/paraflow/internal/classifier"
	"github.com/paraflow/paraflow/internal/profile"
	"github.com/paraflow/paraflow/internal/resolver"
	"github.com/paraflow/paraflow/internal/snapshot"
	"github.com/paraflow/paraflow/internal/types"
)

// DefaultClassifierTimeout bounds each classifier side. The guard layer
// substitutes the fallback result at the deadline, so a classification
// request never hangs on a stuck model call.
const DefaultClassifierTimeout = 45 * time.Second

// Request is one classification request. Occupation, Areas, and Interests
// override the stored profile for UserID when set.
type Request struct {
	Text       string            `json:"text"`
	UserID     string            `json:"user_id"`
	Occupation string            `json:"occupation,omitempty"`
	Areas      []string          `json:"areas,omitempty"`
	Interests  []string          `json:"interests,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Response is the flattened classification result returned to callers.
// Field names are the boundary contract with the upload/dashboard surfaces.
type Response struct {
	Category         types.Category `json:"category"`
	Confidence       float64        `json:"confidence"`
	KeywordTags      []string       `json:"keyword_tags"`
	Reasoning        string         `json:"reasoning"`
	SnapshotID       string         `json:"snapshot_id"`
	ConflictDetected bool           `json:"conflict_detected"`
	RequiresReview   bool           `json:"requires_review"`

	// Outcome carries the full resolver decision for operator surfaces
	// (CLI, REPL); the boundary JSON above is what external callers key on.
	Outcome *types.ConflictOutcome `json:"-"`
}

// LogRecord is the per-classification record handed to the analytics
// persistence surface.
type LogRecord struct {
	UserID     string         `json:"user_id"`
	TextID     string         `json:"text_id"`
	Category   types.Category `json:"final_category"`
	Confidence float64        `json:"confidence"`
}

// Orchestrator wires the pipeline together. Safe for concurrent requests:
// classifiers are stateless, the resolver is pure, and the snapshot store
// handles concurrent appends.
type Orchestrator struct {
	builder   *profile.Builder
	profiles  *profile.Store
	primary   classifier.Classifier
	secondary classifier.Classifier
	resolver  *resolver.Resolver
	snapshots *snapshot.Manager
}

// New creates an orchestrator. Both classifiers are wrapped with the
// timeout/fallback guard here, so callers hand in bare classifiers.
// profiles may be nil when no stored profiles exist.
func New(primary, secondary classifier.Classifier, res *resolver.Resolver, snapshots *snapshot.Manager, profiles *profile.Store, classifierTimeout time.Duration) (*Orchestrator, error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("both classifiers are required")
	}
	if primary.Source() != types.SourcePrimary {
		return nil, fmt.Errorf("primary classifier reports source %q", primary.Source())
	}
	if secondary.Source() != types.SourceSecondary {
		return nil, fmt.Errorf("secondary classifier reports source %q", secondary.Source())
	}
	if res == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot manager is required")
	}
	if classifierTimeout <= 0 {
		classifierTimeout = DefaultClassifierTimeout
	}

	return &Orchestrator{
		builder:   profile.NewBuilder(),
		profiles:  profiles,
		primary:   classifier.Guard(primary, classifierTimeout),
		secondary: classifier.Guard(secondary, classifierTimeout),
		resolver:  res,
		snapshots: snapshots,
	}, nil
}

// Classify runs one full classification cycle. Classifier failures never
// surface as errors — the fallback policy guarantees both sides always
// yield a result — and a snapshot persistence failure degrades to an empty
// snapshot_id rather than failing the response. The only error is an
// unusable request.
func (o *Orchestrator) Classify(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	uctx := o.buildContext(req)

	// Fan out both sides. They share no mutable state and the resolver is
	// a pure function of both completed results, so completion order never
	// affects the outcome — but both must finish before arbitration.
	var (
		wg              sync.WaitGroup
		primaryResult   *types.ClassificationResult
		secondaryResult *types.ClassificationResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		primaryResult = o.classifySide(ctx, o.primary, req.Text, uctx)
	}()
	go func() {
		defer wg.Done()
		secondaryResult = o.classifySide(ctx, o.secondary, req.Text, uctx)
	}()
	wg.Wait()

	outcome := o.resolver.Resolve(primaryResult, secondaryResult)

	// Snapshot creation is synchronous: the response carries the id, so the
	// record must exist before we return. A failed audit write must never
	// fail the classification itself.
	snapshotID := ""
	if snap, err := o.snapshots.Create(ctx, req.Text, primaryResult, secondaryResult, outcome, o.snapshotMetadata(req)); err != nil {
		log.Printf("[ORCHESTRATOR] snapshot write failed, returning result without audit record: %v", err)
	} else {
		snapshotID = snap.ID
	}

	return &Response{
		Category:         outcome.FinalCategory,
		Confidence:       outcome.Confidence,
		KeywordTags:      secondaryResult.Tags,
		Reasoning:        responseReasoning(outcome, primaryResult, secondaryResult),
		SnapshotID:       snapshotID,
		ConflictDetected: outcome.ConflictDetected,
		RequiresReview:   outcome.RequiresReview,
		Outcome:          outcome,
	}, nil
}

// Record flattens a response into the analytics record for the persistence
// surface. textID is the caller's identifier for the classified item
// (filename, note id).
func (r *Response) Record(userID, textID string) LogRecord {
	return LogRecord{
		UserID:     userID,
		TextID:     textID,
		Category:   r.Category,
		Confidence: r.Confidence,
	}
}

// buildContext resolves the effective profile (request overrides win over
// the stored profile) and builds the per-request context. Context build
// failures do not exist by construction: malformed fields degrade to an
// empty context inside the builder.
func (o *Orchestrator) buildContext(req Request) *types.UserContext {
	occupation := req.Occupation
	areas := req.Areas
	interests := req.Interests

	if o.profiles != nil && req.UserID != "" {
		stored := o.profiles.Lookup(req.UserID)
		if occupation == "" {
			occupation = stored.Occupation
		}
		if len(areas) == 0 {
			areas = stored.Areas
		}
		if len(interests) == 0 {
			interests = stored.Interests
		}
	}

	return o.builder.Build(req.UserID, occupation, areas, interests)
}

// classifySide invokes one guarded classifier. The guard already maps every
// failure to the fallback result; a nil result here still becomes a fallback
// so the resolver always sees both sides.
func (o *Orchestrator) classifySide(ctx context.Context, c classifier.Classifier, text string, uctx *types.UserContext) *types.ClassificationResult {
	result, err := c.Classify(ctx, text, uctx)
	if err != nil || result == nil {
		log.Printf("[ORCHESTRATOR] %s side yielded no result (err=%v), substituting fallback", c.Source(), err)
		return classifier.FallbackResult(c.Source(), "classifier yielded no result")
	}
	return result
}

// snapshotMetadata tags the audit record with the request origin.
func (o *Orchestrator) snapshotMetadata(req Request) map[string]string {
	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.UserID != "" {
		metadata["user_id"] = req.UserID
	}
	return metadata
}

// responseReasoning picks the display reasoning: the winning side's own
// reasoning when it has one, the resolver's justification otherwise (the
// keyword side and fallback paths rarely say much worth showing).
func responseReasoning(outcome *types.ConflictOutcome, primary, secondary *types.ClassificationResult) string {
	winner := primary
	if outcome.WinnerSource == types.SourceSecondary {
		winner = secondary
	}
	if winner != nil && !winner.Fallback && winner.Reasoning != "" {
		return winner.Reasoning
	}
	return outcome.Reason
}
