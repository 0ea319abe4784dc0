// Package snapshot records every classification decision as an immutable,
// append-only audit record. Snapshots are the only durable trace of a past
// decision; comparing two snapshots by id is how classification drift is
// detected over time.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/paraflow/paraflow/internal/types"
)

// ErrNotFound is returned when a snapshot id does not exist.
var ErrNotFound = errors.New("snapshot not found")

// DefaultTextPrefixLimit bounds the stored text prefix (in runes).
const DefaultTextPrefixLimit = 500

// Store is the persistence backend for snapshots. Append-only: no update
// or delete exists besides the bulk Clear used for test isolation and
// operator purges. Implementations must tolerate concurrent Appends.
type Store interface {
	// Append persists a new snapshot. The id must not already exist.
	Append(ctx context.Context, snap *types.Snapshot) error

	// Get returns the snapshot with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Snapshot, error)

	// List returns up to limit snapshots, most recent first.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*types.Snapshot, error)

	// Clear removes all snapshots.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Manager creates and serves snapshots over a Store.
// Safe for concurrent use when the underlying store is.
type Manager struct {
	store       Store
	prefixLimit int
}

// NewManager creates a snapshot manager over store.
func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Manager{store: store, prefixLimit: DefaultTextPrefixLimit}, nil
}

// Create records one classification cycle: the bounded input text, both raw
// classifier results, and the resolver's outcome. The returned snapshot
// carries a freshly generated collision-resistant id.
func (m *Manager) Create(ctx context.Context, text string, primary, secondary *types.ClassificationResult, outcome *types.ConflictOutcome, metadata map[string]string) (*types.Snapshot, error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("both classifier results are required")
	}
	if outcome == nil {
		return nil, fmt.Errorf("outcome is required")
	}

	snap := &types.Snapshot{
		ID:         newID(),
		CreatedAt:  now(),
		TextPrefix: truncateRunes(text, m.prefixLimit),
		Primary:    *primary,
		Secondary:  *secondary,
		Outcome:    *outcome,
		Metadata:   metadata,
	}

	if err := m.store.Append(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return snap, nil
}

// Get returns the snapshot with the given id, or ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*types.Snapshot, error) {
	return m.store.Get(ctx, id)
}

// List returns up to limit snapshots, most recent first.
func (m *Manager) List(ctx context.Context, limit int) ([]*types.Snapshot, error) {
	return m.store.List(ctx, limit)
}

// Clear removes all snapshots. Operator purge and test isolation only.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Diff is the structural difference between two snapshots' outcomes, used
// by the scheduled reclassification pass to decide whether a decision
// drifted.
type Diff struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`

	CategoryChanged bool           `json:"category_changed"`
	FromCategory    types.Category `json:"from_category"`
	ToCategory      types.Category `json:"to_category"`

	// ConfidenceDelta is to-confidence minus from-confidence.
	ConfidenceDelta float64 `json:"confidence_delta"`

	ConflictChanged bool `json:"conflict_changed"`
	ReviewChanged   bool `json:"review_changed"`

	// Drifted is true when any of the above changed.
	Drifted bool `json:"drifted"`
}

// Compare loads two snapshots and diffs their outcomes. Order matters:
// id1 is the baseline, id2 the newer decision.
func (m *Manager) Compare(ctx context.Context, id1, id2 string) (*Diff, error) {
	from, err := m.store.Get(ctx, id1)
	if err != nil {
		return nil, fmt.Errorf("baseline snapshot %s: %w", id1, err)
	}
	to, err := m.store.Get(ctx, id2)
	if err != nil {
		return nil, fmt.Errorf("comparison snapshot %s: %w", id2, err)
	}

	diff := &Diff{
		FromID:          from.ID,
		ToID:            to.ID,
		CategoryChanged: from.Outcome.FinalCategory != to.Outcome.FinalCategory,
		FromCategory:    from.Outcome.FinalCategory,
		ToCategory:      to.Outcome.FinalCategory,
		ConfidenceDelta: to.Outcome.Confidence - from.Outcome.Confidence,
		ConflictChanged: from.Outcome.ConflictDetected != to.Outcome.ConflictDetected,
		ReviewChanged:   from.Outcome.RequiresReview != to.Outcome.RequiresReview,
	}
	diff.Drifted = diff.CategoryChanged || diff.ConfidenceDelta != 0 || diff.ConflictChanged || diff.ReviewChanged
	return diff, nil
}

// truncateRunes bounds s to max runes without splitting a multi-byte
// character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
