package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paraflow/paraflow/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id             TEXT PRIMARY KEY,
	created_at     TIMESTAMP NOT NULL,
	text_prefix    TEXT NOT NULL,
	primary_json   TEXT NOT NULL,
	secondary_json TEXT NOT NULL,
	outcome_json   TEXT NOT NULL,
	metadata_json  TEXT
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);
`

// SQLiteStore is the durable snapshot store.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the snapshot database at path.
// WAL mode keeps concurrent classification requests from blocking each
// other on append.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store. The primary-key constraint backs the
// no-duplicate-ids guarantee under concurrent creates.
func (s *SQLiteStore) Append(ctx context.Context, snap *types.Snapshot) error {
	primaryJSON, err := json.Marshal(snap.Primary)
	if err != nil {
		return fmt.Errorf("failed to encode primary result: %w", err)
	}
	secondaryJSON, err := json.Marshal(snap.Secondary)
	if err != nil {
		return fmt.Errorf("failed to encode secondary result: %w", err)
	}
	outcomeJSON, err := json.Marshal(snap.Outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	var metadataJSON []byte
	if len(snap.Metadata) > 0 {
		metadataJSON, err = json.Marshal(snap.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, text_prefix, primary_json, secondary_json, outcome_json, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.CreatedAt.UTC(), snap.TextPrefix,
		string(primaryJSON), string(secondaryJSON), string(outcomeJSON), nullable(metadataJSON))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, text_prefix, primary_json, secondary_json, outcome_json, metadata_json
		 FROM snapshots WHERE id = ?`, id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return snap, nil
}

// List implements Store. Most recent first; the id is the secondary sort
// key so that same-millisecond snapshots order deterministically.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*types.Snapshot, error) {
	query := `SELECT id, created_at, text_prefix, primary_json, secondary_json, outcome_json, metadata_json
		 FROM snapshots ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*types.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*types.Snapshot, error) {
	var (
		snap          types.Snapshot
		createdAt     time.Time
		primaryJSON   string
		secondaryJSON string
		outcomeJSON   string
		metadataJSON  sql.NullString
	)
	if err := row.Scan(&snap.ID, &createdAt, &snap.TextPrefix, &primaryJSON, &secondaryJSON, &outcomeJSON, &metadataJSON); err != nil {
		return nil, err
	}
	snap.CreatedAt = createdAt.UTC()

	if err := json.Unmarshal([]byte(primaryJSON), &snap.Primary); err != nil {
		return nil, fmt.Errorf("corrupt primary_json: %w", err)
	}
	if err := json.Unmarshal([]byte(secondaryJSON), &snap.Secondary); err != nil {
		return nil, fmt.Errorf("corrupt secondary_json: %w", err)
	}
	if err := json.Unmarshal([]byte(outcomeJSON), &snap.Outcome); err != nil {
		return nil, fmt.Errorf("corrupt outcome_json: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &snap.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata_json: %w", err)
		}
	}
	return &snap, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
