package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultHistoryLimit is how many history entries are kept when no limit is configured.
const DefaultHistoryLimit = 100

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db           *sqlx.DB
	path         string
	historyLimit int
	lockTimeout  time.Duration
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithHistoryLimit keeps at most n history entries; older ones are pruned on insert.
func WithHistoryLimit(n int) Option {
	return func(s *SQLiteStorage) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLockTimeout bounds how long ImportEmbeddings waits for the import lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *SQLiteStorage) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

type historyRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Query     string    `db:"query"`
	Result    string    `db:"result"`
	CreatedAt time.Time `db:"created_at"`
}

func (r historyRow) entry() *HistoryEntry {
	return &HistoryEntry{
		ID:        r.ID,
		Kind:      r.Kind,
		Query:     json.RawMessage(r.Query),
		Result:    json.RawMessage(r.Result),
		CreatedAt: r.CreatedAt,
	}
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStorage{db: db, path: dbPath, historyLimit: DefaultHistoryLimit, lockTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		query TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);

	CREATE TABLE IF NOT EXISTS embeddings (
		word TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		vector BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_position ON embeddings(position);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordQuery stores query and result as JSON under a new ID and prunes entries
// beyond the history limit.
func (s *SQLiteStorage) RecordQuery(ctx context.Context, kind string, query, result interface{}) (*HistoryEntry, error) {
	q, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	r, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	row := historyRow{
		ID:        uuid.New().String(),
		Kind:      kind,
		Query:     string(q),
		Result:    string(r),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO history (id, kind, query, result, created_at)
		 VALUES (:id, :kind, :query, :result, :created_at)`, row); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE rowid NOT IN (
			SELECT rowid FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, s.historyLimit); err != nil {
		return nil, fmt.Errorf("failed to prune history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.entry(), nil
}

// ListHistory returns up to limit entries, newest first. A non-positive limit
// uses the configured history limit.
func (s *SQLiteStorage) ListHistory(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, kind, query, result, created_at
		 FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, err
	}
	out := make([]*HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

// GetHistory returns a history entry by ID.
func (s *SQLiteStorage) GetHistory(ctx context.Context, id string) (*HistoryEntry, error) {
	var row historyRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, kind, query, result, created_at FROM history WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.entry(), nil
}

// ClearHistory removes every history entry and returns how many were deleted.
func (s *SQLiteStorage) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountEmbeddings returns the number of stored embedding rows.
func (s *SQLiteStorage) CountEmbeddings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM embeddings`)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
