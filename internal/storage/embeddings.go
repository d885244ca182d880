package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/hyperjump/tfexplorer/internal/vector"
)

type embeddingRow struct {
	Word     string `db:"word"`
	Position int    `db:"position"`
	Vector   []byte `db:"vector"`
}

// ImportEmbeddings replaces the stored embedding table with entries, keeping their
// order. The entries must form a valid index. Concurrent imports from other
// processes are serialized with a lock file next to the database.
func (s *SQLiteStorage) ImportEmbeddings(ctx context.Context, entries []vector.Entry) (int, error) {
	if _, err := vector.New(entries); err != nil {
		return 0, fmt.Errorf("invalid embeddings: %w", err)
	}

	unlock, err := s.acquireImportLock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return 0, err
	}
	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO embeddings (word, position, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Word, i, vector.EncodeVector(e.Vector)); err != nil {
			return 0, fmt.Errorf("failed to insert %q: %w", e.Word, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// LoadEmbeddings returns the stored entries in their imported order.
func (s *SQLiteStorage) LoadEmbeddings(ctx context.Context) ([]vector.Entry, error) {
	var rows []embeddingRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT word, position, vector FROM embeddings ORDER BY position`); err != nil {
		return nil, err
	}
	entries := make([]vector.Entry, 0, len(rows))
	for _, r := range rows {
		v, err := vector.DecodeVector(r.Vector)
		if err != nil {
			return nil, fmt.Errorf("corrupt vector for %q: %w", r.Word, err)
		}
		entries = append(entries, vector.Entry{Word: r.Word, Vector: v})
	}
	return entries, nil
}

// acquireImportLock polls the lock file until it is held, the timeout passes or
// ctx is cancelled. In-memory databases need no lock.
func (s *SQLiteStorage) acquireImportLock(ctx context.Context) (func(), error) {
	if s.path == "" || s.path == ":memory:" {
		return func() {}, nil
	}
	lockPath := s.path + ".lock"
	l := flock.New(lockPath)
	deadline := time.Now().Add(s.lockTimeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire import lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another import is in progress (lock: %s)", lockPath)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
