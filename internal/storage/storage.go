// Package storage persists query history and imported embedding tables.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hyperjump/tfexplorer/internal/vector"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("not found")

// History entry kinds.
const (
	KindNeighbors = "neighbors"
	KindVector    = "vector"
	KindAnalogy   = "analogy"
)

// HistoryEntry is one recorded explorer query and its result.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Query     json.RawMessage `json:"query"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines history and embedding persistence operations.
type Store interface {
	// History
	RecordQuery(ctx context.Context, kind string, query, result interface{}) (*HistoryEntry, error)
	ListHistory(ctx context.Context, limit int) ([]*HistoryEntry, error)
	GetHistory(ctx context.Context, id string) (*HistoryEntry, error)
	ClearHistory(ctx context.Context) (int64, error)

	// Embedding tables
	ImportEmbeddings(ctx context.Context, entries []vector.Entry) (int, error)
	LoadEmbeddings(ctx context.Context) ([]vector.Entry, error)
	CountEmbeddings(ctx context.Context) (int64, error)

	Close() error
}
