// Package integration exercises the storage, dataset and explorer packages together
// against a real SQLite database.
package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/vector"
)

const testdataDir = "../../internal/dataset/testdata"

func TestIntegration_ImportThenServeFromDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := dataset.LoadTable(filepath.Join(testdataDir, "embeddings_full.json"))
	if err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db", "tfexplorer.db"), storage.WithHistoryLimit(3))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	n, err := store.ImportEmbeddings(ctx, idx.Entries())
	if err != nil {
		t.Fatal(err)
	}
	if n != idx.Size() {
		t.Errorf("imported %d, want %d", n, idx.Size())
	}

	entries, err := store.LoadEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := vector.New(entries)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored.Words(), idx.Words()) {
		t.Errorf("stored vocabulary order = %v, want %v", restored.Words(), idx.Words())
	}

	holder := dataset.NewHolder(dir, dataset.DefaultFiles(), zap.NewNop())
	holder.Set(dataset.FromIndex(restored))
	engine := explorer.NewEngine(holder, zap.NewNop(), explorer.WithStore(store))
	defer engine.Close()

	resp, err := engine.Analogy(ctx, models.AnalogyQuery{A: "king", B: "man", C: "woman", TopN: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Word != "queen" {
		t.Errorf("analogy = %+v", resp.Results)
	}

	for _, w := range []string{"King", "queen", "zebra", "man"} {
		if _, err := engine.Neighbors(ctx, models.NeighborsQuery{Word: w, TopN: 2}); err != nil {
			t.Fatalf("neighbors %s: %v", w, err)
		}
	}

	history, err := store.ListHistory(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history len = %d, want 3 after pruning", len(history))
	}
	if history[0].Kind != storage.KindNeighbors {
		t.Errorf("newest entry kind = %s", history[0].Kind)
	}

	got, err := store.GetHistory(ctx, history[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != history[0].ID {
		t.Errorf("GetHistory id = %s", got.ID)
	}
	if resp.HistoryID != "" {
		if _, err := store.GetHistory(ctx, resp.HistoryID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("pruned analogy entry should be gone, got %v", err)
		}
	}
}

func TestIntegration_ImportWaitsForLock(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dbPath := filepath.Join(dir, "tfexplorer.db")

	idx, err := dataset.LoadTable(filepath.Join(testdataDir, "embeddings_full.json"))
	if err != nil {
		t.Fatal(err)
	}

	first, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := storage.NewSQLiteStorage(dbPath, storage.WithLockTimeout(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	errs := make(chan error, 2)
	for _, s := range []*storage.SQLiteStorage{first, second} {
		s := s
		go func() {
			_, err := s.ImportEmbeddings(ctx, idx.Entries())
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent import: %v", err)
		}
	}

	count, err := first.CountEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(idx.Size()) {
		t.Errorf("count = %d, want %d", count, idx.Size())
	}
	if _, err := os.Stat(dbPath + ".lock"); err != nil {
		t.Errorf("lock file: %v", err)
	}
}
