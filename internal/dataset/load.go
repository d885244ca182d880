// Package dataset loads the precomputed explorer artifacts from disk.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/tfexplorer/internal/vector"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned when the artifact backing a feature is absent.
var ErrNotLoaded = errors.New("dataset artifact not loaded")

// Files names the four artifacts inside a data directory.
type Files struct {
	Full      string `yaml:"full"`
	Projected string `yaml:"projected"`
	Tokenizer string `yaml:"tokenizer"`
	Attention string `yaml:"attention"`
}

// DefaultFiles returns the standard artifact names.
func DefaultFiles() Files {
	return Files{
		Full:      "embeddings_full.json",
		Projected: "embeddings_projected.json",
		Tokenizer: "tokenizer_examples.json",
		Attention: "attention_data.json",
	}
}

// Names returns the configured file names, in load order.
func (f Files) Names() []string {
	return []string{f.Full, f.Projected, f.Tokenizer, f.Attention}
}

// Dataset is one immutable generation of loaded artifacts. Any field may be nil when
// its file was absent.
type Dataset struct {
	Dir        string
	LoadedAt   time.Time
	Index      *vector.Index
	Projection *Projection
	Tokenizer  *TokenizerData
	Attention  *AttentionData
}

// Load reads every artifact in dir. Missing files are skipped with a warning; a
// malformed file fails the whole load. At least one artifact must be present.
func Load(dir string, files Files, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ds := &Dataset{Dir: dir, LoadedAt: time.Now()}
	found := 0

	idx, err := LoadTable(filepath.Join(dir, files.Full))
	switch {
	case err == nil:
		found++
		ds.Index = idx
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("embedding table not found", zap.String("file", files.Full))
	default:
		return nil, err
	}

	var proj Projection
	ok, err := readJSON(filepath.Join(dir, files.Projected), &proj)
	if err != nil {
		return nil, err
	}
	if ok {
		found++
		ds.Projection = &proj
	} else {
		logger.Warn("projection not found", zap.String("file", files.Projected))
	}

	var tok TokenizerData
	if ok, err = readJSON(filepath.Join(dir, files.Tokenizer), &tok); err != nil {
		return nil, err
	}
	if ok {
		found++
		ds.Tokenizer = &tok
	} else {
		logger.Warn("tokenizer examples not found", zap.String("file", files.Tokenizer))
	}

	var att AttentionData
	if ok, err = readJSON(filepath.Join(dir, files.Attention), &att); err != nil {
		return nil, err
	}
	if ok {
		found++
		ds.Attention = &att
	} else {
		logger.Warn("attention data not found", zap.String("file", files.Attention))
	}

	if found == 0 {
		return nil, fmt.Errorf("no artifacts found in %s", dir)
	}
	logger.Info("dataset loaded",
		zap.String("dir", dir),
		zap.Int("words", ds.Words()),
		zap.Int("examples", ds.Examples()),
		zap.Int("sentences", ds.Sentences()),
	)
	return ds, nil
}

// LoadTable reads a single embedding table file. A missing file yields an error
// matching os.ErrNotExist.
func LoadTable(path string) (*vector.Index, error) {
	var full FullEmbeddings
	ok, err := readJSON(path, &full)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	idx, err := vector.New(full.Entries())
	if err != nil {
		return nil, fmt.Errorf("build index from %s: %w", filepath.Base(path), err)
	}
	return idx, nil
}

// FromIndex wraps an index built elsewhere, e.g. one loaded from the database.
func FromIndex(idx *vector.Index) *Dataset {
	return &Dataset{LoadedAt: time.Now(), Index: idx}
}

func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// Embeddings returns the vector index or ErrNotLoaded.
func (d *Dataset) Embeddings() (*vector.Index, error) {
	if d == nil || d.Index == nil {
		return nil, fmt.Errorf("embeddings: %w", ErrNotLoaded)
	}
	return d.Index, nil
}

// Projected returns the projection or ErrNotLoaded.
func (d *Dataset) Projected() (*Projection, error) {
	if d == nil || d.Projection == nil {
		return nil, fmt.Errorf("projection: %w", ErrNotLoaded)
	}
	return d.Projection, nil
}

// TokenizerExamples returns the tokenizer data or ErrNotLoaded.
func (d *Dataset) TokenizerExamples() (*TokenizerData, error) {
	if d == nil || d.Tokenizer == nil {
		return nil, fmt.Errorf("tokenizer examples: %w", ErrNotLoaded)
	}
	return d.Tokenizer, nil
}

// AttentionMaps returns the attention data or ErrNotLoaded.
func (d *Dataset) AttentionMaps() (*AttentionData, error) {
	if d == nil || d.Attention == nil {
		return nil, fmt.Errorf("attention: %w", ErrNotLoaded)
	}
	return d.Attention, nil
}

// Words returns the vocabulary size, or 0.
func (d *Dataset) Words() int {
	if d == nil || d.Index == nil {
		return 0
	}
	return d.Index.Size()
}

// Examples returns the number of curated tokenizer examples, or 0.
func (d *Dataset) Examples() int {
	if d == nil || d.Tokenizer == nil {
		return 0
	}
	return len(d.Tokenizer.Examples)
}

// Sentences returns the number of attention sentences, or 0.
func (d *Dataset) Sentences() int {
	if d == nil || d.Attention == nil {
		return 0
	}
	return d.Attention.Sentences.Len()
}
