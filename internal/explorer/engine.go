// Package explorer answers word-level embedding queries against the live dataset.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/attention"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/keyword"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/tokenizer"
	"github.com/hyperjump/tfexplorer/internal/vector"
)

// UnknownWordsError reports vocabulary misses together with close vocabulary words.
type UnknownWordsError struct {
	Missing     *vector.MissingWordsError
	Suggestions map[string][]keyword.Suggestion
}

func (e *UnknownWordsError) Error() string {
	return e.Missing.Error()
}

// Unwrap exposes the underlying *vector.MissingWordsError.
func (e *UnknownWordsError) Unwrap() error {
	return e.Missing
}

// Engine runs neighbor and analogy queries and records them in history.
type Engine struct {
	holder       *dataset.Holder
	store        storage.Store
	logger       *zap.Logger
	defaultTopN  int
	analogyTopN  int
	maxTopN      int
	suggestCount int
	suggestOpts  []keyword.Option
	live         tokenizer.Tokenizer
	attnOpts     []attention.Option

	mu        sync.RWMutex
	suggester *keyword.Suggester
	tokens    *tokenizer.Service
	attn      *attention.Explorer
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore records successful queries in store.
func WithStore(store storage.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithLimits sets the default neighbor and analogy result counts and the cap on top_n.
func WithLimits(neighbors, analogy, maxN int) Option {
	return func(e *Engine) {
		if neighbors > 0 {
			e.defaultTopN = neighbors
		}
		if analogy > 0 {
			e.analogyTopN = analogy
		}
		if maxN > 0 {
			e.maxTopN = maxN
		}
	}
}

// WithSuggestions sets how many suggestions accompany a miss and the fuzzy distance.
// A count of zero disables suggestions.
func WithSuggestions(count, fuzziness int) Option {
	return func(e *Engine) {
		e.suggestCount = count
		e.suggestOpts = []keyword.Option{keyword.WithFuzziness(fuzziness), keyword.WithMaxSuggestions(count)}
	}
}

// WithLiveTokenizer makes t the first choice for tokenization.
func WithLiveTokenizer(t tokenizer.Tokenizer) Option {
	return func(e *Engine) { e.live = t }
}

// WithAttentionOptions configures the attention explorer built for each dataset.
func WithAttentionOptions(opts ...attention.Option) Option {
	return func(e *Engine) { e.attnOpts = opts }
}

// NewEngine creates an engine over holder. The suggestion index, tokenizer service
// and attention explorer are rebuilt on every dataset swap.
func NewEngine(holder *dataset.Holder, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		holder:       holder,
		logger:       logger,
		defaultTopN:  vector.DefaultTopN,
		analogyTopN:  5,
		maxTopN:      100,
		suggestCount: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	holder.Subscribe(e.rebuild)
	return e
}

func (e *Engine) rebuild(ds *dataset.Dataset) {
	var next *keyword.Suggester
	if idx, err := ds.Embeddings(); err == nil && e.suggestCount > 0 {
		s, err := keyword.NewSuggester(idx.Words(), e.suggestOpts...)
		if err != nil {
			e.logger.Warn("suggestion index unavailable", zap.Error(err))
		} else {
			next = s
		}
	}
	var data *dataset.TokenizerData
	if ds != nil {
		data = ds.Tokenizer
	}
	tokens := tokenizer.NewService(data, e.live, e.logger)
	var attn *attention.Explorer
	if maps, err := ds.AttentionMaps(); err == nil {
		attn = attention.New(maps, e.attnOpts...)
	}

	e.mu.Lock()
	prev := e.suggester
	e.suggester = next
	e.tokens = tokens
	e.attn = attn
	e.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

// Tokenizer returns the tokenizer service for the live dataset.
func (e *Engine) Tokenizer() *tokenizer.Service {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tokens
}

// Attention returns the attention explorer for the live dataset.
func (e *Engine) Attention() (*attention.Explorer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.attn == nil {
		return nil, fmt.Errorf("attention: %w", dataset.ErrNotLoaded)
	}
	return e.attn, nil
}

// Projection returns the projected vocabulary of the live dataset.
func (e *Engine) Projection() (*dataset.Projection, error) {
	return e.holder.Current().Projected()
}

func (e *Engine) index() (*vector.Index, error) {
	return e.holder.Current().Embeddings()
}

// resolve maps user input to a vocabulary word: the trimmed input when present,
// otherwise its normalized form.
func resolve(idx *vector.Index, input string) string {
	trimmed := strings.TrimSpace(input)
	if idx.Has(trimmed) {
		return trimmed
	}
	return Normalize(trimmed)
}

// Suggest returns vocabulary words close to input.
func (e *Engine) Suggest(input string, n int) ([]keyword.Suggestion, error) {
	if _, err := e.index(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.suggester == nil {
		return []keyword.Suggestion{}, nil
	}
	if n <= 0 {
		n = e.suggestCount
	}
	return e.suggester.Suggest(Normalize(input), n)
}

func (e *Engine) unknown(err error) error {
	var missing *vector.MissingWordsError
	if !errors.As(err, &missing) {
		return err
	}
	out := &UnknownWordsError{Missing: missing, Suggestions: map[string][]keyword.Suggestion{}}
	for _, w := range missing.Words {
		s, serr := e.Suggest(w, 0)
		if serr != nil {
			e.logger.Debug("suggestion lookup failed", zap.String("word", w), zap.Error(serr))
			continue
		}
		out.Suggestions[w] = s
	}
	return out
}

// Neighbors returns the nearest vocabulary words to a known word, excluding it.
func (e *Engine) Neighbors(ctx context.Context, q models.NeighborsQuery) (*models.NeighborsResponse, error) {
	start := time.Now()
	if err := q.Validate(e.defaultTopN, e.maxTopN); err != nil {
		return nil, err
	}
	idx, err := e.index()
	if err != nil {
		return nil, err
	}
	q.Word = resolve(idx, q.Word)
	neighbors, err := idx.NeighborsOf(q.Word, q.TopN)
	if err != nil {
		return nil, e.unknown(err)
	}
	resp := &models.NeighborsResponse{
		Word:      q.Word,
		Neighbors: neighbors,
		QueryTime: time.Since(start).Milliseconds(),
	}
	resp.HistoryID = e.record(ctx, storage.KindNeighbors, q, neighbors)
	return resp, nil
}

// NeighborsOfVector returns the nearest vocabulary words to an arbitrary vector.
func (e *Engine) NeighborsOfVector(ctx context.Context, q models.VectorQuery) (*models.NeighborsResponse, error) {
	start := time.Now()
	if err := q.Validate(e.defaultTopN, e.maxTopN); err != nil {
		return nil, err
	}
	idx, err := e.index()
	if err != nil {
		return nil, err
	}
	exclude := make(map[string]bool, len(q.Exclude))
	for _, w := range q.Exclude {
		exclude[resolve(idx, w)] = true
	}
	neighbors, err := idx.FindNeighbors(q.Vector, q.TopN, exclude)
	if err != nil {
		return nil, err
	}
	resp := &models.NeighborsResponse{
		Neighbors: neighbors,
		QueryTime: time.Since(start).Milliseconds(),
	}
	resp.HistoryID = e.record(ctx, storage.KindVector, q, neighbors)
	return resp, nil
}

// Analogy answers "a is to b as c is to ?".
func (e *Engine) Analogy(ctx context.Context, q models.AnalogyQuery) (*models.AnalogyResponse, error) {
	start := time.Now()
	if err := q.Validate(e.analogyTopN, e.maxTopN); err != nil {
		return nil, err
	}
	idx, err := e.index()
	if err != nil {
		return nil, err
	}
	q.A, q.B, q.C = resolve(idx, q.A), resolve(idx, q.B), resolve(idx, q.C)
	results, err := idx.Analogy(q.A, q.B, q.C, q.TopN)
	if err != nil {
		return nil, e.unknown(err)
	}
	resp := &models.AnalogyResponse{
		A:         q.A,
		B:         q.B,
		C:         q.C,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	}
	resp.HistoryID = e.record(ctx, storage.KindAnalogy, q, results)
	return resp, nil
}

// record stores a query when a history store is configured. Failures are logged only.
func (e *Engine) record(ctx context.Context, kind string, query, result interface{}) string {
	if e.store == nil {
		return ""
	}
	entry, err := e.store.RecordQuery(ctx, kind, query, result)
	if err != nil {
		e.logger.Warn("failed to record history", zap.String("kind", kind), zap.Error(err))
		return ""
	}
	return entry.ID
}

// Status summarizes the live dataset.
type Status struct {
	Loaded     bool      `json:"loaded"`
	Dir        string    `json:"dir,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Words      int       `json:"words"`
	Dimensions int       `json:"dimensions"`
	Projection bool      `json:"projection"`
	Examples   int       `json:"tokenizer_examples"`
	Sentences  int       `json:"attention_sentences"`
	Live       bool      `json:"live_tokenizer"`
}

// Status reports what is currently loaded.
func (e *Engine) Status() Status {
	ds := e.holder.Current()
	if ds == nil {
		return Status{Live: e.live != nil}
	}
	st := Status{
		Live:       e.live != nil,
		Loaded:     true,
		Dir:        ds.Dir,
		LoadedAt:   ds.LoadedAt,
		Words:      ds.Words(),
		Projection: ds.Projection != nil,
		Examples:   ds.Examples(),
		Sentences:  ds.Sentences(),
	}
	if ds.Index != nil {
		st.Dimensions = ds.Index.Dimensions()
	}
	return st
}

// Close releases the suggestion index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.suggester == nil {
		return nil
	}
	err := e.suggester.Close()
	e.suggester = nil
	if err != nil {
		return fmt.Errorf("close suggester: %w", err)
	}
	return nil
}
