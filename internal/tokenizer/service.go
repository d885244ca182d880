package tokenizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperjump/tfexplorer/internal/dataset"
	"go.uber.org/zap"
)

var (
	// ErrNoTokenization is returned when neither the live tokenizer nor a curated
	// example can tokenize the text.
	ErrNoTokenization = errors.New("live tokenizer unavailable and no pre-computed match")
	// ErrEmptyText is returned for empty input.
	ErrEmptyText = errors.New("text is empty")
	// ErrUnknownCategory is returned for a category ID that is not in the data.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrOutOfRange is returned for an example or step index outside the data.
	ErrOutOfRange = errors.New("index out of range")
)

// Source tells where tokens came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceCurated Source = "curated"
)

const exampleLabelLimit = 60

// Stats summarizes a tokenization.
type Stats struct {
	Tokens        int     `json:"tokens"`
	Chars         int     `json:"chars"`
	CharsPerToken float64 `json:"chars_per_token"`
}

// ComputeStats counts tokens and runes. The ratio is 0 when either count is 0.
func ComputeStats(text string, tokens int) Stats {
	chars := len([]rune(text))
	st := Stats{Tokens: tokens, Chars: chars}
	if chars > 0 && tokens > 0 {
		st.CharsPerToken = float64(chars) / float64(tokens)
	}
	return st
}

// Result is the output of Tokenize.
type Result struct {
	Text       string                      `json:"text"`
	Source     Source                      `json:"source"`
	Tokens     []dataset.Token             `json:"tokens"`
	Stats      Stats                       `json:"stats"`
	Annotation string                      `json:"annotation,omitempty"`
	Comparison map[string]dataset.TokenSet `json:"comparison,omitempty"`
}

// Service combines an optional live tokenizer with curated examples.
type Service struct {
	live   Tokenizer
	data   *dataset.TokenizerData
	logger *zap.Logger
}

// NewService returns a service. live and data may each be nil. A vocabulary size
// mismatch between the live tokenizer and the curated data is logged.
func NewService(data *dataset.TokenizerData, live Tokenizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{live: live, data: data, logger: logger}
	if expected, got, mismatch := s.VocabMismatch(); mismatch {
		logger.Warn("tokenizer vocab mismatch",
			zap.Int("expected", expected),
			zap.Int("live", got))
	}
	return s
}

// HasLive reports whether a live tokenizer is configured.
func (s *Service) HasLive() bool {
	return s.live != nil
}

// VocabMismatch compares the curated data's primary vocabulary with the live tokenizer.
func (s *Service) VocabMismatch() (expected, live int, mismatch bool) {
	if s.live == nil || s.data == nil {
		return 0, 0, false
	}
	expected = s.data.Metadata.PrimaryTokenizer.VocabSize
	live = s.live.VocabSize()
	return expected, live, expected > 0 && live > 0 && expected != live
}

// Tokenize tries the live tokenizer first, then an exact curated match.
// Annotation and comparison tokenizations are attached whenever a curated example
// matches the text.
func (s *Service) Tokenize(text string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	match := s.match(text)
	var res *Result
	if tokens, ok := s.encodeLive(text); ok {
		res = &Result{Text: text, Source: SourceLive, Tokens: tokens}
	} else if match != nil {
		res = &Result{Text: text, Source: SourceCurated, Tokens: match.Primary.Tokens}
	} else {
		return nil, ErrNoTokenization
	}
	if match != nil {
		res.Annotation = match.Annotation
		res.Comparison = match.Comparison
	}
	res.Stats = ComputeStats(text, len(res.Tokens))
	return res, nil
}

func (s *Service) match(text string) *dataset.Example {
	if s.data == nil {
		return nil
	}
	for i := range s.data.Examples {
		if s.data.Examples[i].Text == text {
			return &s.data.Examples[i]
		}
	}
	return nil
}

// encodeLive returns false when there is no live tokenizer or it fails.
func (s *Service) encodeLive(text string) ([]dataset.Token, bool) {
	if s.live == nil {
		return nil, false
	}
	ids, err := s.live.Encode(text)
	if err != nil {
		s.logger.Error("live tokenization failed", zap.Error(err))
		return nil, false
	}
	tokens := make([]dataset.Token, len(ids))
	for i, id := range ids {
		decoded, err := s.live.Decode([]int{id})
		if err != nil {
			decoded = fmt.Sprintf("[%d]", id)
		}
		tokens[i] = dataset.Token{ID: id, Text: decoded}
	}
	return tokens, true
}

// CategorySummary describes a curated example category.
type CategorySummary struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	Order    int    `json:"order"`
	Examples int    `json:"examples"`
}

// Categories returns categories sorted by their order field.
func (s *Service) Categories() []CategorySummary {
	if s.data == nil {
		return []CategorySummary{}
	}
	counts := make(map[string]int)
	for _, ex := range s.data.Examples {
		counts[ex.Category]++
	}
	out := make([]CategorySummary, 0, s.data.Categories.Len())
	for _, id := range s.data.Categories.Keys {
		c := s.data.Categories.Values[id]
		out = append(out, CategorySummary{ID: id, Label: c.Label, Icon: c.Icon, Order: c.Order, Examples: counts[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ExampleSummary is one row of a category listing.
type ExampleSummary struct {
	Index      int    `json:"index"`
	Label      string `json:"label"`
	TokenCount int    `json:"token_count"`
}

// Examples lists the curated examples of a category. Index refers to the example's
// position in the whole example list.
func (s *Service) Examples(category string) ([]ExampleSummary, error) {
	if s.data == nil {
		return nil, fmt.Errorf("tokenizer examples: %w", dataset.ErrNotLoaded)
	}
	if _, ok := s.data.Categories.Get(category); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	out := make([]ExampleSummary, 0)
	for i, ex := range s.data.Examples {
		if ex.Category != category {
			continue
		}
		count := ex.Primary.TokenCount
		if count == 0 {
			count = len(ex.Primary.Tokens)
		}
		out = append(out, ExampleSummary{Index: i, Label: exampleLabel(ex.Text), TokenCount: count})
	}
	return out, nil
}

func exampleLabel(text string) string {
	if text == "" {
		return "(empty)"
	}
	r := []rune(text)
	if len(r) <= exampleLabelLimit {
		return text
	}
	return string(r[:exampleLabelLimit-3]) + "…"
}

// Example tokenizes curated example idx, preferring the live tokenizer.
func (s *Service) Example(idx int) (*Result, error) {
	if s.data == nil {
		return nil, fmt.Errorf("tokenizer examples: %w", dataset.ErrNotLoaded)
	}
	if idx < 0 || idx >= len(s.data.Examples) {
		return nil, fmt.Errorf("%w: example %d", ErrOutOfRange, idx)
	}
	ex := s.data.Examples[idx]
	res := &Result{
		Text:       ex.Text,
		Source:     SourceCurated,
		Tokens:     ex.Primary.Tokens,
		Annotation: ex.Annotation,
		Comparison: ex.Comparison,
	}
	if tokens, ok := s.encodeLive(ex.Text); ok {
		res.Source = SourceLive
		res.Tokens = tokens
	}
	res.Stats = ComputeStats(ex.Text, len(res.Tokens))
	return res, nil
}

// Opener returns the example flagged as the opener, if any.
func (s *Service) Opener() (*Result, bool) {
	if s.data == nil {
		return nil, false
	}
	for i, ex := range s.data.Examples {
		if ex.IsOpener {
			res, err := s.Example(i)
			return res, err == nil
		}
	}
	return nil, false
}
