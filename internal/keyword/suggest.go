package keyword

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	kwanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
)

const wordField = "word"

// Suggestion is a vocabulary word close to the input.
type Suggestion struct {
	Word     string  `json:"word"`
	Distance int     `json:"distance"`
	Score    float64 `json:"score"`
}

// Suggester finds vocabulary words near a query using an in-memory Bleve index.
type Suggester struct {
	index          bleve.Index
	fuzziness      int
	maxSuggestions int
	mu             sync.RWMutex
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithFuzziness sets the maximum edit distance for fuzzy matches. Bleve supports 1 or 2.
func WithFuzziness(d int) Option {
	return func(s *Suggester) {
		if d >= 1 && d <= 2 {
			s.fuzziness = d
		}
	}
}

// WithMaxSuggestions caps the number of suggestions when a caller asks for none.
func WithMaxSuggestions(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

type wordDoc struct {
	Word string `json:"word"`
}

// NewSuggester indexes words. Each word is a single keyword term so multi-part
// vocabulary entries stay intact.
func NewSuggester(words []string, opts ...Option) (*Suggester, error) {
	s := &Suggester{fuzziness: 2, maxSuggestions: 5}
	for _, opt := range opts {
		opt(s)
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	wordMapping := bleve.NewTextFieldMapping()
	wordMapping.Analyzer = kwanalyzer.Name
	docMapping.AddFieldMappingsAt(wordField, wordMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion index: %w", err)
	}
	batch := index.NewBatch()
	for _, w := range words {
		if err := batch.Index(w, wordDoc{Word: w}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index %q: %w", w, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build suggestion index: %w", err)
	}
	s.index = index
	return s, nil
}

// Size returns the number of indexed words.
func (s *Suggester) Size() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Suggest returns up to n words within the fuzziness of query or starting with it,
// closest first. The query itself is never suggested.
func (s *Suggester) Suggest(query string, n int) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if n <= 0 {
		n = s.maxSuggestions
	}
	if query == "" {
		return []Suggestion{}, nil
	}

	fq := bleve.NewFuzzyQuery(query)
	fq.SetFuzziness(s.fuzziness)
	fq.SetField(wordField)
	pq := bleve.NewPrefixQuery(query)
	pq.SetField(wordField)
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(fq, pq))
	req.Size = max(n*4, 20)

	s.mu.RLock()
	results, err := s.index.Search(req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %w", err)
	}

	out := make([]Suggestion, 0, len(results.Hits))
	for _, hit := range results.Hits {
		if hit.ID == query {
			continue
		}
		out = append(out, Suggestion{Word: hit.ID, Distance: EditDistance(query, hit.ID), Score: hit.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close releases the index.
func (s *Suggester) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
