package vector

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTopN is used when a caller passes a non-positive result count.
const DefaultTopN = 10

// Entry is one word of an embedding table.
type Entry struct {
	Word   string
	Vector []float64
}

// Neighbor is a single similarity hit.
type Neighbor struct {
	Word       string  `json:"word"`
	Similarity float64 `json:"similarity"`
}

// Index holds a fixed vocabulary with precomputed norms. It is immutable after New
// and safe for concurrent use.
type Index struct {
	dimensions int
	words      []string
	vectors    map[string][]float64
	norms      map[string]float64
}

// New builds an index from entries. Entry order becomes the vocabulary order used to
// break similarity ties. Vectors are copied.
func New(entries []Entry) (*Index, error) {
	idx := &Index{
		words:   make([]string, 0, len(entries)),
		vectors: make(map[string][]float64, len(entries)),
		norms:   make(map[string]float64, len(entries)),
	}
	for i, e := range entries {
		if i == 0 {
			idx.dimensions = len(e.Vector)
		}
		if len(e.Vector) != idx.dimensions {
			return nil, fmt.Errorf("%w: %q has %d, expected %d", ErrDimensionMismatch, e.Word, len(e.Vector), idx.dimensions)
		}
		if _, ok := idx.vectors[e.Word]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateWord, e.Word)
		}
		vec := make([]float64, len(e.Vector))
		for j, v := range e.Vector {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %q at %d", ErrNonFinite, e.Word, j)
			}
			vec[j] = v
		}
		idx.words = append(idx.words, e.Word)
		idx.vectors[e.Word] = vec
		idx.norms[e.Word] = L2Norm(vec)
	}
	return idx, nil
}

// Dimensions returns the shared vector length (0 for an empty index).
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Size returns the number of words in the index.
func (x *Index) Size() int {
	return len(x.words)
}

// Has reports whether word is in the vocabulary.
func (x *Index) Has(word string) bool {
	_, ok := x.vectors[word]
	return ok
}

// Words returns the vocabulary in index order.
func (x *Index) Words() []string {
	return append([]string(nil), x.words...)
}

// Vector returns a copy of the vector stored for word.
func (x *Index) Vector(word string) ([]float64, bool) {
	v, ok := x.vectors[word]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Norm returns the precomputed norm for word.
func (x *Index) Norm(word string) (float64, bool) {
	n, ok := x.norms[word]
	return n, ok
}

// Entries returns the table in vocabulary order, suitable for persisting.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.words))
	for i, w := range x.words {
		out[i] = Entry{Word: w, Vector: append([]float64(nil), x.vectors[w]...)}
	}
	return out
}

// FindNeighbors scans the whole vocabulary except exclude and returns the topN words
// most similar to query. Ties keep vocabulary order.
func (x *Index) FindNeighbors(query []float64, topN int, exclude map[string]bool) ([]Neighbor, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(x.words) == 0 {
		return []Neighbor{}, nil
	}
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), x.dimensions)
	}
	qNorm := L2Norm(query)
	if math.IsNaN(qNorm) || math.IsInf(qNorm, 0) {
		return nil, fmt.Errorf("%w: query", ErrNonFinite)
	}
	scored := make([]Neighbor, 0, len(x.words))
	for _, w := range x.words {
		if exclude[w] {
			continue
		}
		sim := CosineSimilarityWithNorms(query, qNorm, x.vectors[w], x.norms[w])
		scored = append(scored, Neighbor{Word: w, Similarity: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if topN < len(scored) {
		scored = scored[:topN]
	}
	return scored, nil
}

// NeighborsOf returns the topN neighbors of a vocabulary word, excluding the word itself.
func (x *Index) NeighborsOf(word string, topN int) ([]Neighbor, error) {
	vec, ok := x.vectors[word]
	if !ok {
		return nil, &MissingWordsError{Words: []string{word}}
	}
	return x.FindNeighbors(vec, topN, map[string]bool{word: true})
}

// Analogy resolves "a is to b as c is to ?" by searching around a - b + c.
// Every absent operand is reported in a *MissingWordsError before any arithmetic.
func (x *Index) Analogy(a, b, c string, topN int) ([]Neighbor, error) {
	if missing := x.missing(a, b, c); len(missing) > 0 {
		return nil, &MissingWordsError{Words: missing}
	}
	va, vb, vc := x.vectors[a], x.vectors[b], x.vectors[c]
	result := make([]float64, x.dimensions)
	for i := range result {
		result[i] = va[i] - vb[i] + vc[i]
	}
	return x.FindNeighbors(result, topN, map[string]bool{a: true, b: true, c: true})
}

func (x *Index) missing(words ...string) []string {
	var out []string
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		if !x.Has(w) {
			out = append(out, w)
		}
	}
	return out
}
