// Package tokenizer tokenizes text with an optional live tokenizer and falls back to
// curated, precomputed examples.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Tokenizer is a live tokenization capability. Callers that have none pass nil.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	VocabSize() int
}

// DefaultHashVocab is the vocabulary size of HashTokenizer when none is given.
const DefaultHashVocab = 30000

// HashTokenizer splits on whitespace and hashes each piece into a fixed vocabulary.
// Pieces after the first keep their leading space, as byte-pair tokenizers do.
type HashTokenizer struct {
	vocab int
	mu    sync.RWMutex
	seen  map[int]string
}

// NewHashTokenizer returns a hash tokenizer; vocab <= 0 selects DefaultHashVocab.
func NewHashTokenizer(vocab int) *HashTokenizer {
	if vocab <= 0 {
		vocab = DefaultHashVocab
	}
	return &HashTokenizer{vocab: vocab, seen: make(map[int]string)}
}

// VocabSize returns the size of the hashed vocabulary.
func (t *HashTokenizer) VocabSize() int {
	return t.vocab
}

// Encode returns one ID per piece.
func (t *HashTokenizer) Encode(text string) ([]int, error) {
	pieces := SplitPieces(text)
	ids := make([]int, len(pieces))
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range pieces {
		id := HashString(p) % t.vocab
		ids[i] = id
		if _, ok := t.seen[id]; !ok {
			t.seen[id] = p
		}
	}
	return ids, nil
}

// Decode maps IDs back to text. Only IDs produced by Encode can be decoded.
func (t *HashTokenizer) Decode(ids []int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	for _, id := range ids {
		p, ok := t.seen[id]
		if !ok {
			return "", fmt.Errorf("unknown token id %d", id)
		}
		b.WriteString(p)
	}
	return b.String(), nil
}

// SplitPieces splits text into words, attaching a single preceding space to every
// word but the first. Other whitespace is dropped.
func SplitPieces(text string) []string {
	var pieces []string
	var cur strings.Builder
	for _, r := range text {
		if unicode.IsSpace(r) {
			if cur.Len() > 0 {
				pieces = append(pieces, cur.String())
				cur.Reset()
			}
			continue
		}
		if cur.Len() == 0 && len(pieces) > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// HashString returns a deterministic non-negative hash.
func HashString(s string) int {
	var h uint32
	for _, c := range s {
		h = 31*h + uint32(c)
	}
	return int(h)
}
