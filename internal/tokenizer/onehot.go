package tokenizer

import (
	"errors"
	"fmt"

	"github.com/hyperjump/tfexplorer/internal/dataset"
)

// ErrNoOneHotDemo is returned when the tokenizer data carries no one-hot walkthrough.
var ErrNoOneHotDemo = errors.New("one-hot demo not available")

// Walkthrough actions.
const (
	ActionShowVector    = "show_vector"
	ActionDotProduct    = "compute_dot_product"
	ActionRevealProblem = "reveal_problem"
)

// OneHotVector places the single 1 of a word's one-hot vector.
type OneHotVector struct {
	Word      string  `json:"word"`
	Known     bool    `json:"known"`
	TokenID   int     `json:"token_id"`
	VocabSize int     `json:"vocab_size"`
	Position  float64 `json:"position"`
}

// DotProductResult is the stored dot product for a compute step.
type DotProductResult struct {
	WordA     string   `json:"word_a"`
	WordB     string   `json:"word_b"`
	Available bool     `json:"available"`
	Value     *float64 `json:"value,omitempty"`
}

// Step is one rendered step of the one-hot walkthrough.
type Step struct {
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Action     string            `json:"action"`
	Narration  string            `json:"narration"`
	HasPrev    bool              `json:"has_prev"`
	HasNext    bool              `json:"has_next"`
	Vectors    []OneHotVector    `json:"vectors"`
	DotProduct *DotProductResult `json:"dot_product,omitempty"`
}

// OneHotStep renders step n. Show steps display every word introduced so far;
// dot product steps display their two operands.
func (s *Service) OneHotStep(n int) (*Step, error) {
	if s.data == nil || s.data.OneHotDemo == nil {
		return nil, ErrNoOneHotDemo
	}
	demo := s.data.OneHotDemo
	seq := demo.AnimationSequence
	if n < 0 || n >= len(seq) {
		return nil, fmt.Errorf("%w: step %d of %d", ErrOutOfRange, n, len(seq))
	}
	cur := seq[n]
	step := &Step{
		Index:     n,
		Total:     len(seq),
		Action:    cur.Action,
		Narration: cur.Narration,
		HasPrev:   n > 0,
		HasNext:   n < len(seq)-1,
		Vectors:   []OneHotVector{},
	}
	switch cur.Action {
	case ActionShowVector:
		seen := make(map[string]bool)
		for _, st := range seq[:n+1] {
			if st.Action == ActionShowVector && !seen[st.Word] {
				seen[st.Word] = true
				step.Vectors = append(step.Vectors, oneHot(demo, st.Word))
			}
		}
	case ActionDotProduct:
		step.Vectors = append(step.Vectors, oneHot(demo, cur.WordA), oneHot(demo, cur.WordB))
		step.DotProduct = lookupDot(demo, cur.WordA, cur.WordB)
	}
	return step, nil
}

func oneHot(demo *dataset.OneHotDemo, word string) OneHotVector {
	v := OneHotVector{Word: word, VocabSize: demo.VocabSize}
	w, ok := demo.Words[word]
	if !ok {
		return v
	}
	v.Known = true
	v.TokenID = w.PrimaryTokenID
	if demo.VocabSize > 0 {
		v.Position = float64(w.PrimaryTokenID) / float64(demo.VocabSize)
	}
	return v
}

func lookupDot(demo *dataset.OneHotDemo, a, b string) *DotProductResult {
	res := &DotProductResult{WordA: a, WordB: b}
	for _, dp := range demo.DotProducts {
		if dp.WordA == a && dp.WordB == b {
			v := dp.DotProduct
			res.Value = &v
			res.Available = true
			break
		}
	}
	return res
}
