// Package models defines the request and response shapes shared by the explorer surfaces.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned by Validate for malformed requests.
var ErrInvalidQuery = errors.New("invalid query")

// NeighborsQuery asks for the nearest neighbors of a vocabulary word.
type NeighborsQuery struct {
	Word string `json:"word"`
	TopN int    `json:"top_n,omitempty"`
}

// Validate requires a word and clamps TopN into [1, maxN], using defaultN when unset.
func (q *NeighborsQuery) Validate(defaultN, maxN int) error {
	if strings.TrimSpace(q.Word) == "" {
		return fmt.Errorf("%w: word cannot be empty", ErrInvalidQuery)
	}
	q.TopN = clampTopN(q.TopN, defaultN, maxN)
	return nil
}

// VectorQuery asks for the vocabulary words nearest to an arbitrary vector.
type VectorQuery struct {
	Vector  []float64 `json:"vector"`
	TopN    int       `json:"top_n,omitempty"`
	Exclude []string  `json:"exclude,omitempty"`
}

// Validate requires a non-empty vector and clamps TopN.
func (q *VectorQuery) Validate(defaultN, maxN int) error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("%w: vector cannot be empty", ErrInvalidQuery)
	}
	q.TopN = clampTopN(q.TopN, defaultN, maxN)
	return nil
}

// AnalogyQuery asks "A is to B as C is to ?", answered around A - B + C.
type AnalogyQuery struct {
	A    string `json:"a"`
	B    string `json:"b"`
	C    string `json:"c"`
	TopN int    `json:"top_n,omitempty"`
}

// Validate requires all three words and clamps TopN.
func (q *AnalogyQuery) Validate(defaultN, maxN int) error {
	var empty []string
	for _, f := range []struct{ name, value string }{{"a", q.A}, {"b", q.B}, {"c", q.C}} {
		if strings.TrimSpace(f.value) == "" {
			empty = append(empty, f.name)
		}
	}
	if len(empty) > 0 {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidQuery, strings.Join(empty, ", "))
	}
	q.TopN = clampTopN(q.TopN, defaultN, maxN)
	return nil
}

func clampTopN(n, defaultN, maxN int) int {
	if n <= 0 {
		n = defaultN
	}
	if maxN > 0 && n > maxN {
		n = maxN
	}
	if n <= 0 {
		n = 1
	}
	return n
}
