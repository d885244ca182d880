package vector

import (
	"errors"
	"strings"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNonFinite is returned when a vector contains NaN or an infinity.
	ErrNonFinite = errors.New("vector has non-finite component")
	// ErrDuplicateWord is returned when a word appears twice in an embedding table.
	ErrDuplicateWord = errors.New("duplicate word")
	// ErrWordNotFound matches any MissingWordsError via errors.Is.
	ErrWordNotFound = errors.New("word not in vocabulary")
)

// MissingWordsError names every requested word that is absent from the vocabulary.
type MissingWordsError struct {
	Words []string
}

func (e *MissingWordsError) Error() string {
	if len(e.Words) == 1 {
		return "word not in vocabulary: " + e.Words[0]
	}
	return "words not in vocabulary: " + strings.Join(e.Words, ", ")
}

// Unwrap lets errors.Is(err, ErrWordNotFound) succeed.
func (e *MissingWordsError) Unwrap() error {
	return ErrWordNotFound
}
