// Package extract turns document files into plain text for tokenization.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes bounds the size of a file accepted for extraction.
const DefaultMaxBytes = 8 << 20

var (
	// ErrUnsupported is returned for extensions with no extractor.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrTooLarge is returned when a file exceeds the configured size.
	ErrTooLarge = errors.New("file too large")
)

type extractFunc func([]byte) (string, error)

var extractors = map[string]extractFunc{
	".txt":  extractPlain,
	".md":   extractPlain,
	".text": extractPlain,
	"":      extractPlain,
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractXLSX,
}

// Extractor extracts plain text from document files.
type Extractor struct {
	maxBytes int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxBytes sets the largest accepted input.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// NewExtractor returns an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether files with extension ext (leading dot, any case) can be extracted.
func Supported(ext string) bool {
	_, ok := extractors[strings.ToLower(ext)]
	return ok
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if info.Size() > e.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), e.maxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content according to ext, e.g. ".pdf".
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	if int64(len(content)) > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(content), e.maxBytes)
	}
	fn, ok := extractors[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return fn(content)
}
