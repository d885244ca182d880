// Package e2e provides end-to-end tests over a synthetic embedding table with known answers.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Pair is a country and its capital.
type Pair struct {
	Country string
	Capital string
}

// Pairs is the vocabulary of the synthetic corpus, in table order.
var Pairs = []Pair{
	{"france", "paris"},
	{"italy", "rome"},
	{"germany", "berlin"},
	{"spain", "madrid"},
	{"japan", "tokyo"},
	{"egypt", "cairo"},
	{"peru", "lima"},
	{"kenya", "nairobi"},
	{"canada", "ottawa"},
	{"norway", "oslo"},
}

// capitalWord sits on the shared "capital" axis only.
const capitalWord = "capital"

// capitalOffset is how far each capital sits from its country along the capital axis.
const capitalOffset = 0.5

// AnalogyCase is an analogy with exactly one correct answer.
type AnalogyCase struct {
	A, B, C string
	Want    string
}

// NeighborCase names the expected nearest neighbor of a word.
type NeighborCase struct {
	Word string
	Want string
}

// Corpus is an embedding table where country i is the unit vector e_i and capital i
// is e_i + 0.5*e_K. Every "capital - country + country'" analogy therefore lands
// exactly on capital' (similarity 1) and the nearest neighbor of a capital is its country.
type Corpus struct {
	Words      []string
	Vectors    map[string][]float64
	Analogies  []AnalogyCase
	Neighbors  []NeighborCase
	Dimensions int
}

// BuildCorpus returns the synthetic corpus and its test cases.
func BuildCorpus() *Corpus {
	k := len(Pairs)
	dims := k + 1
	c := &Corpus{Vectors: make(map[string][]float64), Dimensions: dims}
	add := func(word string, v []float64) {
		c.Words = append(c.Words, word)
		c.Vectors[word] = v
	}

	for i, p := range Pairs {
		country := make([]float64, dims)
		country[i] = 1
		capital := make([]float64, dims)
		capital[i] = 1
		capital[k] = capitalOffset
		add(p.Country, country)
		add(p.Capital, capital)
	}
	axis := make([]float64, dims)
	axis[k] = 1
	add(capitalWord, axis)

	for i, p := range Pairs {
		q := Pairs[(i+1)%k]
		c.Analogies = append(c.Analogies, AnalogyCase{A: q.Capital, B: q.Country, C: p.Country, Want: p.Capital})
		c.Neighbors = append(c.Neighbors, NeighborCase{Word: p.Capital, Want: p.Country})
	}
	return c
}

// MarshalTable encodes the corpus as an embeddings_full.json document with keys in
// table order.
func (c *Corpus) MarshalTable() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"vectors":{`)
	for i, w := range c.Words {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		vec, err := json.Marshal(c.Vectors[w])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vec)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// WriteTable writes the corpus to dir/name and returns the file path.
func (c *Corpus) WriteTable(dir, name string) (string, error) {
	data, err := c.MarshalTable()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
