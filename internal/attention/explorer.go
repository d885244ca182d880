package attention

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/vector"
)

var (
	// ErrUnknownSentence is returned for a sentence ID that is not in the data.
	ErrUnknownSentence = errors.New("unknown sentence")
	// ErrOutOfRange is returned for a layer, head or token index outside the data.
	ErrOutOfRange = errors.New("index out of range")
	// ErrBadTemperature is returned for a temperature outside the allowed range.
	ErrBadTemperature = errors.New("temperature out of range")
	// ErrNoQKV is returned when query/key/value vectors were not exported for a layer.
	ErrNoQKV = errors.New("qkv vectors not available for layer")
	// ErrNoProjection is returned when no sentence projection exists for a layer.
	ErrNoProjection = errors.New("projection not available for layer")
)

const (
	// DefaultTemperatureEpsilon is how close to 1 a temperature must be to reuse stored weights.
	DefaultTemperatureEpsilon = 0.01
	neighborCount             = 10
	labelLimit                = 70
)

// Explorer answers attention queries over one loaded attention artifact.
type Explorer struct {
	data    *dataset.AttentionData
	epsilon float64
	minTemp float64
	maxTemp float64
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithTemperatureEpsilon sets how close to 1 a temperature must be to reuse stored weights.
func WithTemperatureEpsilon(eps float64) Option {
	return func(e *Explorer) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}

// WithTemperatureRange bounds the accepted temperatures.
func WithTemperatureRange(minT, maxT float64) Option {
	return func(e *Explorer) {
		if minT > 0 && maxT >= minT {
			e.minTemp, e.maxTemp = minT, maxT
		}
	}
}

// New returns an explorer over data.
func New(data *dataset.AttentionData, opts ...Option) *Explorer {
	e := &Explorer{
		data:    data,
		epsilon: DefaultTemperatureEpsilon,
		minTemp: 0.1,
		maxTemp: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SentenceSummary describes a sentence for selection lists.
type SentenceSummary struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Tokens int               `json:"tokens"`
	Best   dataset.LayerHead `json:"best"`
}

// Layers returns the number of encoder layers.
func (e *Explorer) Layers() int {
	return e.data.Metadata.NLayers
}

// Heads returns the number of heads per layer.
func (e *Explorer) Heads() int {
	return e.data.Metadata.NHeads
}

// Sentences lists sentences in file order.
func (e *Explorer) Sentences() []SentenceSummary {
	out := make([]SentenceSummary, 0, e.data.Sentences.Len())
	for _, id := range e.data.Sentences.Keys {
		s := e.data.Sentences.Values[id]
		out = append(out, SentenceSummary{
			ID:     id,
			Label:  Label(s.Text),
			Tokens: len(s.Tokens),
			Best:   e.BestDefault(id),
		})
	}
	return out
}

// Sentence returns the stored sentence.
func (e *Explorer) Sentence(id string) (*dataset.Sentence, error) {
	s, ok := e.data.Sentences.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSentence, id)
	}
	return &s, nil
}

// BestDefault returns the most illustrative layer and head for a sentence, or 0/0.
func (e *Explorer) BestDefault(id string) dataset.LayerHead {
	return e.data.BestDefaults[id]
}

// Heatmap is the attention matrix of one head.
type Heatmap struct {
	SentenceID  string      `json:"sentence_id"`
	Layer       int         `json:"layer"`
	Head        int         `json:"head"`
	Temperature float64     `json:"temperature"`
	Recomputed  bool        `json:"recomputed"`
	Tokens      []string    `json:"tokens"`
	Special     []bool      `json:"special"`
	Weights     [][]float64 `json:"weights"`
	Scores      [][]float64 `json:"scores"`
}

// Weights returns the attention weights of one head. Temperatures within epsilon of 1
// return the stored weights; others are recomputed from the raw query-key scores.
func (e *Explorer) Weights(id string, layer, head int, temperature float64) (*Heatmap, error) {
	s, err := e.Sentence(id)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(temperature) || temperature < e.minTemp || temperature > e.maxTemp {
		return nil, fmt.Errorf("%w: %g not in [%g, %g]", ErrBadTemperature, temperature, e.minTemp, e.maxTemp)
	}
	stored, err := pick(s.AttentionWeights, layer, head)
	if err != nil {
		return nil, err
	}
	scores, err := pick(s.QKScores, layer, head)
	if err != nil {
		return nil, err
	}
	hm := &Heatmap{
		SentenceID:  id,
		Layer:       layer,
		Head:        head,
		Temperature: temperature,
		Tokens:      s.Tokens,
		Special:     flags(s.SpecialTokenMask),
		Weights:     stored,
		Scores:      scores,
	}
	if math.Abs(temperature-1) >= e.epsilon {
		hm.Weights = WithTemperature(scores, temperature)
		hm.Recomputed = true
	}
	return hm, nil
}

func pick(m [][][][]float64, layer, head int) ([][]float64, error) {
	if layer < 0 || layer >= len(m) {
		return nil, fmt.Errorf("%w: layer %d", ErrOutOfRange, layer)
	}
	if head < 0 || head >= len(m[layer]) {
		return nil, fmt.Errorf("%w: head %d", ErrOutOfRange, head)
	}
	return m[layer][head], nil
}

func flags(mask []dataset.Flag) []bool {
	out := make([]bool, len(mask))
	for i, f := range mask {
		out[i] = bool(f)
	}
	return out
}

// TokenNeighbors holds the static and contextual neighbors of one token.
type TokenNeighbors struct {
	Index      int               `json:"index"`
	Token      string            `json:"token"`
	Layer      int               `json:"layer"`
	OfInterest bool              `json:"of_interest"`
	Static     []vector.Neighbor `json:"static"`
	Contextual []vector.Neighbor `json:"contextual"`
}

// Neighbors returns precomputed neighbors for token index at layer. Only tokens of
// interest carry neighbors; others return OfInterest false and empty lists.
func (e *Explorer) Neighbors(id string, index, layer int) (*TokenNeighbors, error) {
	s, err := e.Sentence(id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.Tokens) {
		return nil, fmt.Errorf("%w: token %d", ErrOutOfRange, index)
	}
	out := &TokenNeighbors{
		Index:      index,
		Token:      s.Tokens[index],
		Layer:      layer,
		Static:     []vector.Neighbor{},
		Contextual: []vector.Neighbor{},
	}
	for _, toi := range s.TokensOfInterest {
		if toi.Index != index {
			continue
		}
		out.OfInterest = true
		out.Static = head(toi.StaticNeighbors, neighborCount)
		out.Contextual = head(ContextualNeighbors(toi, layer), neighborCount)
		break
	}
	return out, nil
}

// ContextualNeighbors looks up neighbors for attention layer l. Hidden states are
// offset by one from attention layers, so key l+1 is tried before l.
func ContextualNeighbors(toi dataset.TokenOfInterest, layer int) []vector.Neighbor {
	if n, ok := toi.ContextualNeighbors[strconv.Itoa(layer+1)]; ok {
		return n
	}
	return toi.ContextualNeighbors[strconv.Itoa(layer)]
}

func head(ns []vector.Neighbor, n int) []vector.Neighbor {
	if ns == nil {
		return []vector.Neighbor{}
	}
	if len(ns) > n {
		return ns[:n]
	}
	return ns
}

// TokenVectors are the query, key and value vectors of one token in one head.
type TokenVectors struct {
	Layer int       `json:"layer"`
	Head  int       `json:"head"`
	Index int       `json:"index"`
	Token string    `json:"token"`
	Q     []float64 `json:"q"`
	K     []float64 `json:"k"`
	V     []float64 `json:"v"`
}

// QKV returns the query, key and value vectors for a token.
func (e *Explorer) QKV(id string, layer, headIdx, index int) (*TokenVectors, error) {
	s, err := e.Sentence(id)
	if err != nil {
		return nil, err
	}
	qkv, ok := s.QKV[strconv.Itoa(layer)]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoQKV, layer)
	}
	if headIdx < 0 || headIdx >= len(qkv.Q) || headIdx >= len(qkv.K) || headIdx >= len(qkv.V) {
		return nil, fmt.Errorf("%w: head %d", ErrOutOfRange, headIdx)
	}
	if index < 0 || index >= len(s.Tokens) || index >= len(qkv.Q[headIdx]) ||
		index >= len(qkv.K[headIdx]) || index >= len(qkv.V[headIdx]) {
		return nil, fmt.Errorf("%w: token %d", ErrOutOfRange, index)
	}
	return &TokenVectors{
		Layer: layer,
		Head:  headIdx,
		Index: index,
		Token: s.Tokens[index],
		Q:     qkv.Q[headIdx][index],
		K:     qkv.K[headIdx][index],
		V:     qkv.V[headIdx][index],
	}, nil
}

// QKVLayers returns the layers that carry query/key/value vectors.
func (e *Explorer) QKVLayers(id string) ([]int, error) {
	s, err := e.Sentence(id)
	if err != nil {
		return nil, err
	}
	var out []int
	for k := range s.QKV {
		if n, err := strconv.Atoi(k); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// ProjectedToken is one point of the per-layer sentence projection.
type ProjectedToken struct {
	Index      int     `json:"index"`
	Token      string  `json:"token"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	OfInterest bool    `json:"of_interest"`
}

// Projection returns 2D positions of non-special tokens at hidden-state layer.
// Layer 0 is the embedding output.
func (e *Explorer) Projection(id string, layer int) ([]ProjectedToken, error) {
	s, err := e.Sentence(id)
	if err != nil {
		return nil, err
	}
	positions, ok := s.SentenceProjections[strconv.Itoa(layer)]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoProjection, layer)
	}
	interest := make(map[int]bool, len(s.TokensOfInterest))
	for _, toi := range s.TokensOfInterest {
		interest[toi.Index] = true
	}
	out := make([]ProjectedToken, 0, len(s.Tokens))
	for i, tok := range s.Tokens {
		if i < len(s.SpecialTokenMask) && bool(s.SpecialTokenMask[i]) {
			continue
		}
		if i >= len(positions) {
			break
		}
		out = append(out, ProjectedToken{
			Index:      i,
			Token:      tok,
			X:          positions[i][0],
			Y:          positions[i][1],
			OfInterest: interest[i],
		})
	}
	return out, nil
}

// Label shortens sentence text for selection lists.
func Label(text string) string {
	r := []rune(text)
	if len(r) <= labelLimit {
		return text
	}
	return string(r[:labelLimit-3]) + "…"
}
