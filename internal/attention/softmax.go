// Package attention serves precomputed attention maps, recomputing them for
// non-default softmax temperatures.
package attention

import "math"

// Softmax returns exp(x - max) normalized to sum to 1. An empty input returns nil.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// WithTemperature applies softmax(row / temperature) to every row of scores.
func WithTemperature(scores [][]float64, temperature float64) [][]float64 {
	out := make([][]float64, len(scores))
	scaled := make([]float64, 0)
	for i, row := range scores {
		scaled = scaled[:0]
		for _, s := range row {
			scaled = append(scaled, s/temperature)
		}
		out[i] = Softmax(scaled)
	}
	return out
}
