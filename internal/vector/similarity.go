// Package vector provides the embedding index behind neighbor and analogy queries.
package vector

import "math"

// ZeroNormThreshold is the norm below which a vector is treated as having no direction.
const ZeroNormThreshold = 1e-10

// Dot returns the inner product of two vectors, or 0 when their lengths differ.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// L2Norm returns the Euclidean norm of a vector.
func L2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// CosineSimilarity computes both norms and returns the cosine similarity of a and b.
func CosineSimilarity(a, b []float64) float64 {
	return CosineSimilarityWithNorms(a, L2Norm(a), b, L2Norm(b))
}

// CosineSimilarityWithNorms returns dot(a, b) / (normA * normB) using caller-supplied norms.
// If either norm is below ZeroNormThreshold the result is exactly 0.
func CosineSimilarityWithNorms(a []float64, normA float64, b []float64, normB float64) float64 {
	if normA < ZeroNormThreshold || normB < ZeroNormThreshold {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}
