package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-2, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 5}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"near zero", []float64{1e-12, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_symmetricAndBounded(t *testing.T) {
	vecs := [][]float64{
		{0.3, -1.2, 4.5},
		{1e-3, 2, -7},
		{100, 100, 100},
		{-0.5, 0.25, 0},
	}
	for i, a := range vecs {
		for j, b := range vecs {
			ab := CosineSimilarity(a, b)
			ba := CosineSimilarity(b, a)
			if ab != ba {
				t.Errorf("pair %d,%d not symmetric: %v vs %v", i, j, ab, ba)
			}
			if ab < -1-1e-9 || ab > 1+1e-9 {
				t.Errorf("pair %d,%d out of range: %v", i, j, ab)
			}
		}
	}
}

func TestCosineSimilarityWithNorms_usesSuppliedNorms(t *testing.T) {
	a := []float64{3, 4}
	b := []float64{3, 4}
	if got := CosineSimilarityWithNorms(a, 5, b, 5); math.Abs(got-1) > 1e-12 {
		t.Errorf("got %v, want 1", got)
	}
	// A supplied norm below the threshold wins even when the data is non-zero.
	if got := CosineSimilarityWithNorms(a, 1e-11, b, 5); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float64{3, 4}); got != 5 {
		t.Errorf("L2Norm = %v, want 5", got)
	}
	if got := L2Norm(nil); got != 0 {
		t.Errorf("L2Norm(nil) = %v", got)
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	in := []float64{0, -1.5, math.Pi, 1e-300}
	out, err := DecodeVector(EncodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: got %v, want %v", i, out[i], in[i])
		}
	}
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
