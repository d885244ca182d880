package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

const float64Size = 8

// EncodeVector serializes v as little-endian float64 values.
func EncodeVector(v []float64) []byte {
	out := make([]byte, len(v)*float64Size)
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[i*float64Size:(i+1)*float64Size], math.Float64bits(f))
	}
	return out
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float64, error) {
	if len(b)%float64Size != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of %d", len(b), float64Size)
	}
	out := make([]float64, len(b)/float64Size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*float64Size : (i+1)*float64Size]))
	}
	return out, nil
}
