// ABOUTME: Binary encoding for float32 vectors stored as BLOBs.
// ABOUTME: Vectors are packed as little-endian IEEE-754 values, four bytes each.
package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector packs a vector into a little-endian BLOB.
func EncodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeVector unpacks a BLOB produced by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
