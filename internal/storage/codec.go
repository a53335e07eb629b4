package storage

import (
	"encoding/binary"
	"math"
)

// embeddingToBytes encodes a float32 vector as little-endian bytes for the
// segments.embedding BLOB column.
func embeddingToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

// bytesToEmbedding decodes a little-endian BLOB back into a float32 vector.
// Trailing bytes that do not fill a float32 are ignored.
func bytesToEmbedding(b []byte) []float32 {
	const size = 4
	n := len(b) / size
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
