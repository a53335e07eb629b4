// Package vector provides similarity helpers and top-k ranking for
// normalized embeddings.
package vector

import "math"

// normEpsilon guards the defensive re-normalization against zero vectors.
const normEpsilon = 1e-12

// InnerProduct returns the inner product of two vectors (for normalized
// vectors this equals cosine similarity). Mismatched or empty vectors score 0.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// L2Norm returns the Euclidean norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// Renormalize returns a copy of v scaled to unit L2 norm. Stored embeddings
// are re-normalized at query time instead of trusting persisted normalization,
// guarding against drift or corrupted records. The epsilon keeps the division
// defined for zero vectors.
func Renormalize(v []float32) []float32 {
	norm := L2Norm(v) + normEpsilon
	out := make([]float32, len(v))
	inv := float32(1.0 / norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
