// Package embedding produces unit-normalized text embeddings via ONNX,
// an OpenAI-compatible API, or a deterministic mock.
package embedding

import "context"

// Embedder produces vector embeddings for text. All implementations return
// unit L2-normalized vectors, so the dot product of two embeddings is their
// cosine similarity. EmbedBatch preserves input order and is all-or-nothing:
// any backend failure fails the whole batch.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
