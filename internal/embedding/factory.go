package embedding

import (
	"fmt"

	"github.com/Srinathreddy007/vidsearch/internal/config"
)

// NewFromConfig constructs the embedder selected by cfg.Provider:
// "onnx", "openai", or "mock".
func NewFromConfig(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "onnx":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.APIBaseURL, cfg.APIModel, cfg.Dimensions, cfg.CacheSize)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
