package embedding

import "github.com/Srinathreddy007/vidsearch/internal/config"

func testEmbeddingConfig(provider string, dims int) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		Provider:   provider,
		Dimensions: dims,
		MaxTokens:  32,
		CacheSize:  8,
	}
}
