package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/db/vidsearch.db"
	}
	if cfg.Storage.VideoDir == "" {
		cfg.Storage.VideoDir = "./data/videos"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/indices/bleve"
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Media.MaxDurationS == 0 {
		cfg.Media.MaxDurationS = 180
	}
	if cfg.Whisper.BinPath == "" {
		cfg.Whisper.BinPath = "whisper-cli"
	}
	if cfg.Whisper.ModelPath == "" {
		cfg.Whisper.ModelPath = "./data/models/ggml-small.bin"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.APIModel == "" {
		cfg.Embedding.APIModel = "text-embedding-3-small"
	}
	if cfg.Search.TargetWindowS == 0 {
		cfg.Search.TargetWindowS = 5.0
	}
	if cfg.Search.MaxWindowS == 0 {
		cfg.Search.MaxWindowS = 8.0
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 1
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 10
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}
	}
}
