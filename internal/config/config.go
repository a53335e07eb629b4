// Package config provides configuration loading and structs for the vidsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Media     MediaConfig     `yaml:"media"`
	Whisper   WhisperConfig   `yaml:"whisper"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, video files, and keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	VideoDir       string `yaml:"video_dir"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// MediaConfig holds ffmpeg/ffprobe settings and the upload duration gate.
type MediaConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	MaxDurationS int    `yaml:"max_duration_s"`
}

// WhisperConfig holds whisper.cpp settings.
type WhisperConfig struct {
	BinPath   string `yaml:"bin_path"`
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"` // empty = auto-detect
}

// EmbeddingConfig holds embedder settings. Provider selects the backend:
// "onnx" (local ONNX runtime), "openai" (OpenAI-compatible API), or "mock".
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	APIKey     string `yaml:"api_key"`
	APIBaseURL string `yaml:"api_base_url"`
	APIModel   string `yaml:"api_model"`
}

// SearchConfig holds windowing and ranking settings.
type SearchConfig struct {
	TargetWindowS float64 `yaml:"target_window_s"`
	MaxWindowS    float64 `yaml:"max_window_s"`
	DefaultTopK   int     `yaml:"default_top_k"`
	MaxTopK       int     `yaml:"max_top_k"`
}

// IngestConfig holds drop-directory watch settings. Empty directories disable the watcher.
type IngestConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed, or if the windowing
// settings are inconsistent.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if cfg.Search.MaxWindowS < cfg.Search.TargetWindowS {
		return nil, fmt.Errorf("search.max_window_s (%.1f) must be >= search.target_window_s (%.1f)",
			cfg.Search.MaxWindowS, cfg.Search.TargetWindowS)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VideoDir = expandPath(cfg.Storage.VideoDir, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Whisper.ModelPath = expandPath(cfg.Whisper.ModelPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
