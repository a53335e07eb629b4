// Package main is the vidsearch CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Srinathreddy007/vidsearch/internal/asr"
	"github.com/Srinathreddy007/vidsearch/internal/chunker"
	"github.com/Srinathreddy007/vidsearch/internal/config"
	"github.com/Srinathreddy007/vidsearch/internal/embedding"
	"github.com/Srinathreddy007/vidsearch/internal/keyword"
	"github.com/Srinathreddy007/vidsearch/internal/media"
	"github.com/Srinathreddy007/vidsearch/internal/models"
	"github.com/Srinathreddy007/vidsearch/internal/pipeline"
	"github.com/Srinathreddy007/vidsearch/internal/server"
	"github.com/Srinathreddy007/vidsearch/internal/storage"
	"github.com/Srinathreddy007/vidsearch/internal/watcher"
	"github.com/Srinathreddy007/vidsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vidsearch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence so running from the project dir uses
// the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env carries OPENAI_API_KEY and friends in development; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "transcribe":
		runTranscribe()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("vidsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Ingest.Directories) > 0 {
		p := components.Pipeline
		store := components.Storage
		prober := components.Media
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			func(path string) {
				id, err := ingestDroppedFile(context.Background(), store, prober, cfg, path)
				if err != nil {
					logger.Warn("drop ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				if _, err := p.Transcribe(context.Background(), id); err != nil {
					logger.Warn("drop transcribe failed", zap.String("video_id", id), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Storage,
		components.Media,
		watchSvc,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// ingestDroppedFile registers a file from a drop directory as a video,
// applying the same duration gate as the upload endpoint.
func ingestDroppedFile(ctx context.Context, store storage.Storage, prober media.Extractor, cfg *config.Config, path string) (string, error) {
	duration := prober.ProbeDuration(ctx, path)
	if duration <= 0 {
		return "", fmt.Errorf("could not read duration of %s", path)
	}
	if duration > cfg.Media.MaxDurationS {
		return "", fmt.Errorf("%s exceeds maximum duration of %ds", path, cfg.Media.MaxDurationS)
	}
	video := &models.Video{
		ID:              uuid.New().String(),
		Title:           filepath.Base(path),
		FilePath:        path,
		DurationSeconds: duration,
	}
	if err := store.CreateVideo(ctx, video); err != nil {
		return "", err
	}
	return video.ID, nil
}

func runTranscribe() {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vidsearch transcribe [flags] <video-id>")
		os.Exit(1)
	}
	videoID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Pipeline.Transcribe(context.Background(), videoID)
	if err != nil {
		fmt.Printf("Transcription failed: %v\n", err)
		os.Exit(1)
	}
	if result.AlreadyTranscribed {
		fmt.Printf("Video %s already transcribed (%d segments)\n", videoID, result.SegmentCount)
		return
	}
	fmt.Printf("Transcribed video %s: %d segments\n", videoID, result.SegmentCount)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	videoID := fs.String("video", "", "video ID to search within")
	topK := fs.Int("top-k", 0, "number of results (default from config)")
	keywordMode := fs.Bool("keyword", false, "use exact keyword search instead of semantic search")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *videoID == "" || query == "" {
		fmt.Println("Usage: vidsearch search --video <video-id> [flags] <query>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	var resp *models.SearchResponse
	if *keywordMode {
		resp, err = components.Pipeline.KeywordSearch(ctx, *videoID, query, *topK)
	} else {
		resp, err = components.Pipeline.Search(ctx, *videoID, query, *topK)
	}
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}
	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("%2d. [%s - %s] (%.3f) %s\n",
			r.Rank, formatTimestamp(r.Start), formatTimestamp(r.End), r.Score, r.Text)
	}
}

func formatTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	min := int(d.Minutes())
	sec := d.Seconds() - float64(min)*60
	return fmt.Sprintf("%02d:%04.1f", min, sec)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(false)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	videos, err := store.CountVideos(ctx)
	if err != nil {
		fmt.Printf("Failed to count videos: %v\n", err)
		os.Exit(1)
	}
	segments, err := store.CountSegments(ctx)
	if err != nil {
		fmt.Printf("Failed to count segments: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{
			"videos":             videos,
			"segments":           segments,
			"database_path":      cfg.Storage.DatabasePath,
			"embedding_provider": cfg.Embedding.Provider,
		})
		return
	}
	fmt.Printf("Videos:    %d\n", videos)
	fmt.Printf("Segments:  %d\n", segments)
	fmt.Printf("Database:  %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("Embedder:  %s\n", cfg.Embedding.Provider)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	KeywordIndex keyword.Index
	Media        media.Extractor
	Pipeline     *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		// The ONNX backend needs cgo and a model file; degrade to the mock
		// embedder so the rest of the service stays usable in development.
		if cfg.Embedding.Provider == "onnx" {
			logger.Warn("failed to create ONNX embedder, falling back to mock", zap.Error(err))
			embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
			// Surface the degraded state in the status endpoint and CLI,
			// not just a startup log line.
			cfg.Embedding.Provider = "mock (fallback)"
		} else {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	whisper := asr.NewWhisperCpp(cfg.Whisper.BinPath, cfg.Whisper.ModelPath)
	asrOpts := []asr.AdapterOption{}
	if debug {
		asrOpts = append(asrOpts, asr.WithLogger(logger))
	}
	adapter := asr.NewAdapter(ffmpeg, whisper, asrOpts...)

	pipeOpts := []pipeline.Option{
		pipeline.WithLanguage(cfg.Whisper.Language),
		pipeline.WithTopK(cfg.Search.DefaultTopK, cfg.Search.MaxTopK),
	}
	if debug {
		pipeOpts = append(pipeOpts, pipeline.WithLogger(logger))
	}
	p := pipeline.New(store, adapter,
		chunker.New(cfg.Search.TargetWindowS, cfg.Search.MaxWindowS),
		embedder, keywordIndex, pipeOpts...)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		KeywordIndex: keywordIndex,
		Media:        ffmpeg,
		Pipeline:     p,
	}, nil
}

func printUsage() {
	fmt.Println(`vidsearch - Semantic search inside videos

Usage:
  vidsearch server [flags]                 Start the HTTP server
  vidsearch transcribe [flags] <video-id>  Transcribe a stored video
  vidsearch search [flags] <query>         Search within a video
  vidsearch status [flags]                 Show storage/index status
  vidsearch version                        Show version
  vidsearch help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/vidsearch/config.yaml)
  --debug            Enable debug logging

Transcribe Flags:
  --config string    Config file path

Search Flags:
  --config string    Config file path
  --video string     Video ID to search within (required)
  --top-k int        Number of results (default from config)
  --keyword          Use exact keyword search instead of semantic search
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Examples:
  vidsearch server
  vidsearch transcribe 4f7c0a8e-...
  vidsearch search --video 4f7c0a8e-... "gradient descent"
  vidsearch search --video 4f7c0a8e-... --keyword "bayes"
  vidsearch status --output json`)
}
