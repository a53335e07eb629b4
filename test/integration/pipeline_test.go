// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Srinathreddy007/vidsearch/internal/chunker"
	"github.com/Srinathreddy007/vidsearch/internal/config"
	"github.com/Srinathreddy007/vidsearch/internal/embedding"
	"github.com/Srinathreddy007/vidsearch/internal/keyword"
	"github.com/Srinathreddy007/vidsearch/internal/models"
	"github.com/Srinathreddy007/vidsearch/internal/pipeline"
	"github.com/Srinathreddy007/vidsearch/internal/storage"
)

type scriptedWords struct {
	words []models.Word
}

func (s *scriptedWords) TranscribeWords(ctx context.Context, mediaPath, language string) ([]models.Word, error) {
	return s.words, nil
}

func TestIntegration_TranscribeAndSearch(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:   filepath.Join(dir, "db.sqlite"),
			BleveIndexPath: filepath.Join(dir, "bleve"),
		},
		Embedding: config.EmbeddingConfig{Dimensions: 16, MaxTokens: 32, CacheSize: 100},
		Search:    config.SearchConfig{TargetWindowS: 5.0, MaxWindowS: 8.0, DefaultTopK: 1, MaxTopK: 10},
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	embedder := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	defer embedder.Close()

	kwIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	words := &scriptedWords{words: []models.Word{
		{Start: 0.0, End: 0.8, Text: "machine"},
		{Start: 0.8, End: 1.5, Text: "learning"},
		{Start: 1.5, End: 2.4, Text: "models"},
		{Start: 2.4, End: 3.6, Text: "generalize"},
		{Start: 3.6, End: 5.2, Text: "from"},
		{Start: 5.2, End: 6.0, Text: "data"},
		{Start: 10.0, End: 10.9, Text: "gradient"},
		{Start: 10.9, End: 11.8, Text: "descent"},
		{Start: 11.8, End: 13.0, Text: "minimizes"},
		{Start: 13.0, End: 14.5, Text: "loss"},
	}}

	p := pipeline.New(store, words, chunker.New(cfg.Search.TargetWindowS, cfg.Search.MaxWindowS),
		embedder, kwIndex, pipeline.WithTopK(cfg.Search.DefaultTopK, cfg.Search.MaxTopK))
	ctx := context.Background()

	if err := store.CreateVideo(ctx, &models.Video{ID: "vid1", Title: "ML intro", FilePath: "/videos/ml.mp4", DurationSeconds: 15}); err != nil {
		t.Fatal(err)
	}

	result, err := p.Transcribe(ctx, "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if result.SegmentCount < 2 {
		t.Fatalf("expected multiple segments, got %d", result.SegmentCount)
	}

	// Every stored window respects the merge bounds.
	segments, err := store.GetSegmentsByTranscript(ctx, result.Transcript.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, seg := range segments {
		if seg.End-seg.Start > cfg.Search.MaxWindowS {
			t.Errorf("segment [%f, %f] exceeds max window", seg.Start, seg.End)
		}
	}

	resp, err := p.Search(ctx, "vid1", "gradient descent minimizes loss", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) < 1 {
		t.Fatal("expected at least 1 result")
	}

	kwResp, err := p.KeywordSearch(ctx, "vid1", "gradient", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(kwResp.Results) != 1 {
		t.Fatalf("expected 1 keyword hit, got %d", len(kwResp.Results))
	}
	if kwResp.Results[0].Start < 10.0 || kwResp.Results[0].End > 14.5 {
		t.Errorf("keyword window [%f, %f] outside the spoken range", kwResp.Results[0].Start, kwResp.Results[0].End)
	}
}
