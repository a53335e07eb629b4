package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Srinathreddy007/vidsearch/internal/chunker"
	"github.com/Srinathreddy007/vidsearch/internal/embedding"
	"github.com/Srinathreddy007/vidsearch/internal/keyword"
	"github.com/Srinathreddy007/vidsearch/internal/models"
	"github.com/Srinathreddy007/vidsearch/internal/storage"
)

type fakeWordSource struct {
	words []models.Word
	err   error
	calls int
}

func (f *fakeWordSource) TranscribeWords(ctx context.Context, mediaPath, language string) ([]models.Word, error) {
	f.calls++
	return f.words, f.err
}

type failingEmbedder struct {
	embedding.Embedder
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding backend unavailable")
}

func newTestPipeline(t *testing.T, words *fakeWordSource) (*Pipeline, storage.Storage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	index, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { index.Close() })

	p := New(store, words, chunker.New(5.0, 8.0), embedding.NewMockEmbedder(32), index)
	return p, store
}

func addVideo(t *testing.T, store storage.Storage, id string) {
	t.Helper()
	if err := store.CreateVideo(context.Background(), &models.Video{ID: id, FilePath: "/videos/" + id + ".mp4"}); err != nil {
		t.Fatal(err)
	}
}

func speechWords() []models.Word {
	return []models.Word{
		{Start: 0, End: 2, Text: "hello"},
		{Start: 2, End: 4, Text: "world"},
		{Start: 4, End: 7, Text: "there"},
		{Start: 9, End: 11, Text: "next"},
		{Start: 11, End: 14, Text: "topic"},
	}
}

func TestTranscribeStoresSegments(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")

	result, err := p.Transcribe(context.Background(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	if result.AlreadyTranscribed {
		t.Error("first run should not report already transcribed")
	}
	if result.SegmentCount == 0 {
		t.Fatal("expected segments")
	}

	segments, err := store.GetSegmentsByTranscript(context.Background(), result.Transcript.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != result.SegmentCount {
		t.Errorf("stored %d segments, reported %d", len(segments), result.SegmentCount)
	}
	for i, seg := range segments {
		if seg.Seq != i {
			t.Errorf("segment %d has seq %d", i, seg.Seq)
		}
		if len(seg.Embedding) != 32 {
			t.Errorf("segment %d embedding dims = %d", i, len(seg.Embedding))
		}
	}
}

func TestTranscribeIdempotent(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	first, err := p.Transcribe(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Transcribe(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if !second.AlreadyTranscribed {
		t.Error("second run should report already transcribed")
	}
	if second.Transcript.ID != first.Transcript.ID {
		t.Error("second run should return the existing transcript")
	}
	if source.calls != 1 {
		t.Errorf("transcription ran %d times, want 1", source.calls)
	}
}

// A transcript row with zero segments is a partial failure artifact; the next
// request recomputes instead of reporting already transcribed.
func TestTranscribeRecomputesEmptyTranscript(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, &models.Transcript{ID: "stale", VideoID: "v1"}); err != nil {
		t.Fatal(err)
	}

	result, err := p.Transcribe(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if result.AlreadyTranscribed {
		t.Error("empty transcript should be recomputed, not reported as done")
	}
	if result.Transcript.ID == "stale" {
		t.Error("stale transcript should have been replaced")
	}
	if result.SegmentCount == 0 {
		t.Error("recompute should produce segments")
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	source := &fakeWordSource{words: nil}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	_, err := p.Transcribe(ctx, "v1")
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	// No transcript row is left behind, so a later attempt retries fully.
	if _, err := store.GetTranscriptByVideo(ctx, "v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("no transcript should be stored, got %v", err)
	}
	if _, err := p.Search(ctx, "v1", "anything", 1); !errors.Is(err, ErrNoTranscript) {
		t.Errorf("search should report ErrNoTranscript, got %v", err)
	}
}

func TestTranscribeEmbeddingFailureIsFatal(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	p.embedder = &failingEmbedder{}
	addVideo(t, store, "v1")
	ctx := context.Background()

	if _, err := p.Transcribe(ctx, "v1"); err == nil {
		t.Fatal("embedding failure should fail the request")
	}
	if _, err := store.GetTranscriptByVideo(ctx, "v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed run should not leave a transcript, got %v", err)
	}
}

func TestTranscribeVideoNotFound(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeWordSource{})
	if _, err := p.Transcribe(context.Background(), "missing"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestSearchReturnsRankedWindows(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	if _, err := p.Transcribe(ctx, "v1"); err != nil {
		t.Fatal(err)
	}

	resp, err := p.Search(ctx, "v1", "hello world there", 5)
	if err != nil {
		t.Fatal(err)
	}
	if resp.VideoID != "v1" || resp.Query != "hello world there" {
		t.Errorf("response metadata: %+v", resp)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Error("results not ordered by descending score")
		}
	}
	if resp.Results[0].Rank != 1 {
		t.Errorf("first rank = %d", resp.Results[0].Rank)
	}
}

func TestSearchTopKClamped(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	if _, err := p.Transcribe(ctx, "v1"); err != nil {
		t.Fatal(err)
	}

	// Requests beyond the segment count return everything, ranked.
	resp, err := p.Search(ctx, "v1", "topic", 100)
	if err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountSegments(ctx)
	if int64(len(resp.Results)) != count {
		t.Errorf("got %d results for %d segments", len(resp.Results), count)
	}

	// Zero falls back to the default of one result.
	resp, err = p.Search(ctx, "v1", "topic", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("default top_k should return 1 result, got %d", len(resp.Results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	p, store := newTestPipeline(t, &fakeWordSource{})
	addVideo(t, store, "v1")
	if _, err := p.Search(context.Background(), "v1", "   ", 1); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchVideoNotFound(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeWordSource{})
	if _, err := p.Search(context.Background(), "missing", "query", 1); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestKeywordSearch(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	if _, err := p.Transcribe(ctx, "v1"); err != nil {
		t.Fatal(err)
	}

	resp, err := p.KeywordSearch(ctx, "v1", "topic", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected keyword hits for a transcribed word")
	}
	found := false
	for _, r := range resp.Results {
		if r.Start >= 9 && r.End <= 14 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a window within [9, 14], got %+v", resp.Results[0])
	}
}

func TestDeleteVideoRemovesEverything(t *testing.T) {
	source := &fakeWordSource{words: speechWords()}
	p, store := newTestPipeline(t, source)
	addVideo(t, store, "v1")
	ctx := context.Background()

	if _, err := p.Transcribe(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteVideo(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetVideo(ctx, "v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("video should be gone, got %v", err)
	}
	if err := p.DeleteVideo(ctx, "v1"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if _, ok := p.videoMu.Load("v1"); ok {
		t.Error("per-video lock entry should be released on delete")
	}
}
