package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_VideoCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	video := &models.Video{
		ID:              "vid1",
		Title:           "Lecture 1",
		Description:     "Intro",
		FilePath:        "/videos/lecture1.mp4",
		DurationSeconds: 120,
	}
	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}
	if video.UploadedAt.IsZero() {
		t.Error("UploadedAt should be set")
	}

	got, err := store.GetVideo(ctx, "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Lecture 1" || got.DurationSeconds != 120 {
		t.Errorf("got %+v", got)
	}

	list, err := store.ListVideos(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 video, got %d", len(list))
	}

	if err := store.DeleteVideo(ctx, "vid1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetVideo(ctx, "vid1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteVideo(ctx, "vid1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting missing video: %v", err)
	}
}

func TestSQLiteStorage_UpdateVideo(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	video := &models.Video{
		ID:              "vid1",
		Title:           "Draft title",
		Description:     "Draft",
		FilePath:        "/videos/lecture1.mp4",
		DurationSeconds: 120,
	}
	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}

	video.Title = "Final title"
	video.Description = "Reviewed"
	if err := store.UpdateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetVideo(ctx, "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Final title" || got.Description != "Reviewed" {
		t.Errorf("got %+v", got)
	}
	if got.FilePath != "/videos/lecture1.mp4" || got.DurationSeconds != 120 {
		t.Errorf("immutable fields changed: %+v", got)
	}

	if err := store.UpdateVideo(ctx, &models.Video{ID: "missing", Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("updating missing video: %v", err)
	}
}

func TestSQLiteStorage_TranscriptUniquePerVideo(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", FilePath: "/v1.mp4"})
	if err := store.CreateTranscript(ctx, &models.Transcript{ID: "t1", VideoID: "v1", Language: "en"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateTranscript(ctx, &models.Transcript{ID: "t2", VideoID: "v1"}); err == nil {
		t.Error("second transcript for the same video should be rejected")
	}

	got, err := store.GetTranscriptByVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "t1" || got.Language != "en" {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetTranscriptByVideo(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_SegmentsRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", FilePath: "/v1.mp4"})
	_ = store.CreateTranscript(ctx, &models.Transcript{ID: "t1", VideoID: "v1"})

	segments := []*models.Segment{
		{ID: "s1", TranscriptID: "t1", Seq: 0, Start: 0, End: 5.5, Text: "first chunk", Embedding: []float32{0.1, 0.2, 0.3}},
		{ID: "s2", TranscriptID: "t1", Seq: 1, Start: 5.5, End: 11, Text: "second chunk", Embedding: []float32{-0.4, 0.5, 0.6}},
	}
	if err := store.BatchCreateSegments(ctx, segments); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSegmentsByTranscript(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].Seq != 0 || got[1].Seq != 1 {
		t.Error("segments should be ordered by seq")
	}
	if got[0].Start != 0 || got[0].End != 5.5 || got[0].Text != "first chunk" {
		t.Errorf("got %+v", got[0])
	}
	if !reflect.DeepEqual(got[1].Embedding, []float32{-0.4, 0.5, 0.6}) {
		t.Errorf("embedding round trip: %v", got[1].Embedding)
	}

	count, err := store.CountSegmentsByTranscript(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d", count)
	}
}

func TestSQLiteStorage_DeleteVideoCascades(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", FilePath: "/v1.mp4"})
	_ = store.CreateTranscript(ctx, &models.Transcript{ID: "t1", VideoID: "v1"})
	_ = store.BatchCreateSegments(ctx, []*models.Segment{
		{ID: "s1", TranscriptID: "t1", Seq: 0, Start: 0, End: 1, Text: "x", Embedding: []float32{1}},
	})

	if err := store.DeleteVideo(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetTranscriptByVideo(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("transcript should cascade, got %v", err)
	}
	count, _ := store.CountSegments(ctx)
	if count != 0 {
		t.Errorf("segments should cascade, %d remain", count)
	}
}

func TestSQLiteStorage_DeleteTranscriptForRecompute(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", FilePath: "/v1.mp4"})
	_ = store.CreateTranscript(ctx, &models.Transcript{ID: "t1", VideoID: "v1"})

	if err := store.DeleteTranscriptByVideo(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	// A fresh transcript can now be created for the same video.
	if err := store.CreateTranscript(ctx, &models.Transcript{ID: "t2", VideoID: "v1"}); err != nil {
		t.Fatal(err)
	}
}

func TestEmbeddingCodec(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out := bytesToEmbedding(embeddingToBytes(in))
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip: %v != %v", in, out)
	}
	if got := bytesToEmbedding(nil); len(got) != 0 {
		t.Errorf("nil blob decoded to %v", got)
	}
}
