package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := map[string]*SegmentDoc{
		"seg-1": {VideoID: "vid-a", Start: 0, End: 6.5, Text: "welcome to the lecture on bayesian inference"},
		"seg-2": {VideoID: "vid-a", Start: 6.5, End: 12, Text: "gradient descent minimizes the loss"},
		"seg-3": {VideoID: "vid-b", Start: 0, End: 5, Text: "bayesian methods in another video"},
	}
	for id, doc := range docs {
		if err := idx.Index(ctx, id, doc); err != nil {
			t.Fatal(err)
		}
	}

	results, err := idx.Search(ctx, "vid-a", "bayesian", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Start != 0 || results[0].End != 6.5 {
		t.Errorf("window = [%f, %f]", results[0].Start, results[0].End)
	}
	if results[0].Score <= 0 {
		t.Errorf("score = %f", results[0].Score)
	}
}

// Results are scoped to the requested video even when other videos match.
func TestSearchScopedToVideo(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	idx.Index(ctx, "seg-1", &SegmentDoc{VideoID: "vid-a", Start: 0, End: 5, Text: "neural networks"})
	idx.Index(ctx, "seg-2", &SegmentDoc{VideoID: "vid-b", Start: 0, End: 5, Text: "neural networks"})

	results, err := idx.Search(ctx, "vid-b", "neural", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	idx.Index(ctx, "seg-1", &SegmentDoc{VideoID: "vid-a", Start: 0, End: 5, Text: "some speech"})

	results, err := idx.Search(ctx, "vid-a", "quantum", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestDeleteVideo(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	idx.Index(ctx, "seg-1", &SegmentDoc{VideoID: "vid-a", Start: 0, End: 5, Text: "first part"})
	idx.Index(ctx, "seg-2", &SegmentDoc{VideoID: "vid-a", Start: 5, End: 10, Text: "second part"})
	idx.Index(ctx, "seg-3", &SegmentDoc{VideoID: "vid-b", Start: 0, End: 5, Text: "other video part"})

	if err := idx.DeleteVideo(ctx, "vid-a"); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "vid-a", "part", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("vid-a still has %d indexed segments", len(results))
	}
	remaining, err := idx.Search(ctx, "vid-b", "part", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("vid-b lost its segments, got %d", len(remaining))
	}
}

func TestReopenExistingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()

	idx, err := NewBleveIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	idx.Index(ctx, "seg-1", &SegmentDoc{VideoID: "vid-a", Start: 0, End: 5, Text: "persisted speech"})
	idx.Close()

	reopened, err := NewBleveIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	count, err := reopened.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("doc count = %d after reopen", count)
	}
}
