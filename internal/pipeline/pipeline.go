// Package pipeline orchestrates transcription, chunking, embedding, and
// search over stored videos.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Srinathreddy007/vidsearch/internal/chunker"
	"github.com/Srinathreddy007/vidsearch/internal/embedding"
	"github.com/Srinathreddy007/vidsearch/internal/keyword"
	"github.com/Srinathreddy007/vidsearch/internal/models"
	"github.com/Srinathreddy007/vidsearch/internal/storage"
	"github.com/Srinathreddy007/vidsearch/internal/vector"
)

var (
	// ErrVideoNotFound means the requested video does not exist.
	ErrVideoNotFound = errors.New("video not found")
	// ErrNoSpeech means transcription produced no usable words, so no
	// transcript was stored.
	ErrNoSpeech = errors.New("no speech recognized")
	// ErrNoTranscript means the video has not been transcribed yet.
	ErrNoTranscript = errors.New("video has no transcript")
	// ErrEmptyQuery means the search query was empty or whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")
)

// WordSource produces word-level timestamps for a media file. Implemented by
// asr.Adapter.
type WordSource interface {
	TranscribeWords(ctx context.Context, mediaPath, language string) ([]models.Word, error)
}

// Pipeline wires storage, transcription, chunking, embedding, and indexes
// into the operations the API exposes.
type Pipeline struct {
	store    storage.Storage
	words    WordSource
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	index    keyword.Index
	logger   *zap.Logger

	language    string
	defaultTopK int
	maxTopK     int

	// Serializes transcription per video so concurrent requests cannot
	// both pass the existence check and insert.
	videoMu sync.Map // video ID -> *sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithLanguage sets the transcription language hint ("" = auto-detect).
func WithLanguage(lang string) Option {
	return func(p *Pipeline) { p.language = lang }
}

// WithTopK sets the default and maximum top_k for search.
func WithTopK(def, max int) Option {
	return func(p *Pipeline) {
		if def > 0 {
			p.defaultTopK = def
		}
		if max > 0 {
			p.maxTopK = max
		}
	}
}

// New creates a Pipeline. The keyword index may be nil, in which case
// keyword search is unavailable.
func New(store storage.Storage, words WordSource, ch *chunker.Chunker, embedder embedding.Embedder, index keyword.Index, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		words:       words,
		chunker:     ch,
		embedder:    embedder,
		index:       index,
		logger:      zap.NewNop(),
		defaultTopK: 1,
		maxTopK:     10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) lockVideo(id string) func() {
	v, _ := p.videoMu.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Transcribe runs the full pipeline for one video: extract audio, recognize
// words, rechunk, embed, and persist. It is idempotent: a video whose
// transcript already has segments is reported as already transcribed without
// recomputation. A transcript left with zero segments by an earlier failure
// is discarded and recomputed.
func (p *Pipeline) Transcribe(ctx context.Context, videoID string) (*models.TranscribeResult, error) {
	video, err := p.store.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	unlock := p.lockVideo(videoID)
	defer unlock()

	if existing, err := p.store.GetTranscriptByVideo(ctx, videoID); err == nil {
		count, err := p.store.CountSegmentsByTranscript(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return &models.TranscribeResult{
				Transcript:         existing,
				SegmentCount:       int(count),
				AlreadyTranscribed: true,
			}, nil
		}
		p.logger.Warn("discarding empty transcript for recompute",
			zap.String("video_id", videoID),
			zap.String("transcript_id", existing.ID))
		if err := p.store.DeleteTranscriptByVideo(ctx, videoID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	words, err := p.words.TranscribeWords(ctx, video.FilePath, p.language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	chunks := p.chunker.Rechunk(words)
	if len(chunks) == 0 {
		p.logger.Warn("no speech recognized", zap.String("video_id", videoID))
		return nil, ErrNoSpeech
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	transcript := &models.Transcript{
		ID:       uuid.New().String(),
		VideoID:  videoID,
		Language: p.language,
	}
	segments := make([]*models.Segment, len(chunks))
	for i, c := range chunks {
		segments[i] = &models.Segment{
			ID:           uuid.New().String(),
			TranscriptID: transcript.ID,
			Seq:          i,
			Start:        c.Start,
			End:          c.End,
			Text:         c.Text,
			Embedding:    embeddings[i],
		}
	}

	if err := p.store.CreateTranscript(ctx, transcript); err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}
	if err := p.store.BatchCreateSegments(ctx, segments); err != nil {
		return nil, fmt.Errorf("failed to store segments: %w", err)
	}

	if p.index != nil {
		for _, seg := range segments {
			doc := &keyword.SegmentDoc{VideoID: videoID, Start: seg.Start, End: seg.End, Text: seg.Text}
			if err := p.index.Index(ctx, seg.ID, doc); err != nil {
				p.logger.Warn("failed to index segment for keyword search",
					zap.String("segment_id", seg.ID), zap.Error(err))
			}
		}
	}

	p.logger.Info("transcribed video",
		zap.String("video_id", videoID),
		zap.Int("segments", len(segments)))

	return &models.TranscribeResult{
		Transcript:   transcript,
		SegmentCount: len(segments),
	}, nil
}

// Search runs semantic search over one video's segments and returns the top
// k windows by cosine similarity. topK <= 0 means the configured default;
// out-of-range values are clamped.
func (p *Pipeline) Search(ctx context.Context, videoID, query string, topK int) (*models.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = p.defaultTopK
	}
	topK = vector.ClampTopK(topK, p.maxTopK)

	if _, err := p.store.GetVideo(ctx, videoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	transcript, err := p.store.GetTranscriptByVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoTranscript
		}
		return nil, err
	}
	segments, err := p.store.GetSegmentsByTranscript(ctx, transcript.ID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	start := time.Now()
	queryEmbedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := vector.Rank(queryEmbedding, segments, topK)
	if err != nil {
		return nil, err
	}

	return &models.SearchResponse{
		VideoID:   videoID,
		Query:     query,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// KeywordSearch runs exact-term search over one video's indexed segments.
func (p *Pipeline) KeywordSearch(ctx context.Context, videoID, query string, topK int) (*models.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if p.index == nil {
		return nil, fmt.Errorf("keyword index not configured")
	}
	if topK <= 0 {
		topK = p.defaultTopK
	}
	topK = vector.ClampTopK(topK, p.maxTopK)

	if _, err := p.store.GetVideo(ctx, videoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	start := time.Now()
	hits, err := p.index.Search(ctx, videoID, query, topK)
	if err != nil {
		return nil, err
	}
	results := make([]*models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &models.SearchResult{
			Start: h.Start,
			End:   h.End,
			Text:  h.Text,
			Score: h.Score,
			Rank:  i + 1,
		}
	}
	return &models.SearchResponse{
		VideoID:   videoID,
		Query:     query,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// DeleteVideo removes a video, its transcript and segments, and its keyword
// index entries.
func (p *Pipeline) DeleteVideo(ctx context.Context, videoID string) error {
	unlock := p.lockVideo(videoID)
	// Drop the lock entry so the per-video mutex map does not grow with
	// every id ever seen. A concurrent transcribe recreates it on demand.
	defer func() {
		unlock()
		p.videoMu.Delete(videoID)
	}()

	if err := p.store.DeleteVideo(ctx, videoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	if p.index != nil {
		if err := p.index.DeleteVideo(ctx, videoID); err != nil {
			p.logger.Warn("failed to remove keyword index entries",
				zap.String("video_id", videoID), zap.Error(err))
		}
	}
	return nil
}
