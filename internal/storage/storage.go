// Package storage defines the persistence interface for videos, transcripts,
// and segments.
package storage

import (
	"context"
	"errors"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines video, transcript, and segment persistence operations.
type Storage interface {
	// Video operations
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	UpdateVideo(ctx context.Context, video *models.Video) error
	ListVideos(ctx context.Context, offset, limit int) ([]*models.Video, error)
	DeleteVideo(ctx context.Context, id string) error

	// Transcript operations
	CreateTranscript(ctx context.Context, transcript *models.Transcript) error
	GetTranscriptByVideo(ctx context.Context, videoID string) (*models.Transcript, error)
	DeleteTranscriptByVideo(ctx context.Context, videoID string) error

	// Segment operations
	BatchCreateSegments(ctx context.Context, segments []*models.Segment) error
	GetSegmentsByTranscript(ctx context.Context, transcriptID string) ([]*models.Segment, error)
	CountSegmentsByTranscript(ctx context.Context, transcriptID string) (int64, error)

	// Stats
	CountVideos(ctx context.Context) (int64, error)
	CountSegments(ctx context.Context) (int64, error)

	Close() error
}
