// Package keyword provides Bleve-backed keyword search over transcript segments.
package keyword

import "context"

// SegmentDoc is the document shape indexed for each transcript segment.
type SegmentDoc struct {
	VideoID string  `json:"video_id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Result is a single keyword search hit: a time window in one video.
type Result struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Index defines keyword search operations over segments.
type Index interface {
	Index(ctx context.Context, segmentID string, doc *SegmentDoc) error
	Search(ctx context.Context, videoID, query string, limit int) ([]*Result, error)
	DeleteVideo(ctx context.Context, videoID string) error
	DocCount() (uint64, error)
	Close() error
}
