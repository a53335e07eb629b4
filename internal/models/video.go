// Package models defines core data structures for videos, transcripts, and search results.
package models

import "time"

// Video represents an uploaded video file with metadata.
type Video struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description,omitempty" db:"description"`
	FilePath        string    `json:"-" db:"file_path"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	UploadedAt      time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Transcript represents the single transcription of a video.
// A video owns at most one transcript (enforced by storage).
type Transcript struct {
	ID        string    `json:"id" db:"id"`
	VideoID   string    `json:"video_id" db:"video_id"`
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Segment is a persisted time window of a transcript with its embedding.
// Segments are created once per successful transcription run and are
// immutable afterwards; they are removed only by cascading deletion of
// their transcript or video.
type Segment struct {
	ID           string    `json:"id" db:"id"`
	TranscriptID string    `json:"transcript_id" db:"transcript_id"`
	Seq          int       `json:"seq" db:"seq"`
	Start        float64   `json:"start" db:"start"`
	End          float64   `json:"end" db:"end"`
	Text         string    `json:"text" db:"text"`
	Embedding    []float32 `json:"-" db:"-"`
}
