package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	// Cascading deletes from videos to transcripts to segments rely on this.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT,
		description TEXT,
		file_path TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_videos_uploaded_at ON videos(uploaded_at);

	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL UNIQUE,
		language TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS segments (
		id TEXT PRIMARY KEY,
		transcript_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		start_s REAL NOT NULL,
		end_s REAL NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB,
		FOREIGN KEY (transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_segments_transcript_id ON segments(transcript_id);
	CREATE INDEX IF NOT EXISTS idx_segments_transcript_seq ON segments(transcript_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateVideo inserts a video.
func (s *SQLiteStorage) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.UploadedAt.IsZero() {
		video.UploadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, title, description, file_path, duration_seconds, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		video.ID, video.Title, video.Description, video.FilePath, video.DurationSeconds, video.UploadedAt,
	)
	return err
}

// GetVideo returns a video by ID.
func (s *SQLiteStorage) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, file_path, duration_seconds, uploaded_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&video.ID, &video.Title, &video.Description, &video.FilePath, &video.DurationSeconds, &video.UploadedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateVideo rewrites a video's mutable metadata (title, description).
// File path, duration, and upload time are fixed at ingest.
func (s *SQLiteStorage) UpdateVideo(ctx context.Context, video *models.Video) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE videos SET title = ?, description = ? WHERE id = ?`,
		video.Title, video.Description, video.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video %s: %w", video.ID, ErrNotFound)
	}
	return nil
}

// ListVideos returns videos with offset and limit, newest first.
func (s *SQLiteStorage) ListVideos(ctx context.Context, offset, limit int) ([]*models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, file_path, duration_seconds, uploaded_at
		 FROM videos ORDER BY uploaded_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.Title, &video.Description, &video.FilePath, &video.DurationSeconds, &video.UploadedAt); err != nil {
			return nil, err
		}
		videos = append(videos, &video)
	}
	return videos, rows.Err()
}

// DeleteVideo removes a video by ID. Its transcript and segments cascade.
func (s *SQLiteStorage) DeleteVideo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateTranscript inserts a transcript. The video_id UNIQUE constraint
// rejects a second transcript for the same video.
func (s *SQLiteStorage) CreateTranscript(ctx context.Context, transcript *models.Transcript) error {
	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, video_id, language, created_at)
		 VALUES (?, ?, ?, ?)`,
		transcript.ID, transcript.VideoID, transcript.Language, transcript.CreatedAt,
	)
	return err
}

// GetTranscriptByVideo returns the transcript for a video.
func (s *SQLiteStorage) GetTranscriptByVideo(ctx context.Context, videoID string) (*models.Transcript, error) {
	var transcript models.Transcript
	err := s.db.QueryRowContext(ctx,
		`SELECT id, video_id, language, created_at
		 FROM transcripts WHERE video_id = ?`, videoID,
	).Scan(&transcript.ID, &transcript.VideoID, &transcript.Language, &transcript.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transcript for video %s: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &transcript, nil
}

// DeleteTranscriptByVideo removes a video's transcript. Segments cascade.
func (s *SQLiteStorage) DeleteTranscriptByVideo(ctx context.Context, videoID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE video_id = ?`, videoID)
	return err
}

// BatchCreateSegments inserts segments in a single transaction.
func (s *SQLiteStorage) BatchCreateSegments(ctx context.Context, segments []*models.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (id, transcript_id, seq, start_s, end_s, text, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.TranscriptID, seg.Seq, seg.Start, seg.End, seg.Text, embeddingToBytes(seg.Embedding)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSegmentsByTranscript returns all segments for a transcript ordered by seq.
func (s *SQLiteStorage) GetSegmentsByTranscript(ctx context.Context, transcriptID string) ([]*models.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transcript_id, seq, start_s, end_s, text, embedding
		 FROM segments WHERE transcript_id = ? ORDER BY seq`,
		transcriptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*models.Segment
	for rows.Next() {
		var seg models.Segment
		var blob []byte
		if err := rows.Scan(&seg.ID, &seg.TranscriptID, &seg.Seq, &seg.Start, &seg.End, &seg.Text, &blob); err != nil {
			return nil, err
		}
		seg.Embedding = bytesToEmbedding(blob)
		segments = append(segments, &seg)
	}
	return segments, rows.Err()
}

// CountSegmentsByTranscript returns the number of segments for a transcript.
func (s *SQLiteStorage) CountSegmentsByTranscript(ctx context.Context, transcriptID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM segments WHERE transcript_id = ?`, transcriptID,
	).Scan(&count)
	return count, err
}

// CountVideos returns the total number of videos.
func (s *SQLiteStorage) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

// CountSegments returns the total number of segments.
func (s *SQLiteStorage) CountSegments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
