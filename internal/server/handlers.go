package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Srinathreddy007/vidsearch/internal/models"
	"github.com/Srinathreddy007/vidsearch/internal/pipeline"
	"github.com/Srinathreddy007/vidsearch/pkg/utils"
)

// Uploads are streamed to disk above this threshold.
const maxUploadMemory = 32 << 20

func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.allowedExtension(ext) {
		s.respondError(w, http.StatusBadRequest, "unsupported video format: "+ext)
		return
	}

	if err := os.MkdirAll(s.config.Storage.VideoDir, 0755); err != nil {
		s.logger.Error("failed to create video directory", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := uuid.New().String()
	destPath := filepath.Join(s.config.Storage.VideoDir, id+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		s.logger.Error("failed to create video file", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := io.Copy(dest, file); err != nil {
		dest.Close()
		_ = os.Remove(destPath)
		s.logger.Error("failed to write video file", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dest.Close()

	duration := s.prober.ProbeDuration(r.Context(), destPath)
	if duration <= 0 {
		_ = os.Remove(destPath)
		s.respondError(w, http.StatusBadRequest, "could not read video duration")
		return
	}
	if duration > s.config.Media.MaxDurationS {
		_ = os.Remove(destPath)
		s.respondError(w, http.StatusBadRequest,
			"video exceeds maximum duration of "+strconv.Itoa(s.config.Media.MaxDurationS)+" seconds")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	video := &models.Video{
		ID:              id,
		Title:           title,
		Description:     r.FormValue("description"),
		FilePath:        destPath,
		DurationSeconds: duration,
	}
	if err := s.storage.CreateVideo(r.Context(), video); err != nil {
		_ = os.Remove(destPath)
		s.logger.Error("failed to store video", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("video uploaded",
		zap.String("video_id", id), zap.Int("duration_s", duration))
	s.respondJSON(w, http.StatusCreated, video)
}

func (s *Server) allowedExtension(ext string) bool {
	for _, e := range s.config.Ingest.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	videos, err := s.storage.ListVideos(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list videos failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	video, err := s.storage.GetVideo(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	}
	s.respondJSON(w, http.StatusOK, video)
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// handleUpdateVideo serves both PUT (full metadata replace) and PATCH
// (partial). Only title and description are mutable.
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	video, err := s.storage.GetVideo(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if r.Method == http.MethodPut {
		if req.Title == nil || *req.Title == "" {
			s.respondError(w, http.StatusBadRequest, "title is required")
			return
		}
		video.Title = *req.Title
		video.Description = ""
		if req.Description != nil {
			video.Description = *req.Description
		}
	} else {
		if req.Title != nil {
			if *req.Title == "" {
				s.respondError(w, http.StatusBadRequest, "title cannot be empty")
				return
			}
			video.Title = *req.Title
		}
		if req.Description != nil {
			video.Description = *req.Description
		}
	}

	if err := s.storage.UpdateVideo(r.Context(), video); err != nil {
		s.logger.Error("update video failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, video)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	video, err := s.storage.GetVideo(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	}
	if err := s.pipeline.DeleteVideo(r.Context(), id); err != nil {
		s.logger.Error("delete video failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := os.Remove(video.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove video file",
			zap.String("path", video.FilePath), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("transcribe request", zap.String("video_id", id))
	result, err := s.pipeline.Transcribe(r.Context(), id)
	switch {
	case errors.Is(err, pipeline.ErrVideoNotFound):
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	case errors.Is(err, pipeline.ErrNoSpeech):
		s.respondError(w, http.StatusBadRequest, "no speech recognized in video")
		return
	case err != nil:
		s.logger.Error("transcription failed", zap.String("video_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if result.AlreadyTranscribed {
		status = http.StatusOK
	}
	s.respondJSON(w, status, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.pipeline.Search)
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.pipeline.KeywordSearch)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, search func(ctx context.Context, videoID, query string, topK int) (*models.SearchResponse, error)) {
	id := chi.URLParam(r, "id")
	query := r.URL.Query().Get("q")
	topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))

	s.logger.Debug("search request",
		zap.String("video_id", id), zap.String("query", utils.Truncate(query, 120)), zap.Int("top_k", topK))
	response, err := search(r.Context(), id, query, topK)
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	case errors.Is(err, pipeline.ErrVideoNotFound):
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	case errors.Is(err, pipeline.ErrNoTranscript):
		s.respondError(w, http.StatusBadRequest, "video has not been transcribed")
		return
	case err != nil:
		s.logger.Error("search failed", zap.String("video_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoCount, err := s.storage.CountVideos(ctx)
	if err != nil {
		s.logger.Error("status: count videos failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	segmentCount, err := s.storage.CountSegments(ctx)
	if err != nil {
		s.logger.Error("status: count segments failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"videos":   videoCount,
		"segments": segmentCount,
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"target_window_s":      s.config.Search.TargetWindowS,
			"max_window_s":         s.config.Search.MaxWindowS,
			"max_duration_s":       s.config.Media.MaxDurationS,
			"database_path":        s.config.Storage.DatabasePath,
		},
	}
	if s.watch != nil {
		resp["ingest_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
