// Package media shells out to ffmpeg and ffprobe for audio extraction and duration probing.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Extractor converts media files into waveforms the speech model accepts.
type Extractor interface {
	// ExtractAudio writes a temporary mono 16kHz 16-bit PCM WAV for the given
	// media file and returns its path. The caller owns the file and must
	// remove it on every exit path.
	ExtractAudio(ctx context.Context, mediaPath string) (string, error)
	// ProbeDuration returns the media duration in whole seconds, 0 on failure.
	ProbeDuration(ctx context.Context, mediaPath string) int
}

// FFmpeg runs the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
}

// NewFFmpeg creates an adapter. Empty paths fall back to binaries on PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ExtractAudio transcodes mediaPath into a temporary mono 16kHz PCM WAV file
// and returns its path. On transcode failure the temp file is removed and an
// error wrapping ffmpeg's output is returned; the failure is fatal for the
// run and must not be retried.
func (f *FFmpeg) ExtractAudio(ctx context.Context, mediaPath string) (string, error) {
	tmp, err := os.CreateTemp("", "vidsearch-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	wavPath := tmp.Name()
	_ = tmp.Close()

	cmd := exec.CommandContext(ctx, f.ffmpeg,
		"-y",
		"-i", mediaPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		wavPath,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(wavPath)
		return "", fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return wavPath, nil
}

// ProbeDuration returns the whole-second duration of mediaPath via ffprobe,
// or 0 when the file cannot be probed.
func (f *FFmpeg) ProbeDuration(ctx context.Context, mediaPath string) int {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0
	}
	return int(sec + 0.5)
}
