package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WhisperCpp runs the whisper.cpp CLI and parses its JSON output.
type WhisperCpp struct {
	bin   string
	model string
}

// NewWhisperCpp creates an adapter for the whisper.cpp binary at binPath
// using the ggml model at modelPath.
func NewWhisperCpp(binPath, modelPath string) *WhisperCpp {
	return &WhisperCpp{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp on wavPath with JSON output and word-level
// timestamps. The JSON sidecar is written into a temporary directory that is
// removed before returning.
func (a *WhisperCpp) Transcribe(ctx context.Context, wavPath, language string) (RecognizedTranscript, error) {
	outDir, err := os.MkdirTemp("", "whisper-out-")
	if err != nil {
		return RecognizedTranscript{}, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outPrefix := filepath.Join(outDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-owts",
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return RecognizedTranscript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return RecognizedTranscript{}, fmt.Errorf("read whisper output: %w", err)
	}

	var tr RecognizedTranscript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return RecognizedTranscript{}, fmt.Errorf("parse whisper output: %w", err)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	return tr, nil
}
