// Package asr adapts the speech-to-text collaborator and flattens its output
// into word-level timestamped tokens.
package asr

import (
	"context"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

// RecognizedWord is a word-level timestamped sub-entry of a recognized segment.
type RecognizedWord struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// RecognizedSegment is one recognized span of speech. Words may be empty when
// the model does not provide word-level timestamps for the segment.
type RecognizedSegment struct {
	Start float64          `json:"start"`
	End   float64          `json:"end"`
	Text  string           `json:"text"`
	Words []RecognizedWord `json:"words,omitempty"`
}

// RecognizedTranscript is the raw output of the speech collaborator.
type RecognizedTranscript struct {
	Segments []RecognizedSegment `json:"segments"`
}

// Transcriber produces a raw transcript from a mono 16kHz WAV file.
// language is an ISO code; empty means auto-detect.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, language string) (RecognizedTranscript, error)
}

// FlattenWords converts a recognized transcript into a flat, time-ordered word
// sequence. Segments carrying word-level timestamps contribute one Word per
// word; a segment without them contributes a single Word spanning the whole
// segment, so no recognized speech is dropped.
func FlattenWords(tr RecognizedTranscript) []models.Word {
	var words []models.Word
	for _, seg := range tr.Segments {
		if len(seg.Words) == 0 {
			if seg.Text != "" {
				words = append(words, models.Word{Start: seg.Start, End: seg.End, Text: seg.Text})
			}
			continue
		}
		for _, w := range seg.Words {
			words = append(words, models.Word{Start: w.Start, End: w.End, Text: w.Word})
		}
	}
	return words
}
