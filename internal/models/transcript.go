package models

// Word is a single word-level timestamped token produced by transcription.
// Words exist only within one pipeline run; they are never persisted.
// Start <= End, and a word sequence is non-decreasing in Start.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Chunk is a time-bounded text window merged from consecutive words.
// Start is the start of its first constituent word, End the end of its last,
// and Text the space-joined, trimmed concatenation of the word texts.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscribeResult describes the outcome of a transcription request.
type TranscribeResult struct {
	Transcript         *Transcript `json:"transcript"`
	SegmentCount       int         `json:"segment_count"`
	AlreadyTranscribed bool        `json:"already_transcribed"`
}
