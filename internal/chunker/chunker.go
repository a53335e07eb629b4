// Package chunker merges word-level timestamps into coherent time windows.
package chunker

import (
	"strings"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

// Default window parameters, in seconds.
const (
	DefaultTargetWindowS = 5.0
	DefaultMaxWindowS    = 8.0
)

// Chunker merges an ordered word sequence into time-bounded text chunks.
// Windows grow greedily to targetWindowS and may stretch to maxWindowS
// before a new window is started. maxWindowS must be >= targetWindowS.
type Chunker struct {
	targetWindowS float64
	maxWindowS    float64
}

// New creates a chunker with the given window parameters (in seconds).
// Non-positive parameters fall back to the defaults.
func New(targetWindowS, maxWindowS float64) *Chunker {
	if targetWindowS <= 0 {
		targetWindowS = DefaultTargetWindowS
	}
	if maxWindowS <= 0 {
		maxWindowS = DefaultMaxWindowS
	}
	if maxWindowS < targetWindowS {
		maxWindowS = targetWindowS
	}
	return &Chunker{targetWindowS: targetWindowS, maxWindowS: maxWindowS}
}

// Rechunk merges words into chunks in a single left-to-right pass with no
// backtracking. A window is extended with the next word while its span is
// still under the target window, or while the extended span stays within the
// max window; otherwise it is closed and a new window starts at that word.
// The final window is always closed. Chunks whose joined text trims to empty
// are pruned. Words are consumed in input order; chunks are never re-sorted.
//
// A single word spanning more than the max window still yields one chunk
// containing it: words are never split or dropped.
func (c *Chunker) Rechunk(words []models.Word) []models.Chunk {
	if len(words) == 0 {
		return nil
	}

	var chunks []models.Chunk
	cur := accumulator{start: words[0].Start, end: words[0].End, texts: []string{words[0].Text}}

	for _, w := range words[1:] {
		candidateEnd := w.End
		if cur.end-cur.start < c.targetWindowS || candidateEnd-cur.start <= c.maxWindowS {
			cur.end = candidateEnd
			cur.texts = append(cur.texts, w.Text)
			continue
		}
		chunks = appendNonEmpty(chunks, cur.close())
		cur = accumulator{start: w.Start, end: w.End, texts: []string{w.Text}}
	}
	chunks = appendNonEmpty(chunks, cur.close())
	return chunks
}

type accumulator struct {
	start float64
	end   float64
	texts []string
}

func (a accumulator) close() models.Chunk {
	return models.Chunk{
		Start: a.start,
		End:   a.end,
		Text:  strings.TrimSpace(strings.Join(a.texts, " ")),
	}
}

func appendNonEmpty(chunks []models.Chunk, c models.Chunk) []models.Chunk {
	if c.Text == "" {
		return chunks
	}
	return append(chunks, c)
}
