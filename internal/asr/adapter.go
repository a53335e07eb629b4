package asr

import (
	"context"
	"os"

	"github.com/Srinathreddy007/vidsearch/internal/media"
	"github.com/Srinathreddy007/vidsearch/internal/models"
	"go.uber.org/zap"
)

// Adapter ties audio extraction and transcription into the word-sequence
// contract the pipeline consumes.
type Adapter struct {
	extractor   media.Extractor
	transcriber Transcriber
	logger      *zap.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets a logger for degraded-transcription warnings.
func WithLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an adapter over the given extractor and transcriber.
func NewAdapter(extractor media.Extractor, transcriber Transcriber, opts ...AdapterOption) *Adapter {
	a := &Adapter{extractor: extractor, transcriber: transcriber, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TranscribeWords extracts audio from mediaPath and transcribes it into a
// flat word sequence. Extraction failure is fatal and returned. Transcription
// failure is logged and degrades to an empty word sequence, indistinguishable
// from genuine silence at this boundary. The temporary waveform is removed
// under all outcomes.
func (a *Adapter) TranscribeWords(ctx context.Context, mediaPath, language string) ([]models.Word, error) {
	wavPath, err := a.extractor.ExtractAudio(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(wavPath); rmErr != nil && !os.IsNotExist(rmErr) {
			a.logger.Warn("failed to remove temp waveform", zap.String("path", wavPath), zap.Error(rmErr))
		}
	}()

	tr, err := a.transcriber.Transcribe(ctx, wavPath, language)
	if err != nil {
		a.logger.Warn("transcription degraded to empty word sequence", zap.Error(err))
		return nil, nil
	}
	return FlattenWords(tr), nil
}
