package features

import (
	"github.com/himanishpuri/FolkDNA/internal/audio"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

// Transcriber runs spectrogram, pitch detection and decoding incrementally
// over a streamed signal.
type Transcriber struct {
	extractor *Extractor
	decoder   Decoder
	tokens    model.Transcription
	contour   []PitchEstimate
	keep      bool
}

// NewTranscriber returns a transcriber for a signal at the given sample rate.
func NewTranscriber(sampleRate int) (*Transcriber, error) {
	if err := audio.ValidateSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return &Transcriber{
		extractor: NewExtractor(sampleRate),
		tokens:    model.Transcription{},
	}, nil
}

// KeepContour makes the transcriber retain every pitch estimate for Contour.
func (t *Transcriber) KeepContour() { t.keep = true }

// Feed pushes the next chunk of normalized samples through the pipeline.
func (t *Transcriber) Feed(chunk []float64) error {
	frames, err := t.extractor.Feed(chunk)
	if err != nil {
		return err
	}
	for _, f := range frames {
		p := DetectPitch(f, t.extractor.SampleRate())
		if t.keep {
			t.contour = append(t.contour, p)
		}
		if tok, ok := t.decoder.Push(p); ok {
			t.tokens = append(t.tokens, tok)
		}
	}
	return nil
}

// Finish closes the last token and returns the transcription. Samples that
// never filled a whole window are discarded.
func (t *Transcriber) Finish() model.Transcription {
	if tok, ok := t.decoder.Flush(); ok {
		t.tokens = append(t.tokens, tok)
	}
	logger.WithFields(logger.Fields{
		"frames": t.extractor.Frames(),
		"tokens": len(t.tokens),
		"notes":  t.tokens.Notes(),
	}).Debug("transcription finished")
	return t.tokens
}

// Contour returns the pitch estimates seen so far when KeepContour is set.
func (t *Transcriber) Contour() []PitchEstimate { return t.contour }

// Transcribe converts a whole signal into a transcription.
func Transcribe(sig *audio.Signal) (model.Transcription, error) {
	t, err := NewTranscriber(sig.SampleRate)
	if err != nil {
		return nil, err
	}
	if err := t.Feed(sig.Samples); err != nil {
		return nil, err
	}
	return t.Finish(), nil
}

// FrameDuration returns the duration of one hop in seconds.
func FrameDuration(sampleRate int) float64 {
	return float64(HopSize) / float64(sampleRate)
}
