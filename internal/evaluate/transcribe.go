package evaluate

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/FolkDNA/internal/audio"
	"github.com/himanishpuri/FolkDNA/internal/dataset"
	"github.com/himanishpuri/FolkDNA/internal/features"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

// TranscribeFunc turns one recording into a transcription.
type TranscribeFunc func(path string) (model.Transcription, error)

// TranscribeWav loads a WAV file and transcribes it.
func TranscribeWav(path string) (model.Transcription, error) {
	sig, err := audio.LoadSignal(path)
	if err != nil {
		return nil, err
	}
	return features.Transcribe(sig)
}

// Transcribe re-transcribes every record from the recording at its rel_path
// (relative to dir) and returns the updated records in their original order
// with the number of failures. A failed record keeps its old transcription.
func (h *Harness) Transcribe(ctx context.Context, dir string, records []dataset.Record, fn TranscribeFunc) ([]dataset.Record, int, error) {
	if fn == nil {
		fn = TranscribeWav
	}

	out := make([]dataset.Record, len(records))
	copy(out, records)
	var failed atomic.Int64
	if len(out) == 0 {
		return out, 0, ctx.Err()
	}

	p, bar := h.newProgress(len(records), "Transcribing: ")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.workers)
	for i := range out {
		i := i
		g.Go(func() error {
			defer bar.Increment()
			if err := ctx.Err(); err != nil {
				return err
			}

			path := out[i].RelPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			tr, err := fn(path)
			if err != nil {
				failed.Add(1)
				h.cfg.log.WithFields(logger.Fields{"rel_path": out[i].RelPath}).Warnf("transcription failed: %v", err)
				return nil
			}
			out[i].Transcription = tr.String()
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return nil, 0, err
	}
	return out, int(failed.Load()), nil
}
