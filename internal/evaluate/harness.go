package evaluate

import (
	"context"
	"io"
	"runtime"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/FolkDNA/internal/dataset"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/internal/query"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

// Querier ranks a transcription against every tune of an index.
type Querier interface {
	RunQuery(q model.Transcription) []model.RankedMatch
	NumTunes() int
}

type config struct {
	workers  int
	progress io.Writer
	log      *logger.Logger
}

// Option configures a Harness.
type Option func(*config)

// WithWorkers sets the number of concurrent workers. Values below 1 select
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(c *config) { c.progress = w }
}

// WithLogger sets the logger used for per-record failures.
func WithLogger(l *logger.Logger) Option {
	return func(c *config) { c.log = l }
}

// Harness runs dataset records through a shared Querier in parallel.
type Harness struct {
	q   Querier
	cfg config
}

// New returns a harness over q. q may be nil for a harness that only
// transcribes.
func New(q Querier, opts ...Option) *Harness {
	cfg := config{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}
	return &Harness{q: q, cfg: cfg}
}

// Workers returns the size of the worker pool.
func (h *Harness) Workers() int { return h.cfg.workers }

func (h *Harness) newProgress(total int, label string) (*mpb.Progress, *mpb.Bar) {
	out := h.cfg.progress
	if out == nil {
		out = io.Discard
	}
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	return p, bar
}

// Query ranks every record's transcription and returns the records in their
// original order, each with the rank its tune reached. Records whose
// transcription cannot be parsed are flagged with an error and the miss
// rank. Only context cancellation stops the run early.
func (h *Harness) Query(ctx context.Context, records []dataset.Record) ([]dataset.RankedRecord, error) {
	results := make([]dataset.RankedRecord, len(records))
	if len(records) == 0 {
		return results, ctx.Err()
	}
	p, bar := h.newProgress(len(records), "Querying: ")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			defer bar.Increment()
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = h.rankRecord(records[i])
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (h *Harness) rankRecord(rec dataset.Record) dataset.RankedRecord {
	out := dataset.RankedRecord{Record: rec, Rank: h.q.NumTunes()}

	tr, err := model.ParseTranscription(rec.Transcription)
	if err != nil {
		h.cfg.log.WithFields(logger.Fields{"rel_path": rec.RelPath, "tune_id": rec.TuneID}).Warnf("skipping record: %v", err)
		out.Error = err.Error()
		return out
	}

	matches := h.q.RunQuery(tr)
	out.Rank = query.Rank(matches, rec.TuneID)
	if out.Rank < len(matches) {
		out.Score = matches[out.Rank].Score
	}
	return out
}
