package folkdna

import (
	"context"
	"fmt"
	"time"

	"github.com/himanishpuri/FolkDNA/internal/abc"
	"github.com/himanishpuri/FolkDNA/internal/dataset"
	"github.com/himanishpuri/FolkDNA/internal/evaluate"
	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/internal/query"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

// folkService is the default implementation of the Service interface.
type folkService struct {
	engine *query.Engine
	log    Logger
	config *Config
}

// NewService loads the tune index once and returns a service sharing it
// between all queries.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	idx, err := index.Load(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tune index: %w", err)
	}
	stats := idx.Stats()
	cfg.Logger.Infof("Loaded %d settings of %d tunes from %s", stats.Settings, stats.Tunes, cfg.IndexPath)

	return &folkService{
		engine: query.New(idx),
		log:    cfg.Logger,
		config: cfg,
	}, nil
}

// TranscribeFile reads a WAV recording and transcribes it. It needs no index.
func TranscribeFile(path string) (Transcription, error) {
	return evaluate.TranscribeWav(path)
}

// MatchFile transcribes a recording and ranks the index against it.
func (s *folkService) MatchFile(ctx context.Context, audioPath string) (*MatchReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.log.Infof("Matching audio: %s", audioPath)
	start := time.Now()

	t, err := TranscribeFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	s.log.Debugf("Transcribed %d tokens (%d notes)", len(t), t.Notes())

	matches := s.QueryTranscription(t)
	if s.config.TopN > 0 && len(matches) > s.config.TopN {
		matches = matches[:s.config.TopN]
	}

	return &MatchReport{
		Transcription: t,
		Matches:       matches,
		Duration:      time.Since(start),
	}, nil
}

// QueryTranscription ranks every tune of the index against t.
func (s *folkService) QueryTranscription(t Transcription) []MatchResult {
	return s.toResults(s.engine.RunQuery(t))
}

// QueryContour parses a transcription's text form and ranks the index against it.
func (s *folkService) QueryContour(contour string) ([]MatchResult, error) {
	t, err := model.ParseTranscription(contour)
	if err != nil {
		return nil, fmt.Errorf("invalid transcription: %w", err)
	}
	return s.QueryTranscription(t), nil
}

func (s *folkService) toResults(matches []model.RankedMatch) []MatchResult {
	idx := s.engine.Index()
	results := make([]MatchResult, len(matches))
	for i, m := range matches {
		results[i] = MatchResult{
			TuneID:    m.TuneID,
			SettingID: m.SettingID,
			Score:     m.Score,
		}
		if names := idx.Aliases(m.TuneID); len(names) > 0 {
			results[i].Name = names[0]
		}
	}
	return results
}

// QueryName finds tunes by name. A limit of zero or less returns every hit.
func (s *folkService) QueryName(name string, limit int) []NameResult {
	matches := s.engine.RunNameQuery(name, limit)
	results := make([]NameResult, len(matches))
	for i, m := range matches {
		results[i] = NameResult{TuneID: m.TuneID, Name: m.Name, Score: m.Score}
	}
	return results
}

// ToABC renders t as an ABC tune.
func (s *folkService) ToABC(t Transcription, title string) string {
	return abc.Format(t, abc.Header{Title: title})
}

// GetTune returns a tune's settings and names.
func (s *folkService) GetTune(tuneID string) (*Tune, error) {
	idx := s.engine.Index()
	settings := idx.TuneSettings(tuneID)
	if len(settings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTuneNotFound, tuneID)
	}

	tune := &Tune{
		TuneID:   tuneID,
		Names:    append([]string(nil), idx.Aliases(tuneID)...),
		Settings: make([]TuneSetting, len(settings)),
	}
	for i, st := range settings {
		tune.Settings[i] = TuneSetting{SettingID: st.SettingID, Transcription: st.Transcription.String()}
	}
	return tune, nil
}

// Stats reports the size of the loaded index.
func (s *folkService) Stats() IndexStats {
	st := s.engine.Index().Stats()
	return IndexStats{
		Source:   s.config.IndexPath,
		Tunes:    st.Tunes,
		Settings: st.Settings,
		NGrams:   st.NGrams,
		Aliases:  st.Aliases,
	}
}

// Compare scores two transcriptions against each other with the index's
// match settings.
func (s *folkService) Compare(a, b Transcription) float64 {
	return query.Similarity(a, b, s.engine.Index().Settings())
}

func newHarness(q evaluate.Querier, cfg *Config) *evaluate.Harness {
	opts := []evaluate.Option{
		evaluate.WithWorkers(cfg.Workers),
		evaluate.WithProgress(cfg.Progress),
	}
	if l, ok := cfg.Logger.(*logger.Logger); ok {
		opts = append(opts, evaluate.WithLogger(l))
	}
	return evaluate.New(q, opts...)
}

// EvaluateDataset queries every record of a dataset, writes the ranked
// records and returns the summary.
func (s *folkService) EvaluateDataset(ctx context.Context, datasetPath string) (*EvaluationReport, error) {
	records, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Querying %d records", len(records))

	results, err := newHarness(s.engine, s.config).Query(ctx, records)
	if err != nil {
		return nil, err
	}

	out := s.config.Output
	if out == "" {
		out, err = dataset.WriteRanked(datasetPath, results)
	} else {
		err = dataset.WriteRankedFile(out, results)
	}
	if err != nil {
		return nil, err
	}

	return &EvaluationReport{
		Output:  out,
		Summary: evaluate.Summarize(results, s.engine.NumTunes()),
	}, nil
}

// TranscribeDataset re-transcribes the recording behind every record of a
// dataset and writes the records back.
func (s *folkService) TranscribeDataset(ctx context.Context, datasetPath string) (*TranscriptionReport, error) {
	return transcribeDataset(ctx, s.config, datasetPath)
}

// TranscribeDataset is the index-free form of Service.TranscribeDataset.
// WithIndexPath and WithTopN are ignored.
func TranscribeDataset(ctx context.Context, datasetPath string, opts ...Option) (*TranscriptionReport, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	return transcribeDataset(ctx, cfg, datasetPath)
}

func transcribeDataset(ctx context.Context, cfg *Config, datasetPath string) (*TranscriptionReport, error) {
	records, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Infof("Transcribing %d recordings", len(records))

	updated, failed, err := newHarness(nil, cfg).Transcribe(ctx, dataset.Dir(datasetPath), records, nil)
	if err != nil {
		return nil, err
	}
	if failed > 0 {
		cfg.Logger.Warnf("%d of %d recordings could not be transcribed", failed, len(records))
	}

	out, err := dataset.Write(datasetPath, updated)
	if err != nil {
		return nil, err
	}
	return &TranscriptionReport{Output: out, Records: len(records), Failed: failed}, nil
}

// Close releases the service. The index is held in memory, so there is
// nothing to flush.
func (s *folkService) Close() error {
	return nil
}
