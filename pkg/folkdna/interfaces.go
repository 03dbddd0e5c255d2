package folkdna

import (
	"context"
)

type Service interface {
	MatchFile(ctx context.Context, audioPath string) (*MatchReport, error)
	QueryTranscription(t Transcription) []MatchResult
	QueryContour(contour string) ([]MatchResult, error)
	QueryName(name string, limit int) []NameResult
	ToABC(t Transcription, title string) string
	Compare(a, b Transcription) float64
	GetTune(tuneID string) (*Tune, error)
	Stats() IndexStats
	EvaluateDataset(ctx context.Context, datasetPath string) (*EvaluationReport, error)
	TranscribeDataset(ctx context.Context, datasetPath string) (*TranscriptionReport, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
