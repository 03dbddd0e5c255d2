package folkdna

import (
	"errors"
	"time"

	"github.com/himanishpuri/FolkDNA/internal/evaluate"
	"github.com/himanishpuri/FolkDNA/internal/model"
)

// ErrTuneNotFound is returned by GetTune for ids missing from the index.
var ErrTuneNotFound = errors.New("tune not found")

// Transcription is a melodic token sequence. Its text form is
// space separated "A4:12" notes and "r:3" rests.
type Transcription = model.Transcription

// Summary holds the rank statistics of an evaluation run.
type Summary = evaluate.Summary

// ParseTranscription parses the text form of a transcription.
func ParseTranscription(s string) (Transcription, error) {
	return model.ParseTranscription(s)
}

// MatchResult is one ranked tune.
type MatchResult struct {
	TuneID    string  `json:"tune_id"`    // Tune identifier
	SettingID string  `json:"setting_id"` // Best scoring setting
	Name      string  `json:"name"`       // First known alias, if any
	Score     float64 `json:"score"`      // Normalised similarity in [0, 1]
}

// MatchReport is the outcome of matching one recording.
type MatchReport struct {
	Transcription Transcription `json:"transcription"`
	Matches       []MatchResult `json:"matches"`
	Duration      time.Duration `json:"duration"`
}

// NameResult is one tune found by a name query.
type NameResult struct {
	TuneID string  `json:"tune_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// TuneSetting is one notated variant of a tune.
type TuneSetting struct {
	SettingID     string `json:"setting_id"`
	Transcription string `json:"transcription"`
}

// Tune is an index entry with all of its settings and names.
type Tune struct {
	TuneID   string        `json:"tune_id"`
	Names    []string      `json:"names"`
	Settings []TuneSetting `json:"settings"`
}

// IndexStats describes the loaded index.
type IndexStats struct {
	Source   string `json:"source"`
	Tunes    int    `json:"tunes"`
	Settings int    `json:"settings"`
	NGrams   int    `json:"ngrams"`
	Aliases  int    `json:"aliases"`
}

// EvaluationReport is the outcome of querying a dataset.
type EvaluationReport struct {
	Output  string  `json:"output"`
	Summary Summary `json:"summary"`
}

// TranscriptionReport is the outcome of re-transcribing a dataset.
type TranscriptionReport struct {
	Output  string `json:"output"`
	Records int    `json:"records"`
	Failed  int    `json:"failed"`
}
