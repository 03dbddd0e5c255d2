package model

import (
	"errors"
	"fmt"
)

// MaxNGramLength is the longest n-gram that fits a packed 64-bit key
// (7 bits per pitch).
const MaxNGramLength = 9

// TuneSettings holds the matching configuration stored alongside a tune
// index. It is loaded once and never changed afterwards.
type TuneSettings struct {
	// Extraction parameters the index transcriptions were produced with.
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Candidate retrieval.
	NGramLength  int `json:"ngram_length"`
	PitchQuantum int `json:"pitch_quantum"`
	MinNGramHits int `json:"min_ngram_hits"`

	// Alignment scoring.
	MatchReward     float64 `json:"match_reward"`
	PitchPenalty    float64 `json:"pitch_penalty"`
	DurationPenalty float64 `json:"duration_penalty"`
	GapPenalty      float64 `json:"gap_penalty"`
	MismatchPenalty float64 `json:"mismatch_penalty"`
}

// DefaultTuneSettings returns the settings used when an index does not
// carry its own.
func DefaultTuneSettings() TuneSettings {
	return TuneSettings{
		WindowSize:      2048,
		HopSize:         512,
		NGramLength:     3,
		PitchQuantum:    1,
		MinNGramHits:    1,
		MatchReward:     1.0,
		PitchPenalty:    0.5,
		DurationPenalty: 0.25,
		GapPenalty:      0.6,
		MismatchPenalty: 1.0,
	}
}

// WithDefaults fills zero fields from DefaultTuneSettings.
func (s TuneSettings) WithDefaults() TuneSettings {
	d := DefaultTuneSettings()
	if s.WindowSize == 0 {
		s.WindowSize = d.WindowSize
	}
	if s.HopSize == 0 {
		s.HopSize = d.HopSize
	}
	if s.NGramLength == 0 {
		s.NGramLength = d.NGramLength
	}
	if s.PitchQuantum == 0 {
		s.PitchQuantum = d.PitchQuantum
	}
	if s.MinNGramHits == 0 {
		s.MinNGramHits = d.MinNGramHits
	}
	if s.MatchReward == 0 {
		s.MatchReward = d.MatchReward
	}
	if s.PitchPenalty == 0 {
		s.PitchPenalty = d.PitchPenalty
	}
	if s.DurationPenalty == 0 {
		s.DurationPenalty = d.DurationPenalty
	}
	if s.GapPenalty == 0 {
		s.GapPenalty = d.GapPenalty
	}
	if s.MismatchPenalty == 0 {
		s.MismatchPenalty = d.MismatchPenalty
	}
	return s
}

// Validate checks that the settings can drive retrieval and scoring.
func (s TuneSettings) Validate() error {
	if s.NGramLength < 1 || s.NGramLength > MaxNGramLength {
		return fmt.Errorf("ngram_length must be in [1, %d], got %d", MaxNGramLength, s.NGramLength)
	}
	if s.PitchQuantum < 1 {
		return fmt.Errorf("pitch_quantum must be positive, got %d", s.PitchQuantum)
	}
	if s.MinNGramHits < 1 {
		return fmt.Errorf("min_ngram_hits must be positive, got %d", s.MinNGramHits)
	}
	if s.MatchReward <= 0 {
		return errors.New("match_reward must be positive")
	}
	if s.PitchPenalty < 0 || s.DurationPenalty < 0 || s.GapPenalty < 0 || s.MismatchPenalty < 0 {
		return errors.New("penalties must not be negative")
	}
	if s.WindowSize < 0 || s.HopSize < 0 {
		return errors.New("window_size and hop_size must not be negative")
	}
	return nil
}
