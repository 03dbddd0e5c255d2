package main

import (
	"fmt"
	"strings"
)

// Request limit constants for validation
const (
	// MaxQueryTokens bounds the length of a transcription query (~10 minutes of audio)
	MaxQueryTokens = 20000

	// MaxNameLength bounds the length of a name query
	MaxNameLength = 256

	// DefaultResultLimit is used when a request does not set a limit
	DefaultResultLimit = 10
)

// TranscriptionQueryRequest is the request body for POST /api/query/transcription
type TranscriptionQueryRequest struct {
	// Transcription is the text form, e.g. "D4:2 E4:2 F#4:4"
	Transcription string `json:"transcription"`

	// Limit caps the number of tunes returned; 0 selects DefaultResultLimit
	Limit int `json:"limit,omitempty"`
}

// Validate checks if the request is valid
func (r *TranscriptionQueryRequest) Validate() error {
	if n := len(strings.Fields(r.Transcription)); n > MaxQueryTokens {
		return fmt.Errorf("too many tokens: %d (maximum: %d)", n, MaxQueryTokens)
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	return nil
}

// NameQueryRequest is the request body for POST /api/query/name
type NameQueryRequest struct {
	Name  string `json:"name"`
	Limit int    `json:"limit,omitempty"`
}

// Validate checks if the request is valid
func (r *NameQueryRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Name) > MaxNameLength {
		return fmt.Errorf("name too long: %d characters (maximum: %d)", len(r.Name), MaxNameLength)
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	return nil
}

// ABCRequest is the request body for POST /api/abc
type ABCRequest struct {
	Transcription string `json:"transcription"`
	Title         string `json:"title,omitempty"`
}

// MatchResultDTO represents a single ranked tune
type MatchResultDTO struct {
	Rank      int     `json:"rank"`
	TuneID    string  `json:"tune_id"`
	SettingID string  `json:"setting_id"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score"`
}

// MatchResponse is the response for transcription and audio queries
type MatchResponse struct {
	Transcription string           `json:"transcription"`
	Matches       []MatchResultDTO `json:"matches"`
	Count         int              `json:"count"`
	Total         int              `json:"total"`
	DurationMs    int64            `json:"duration_ms,omitempty"`
}

// NameResultDTO represents a single name query hit
type NameResultDTO struct {
	TuneID string  `json:"tune_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// NameQueryResponse is the response for POST /api/query/name
type NameQueryResponse struct {
	Results []NameResultDTO `json:"results"`
	Count   int             `json:"count"`
}

// ABCResponse is the response for POST /api/abc
type ABCResponse struct {
	ABC string `json:"abc"`
}

// SettingDTO represents one setting of a tune
type SettingDTO struct {
	SettingID     string `json:"setting_id"`
	Transcription string `json:"transcription"`
}

// TuneResponse is the response for GET /api/tunes/{id}
type TuneResponse struct {
	TuneID   string       `json:"tune_id"`
	Names    []string     `json:"names"`
	Settings []SettingDTO `json:"settings"`
}

// MetricsResponse provides server health and index metrics
type MetricsResponse struct {
	Status    string `json:"status"`
	IndexPath string `json:"index_path"`
	Tunes     int    `json:"tunes"`
	Settings  int    `json:"settings"`
	NGrams    int    `json:"ngrams"`
	Aliases   int    `json:"aliases"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
