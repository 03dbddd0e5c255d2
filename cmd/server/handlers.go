package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/FolkDNA/pkg/folkdna"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
	"github.com/himanishpuri/FolkDNA/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service folkdna.Service
	config  *ServerConfig
	log     folkdna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	IndexPath      string
	TempDir        string
	LogRequests    bool
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service folkdna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// decodeJSON decodes a request body of at most 1MB into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "FolkDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":             "GET /health",
			"metrics":            "GET /api/health/metrics",
			"getTune":            "GET /api/tunes/{id}",
			"queryTranscription": "POST /api/query/transcription",
			"queryName":          "POST /api/query/name",
			"abc":                "POST /api/abc",
			"matchFile":          "POST /api/match",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	st := s.service.Stats()
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:    "healthy",
		IndexPath: st.Source,
		Tunes:     st.Tunes,
		Settings:  st.Settings,
		NGrams:    st.NGrams,
		Aliases:   st.Aliases,
	})
}

// handleTune handles GET /api/tunes/{id}
func (s *Server) handleTune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tunes/")
	if id == "" || strings.Contains(id, "/") {
		s.respondError(w, http.StatusBadRequest, "Tune ID required")
		return
	}

	tune, err := s.service.GetTune(id)
	if errors.Is(err, folkdna.ErrTuneNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Tune %s not found", id))
		return
	}
	if err != nil {
		s.log.Errorf("Failed to get tune %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve tune")
		return
	}

	settings := make([]SettingDTO, len(tune.Settings))
	for i, st := range tune.Settings {
		settings[i] = SettingDTO{SettingID: st.SettingID, Transcription: st.Transcription}
	}
	s.respondJSON(w, http.StatusOK, TuneResponse{
		TuneID:   tune.TuneID,
		Names:    tune.Names,
		Settings: settings,
	})
}

func toMatchResponse(t folkdna.Transcription, results []folkdna.MatchResult, limit int) MatchResponse {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	shown := results
	if len(shown) > limit {
		shown = shown[:limit]
	}

	dtos := make([]MatchResultDTO, len(shown))
	for i, m := range shown {
		dtos[i] = MatchResultDTO{
			Rank:      i + 1,
			TuneID:    m.TuneID,
			SettingID: m.SettingID,
			Name:      m.Name,
			Score:     m.Score,
		}
	}
	return MatchResponse{
		Transcription: t.String(),
		Matches:       dtos,
		Count:         len(dtos),
		Total:         len(results),
	}
}

// handleQueryTranscription handles POST /api/query/transcription
func (s *Server) handleQueryTranscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req TranscriptionQueryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := folkdna.ParseTranscription(req.Transcription)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Debugf("Querying %d tokens", len(t))
	s.respondJSON(w, http.StatusOK, toMatchResponse(t, s.service.QueryTranscription(t), req.Limit))
}

// handleQueryName handles POST /api/query/name
func (s *Server) handleQueryName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req NameQueryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultResultLimit
	}
	results := s.service.QueryName(req.Name, limit)
	dtos := make([]NameResultDTO, len(results))
	for i, m := range results {
		dtos[i] = NameResultDTO{TuneID: m.TuneID, Name: m.Name, Score: m.Score}
	}
	s.respondJSON(w, http.StatusOK, NameQueryResponse{Results: dtos, Count: len(dtos)})
}

// handleABC handles POST /api/abc
func (s *Server) handleABC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ABCRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	t, err := folkdna.ParseTranscription(req.Transcription)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, ABCResponse{ABC: s.service.ToABC(t, req.Title)})
}

// handleMatch handles POST /api/match (multipart WAV upload)
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// Parse multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	// Save to temporary file
	out, err := os.CreateTemp(s.config.TempDir, "query_*"+filepath.Ext(header.Filename))
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	tempFile := out.Name()
	defer utils.DeleteFile(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Matching uploaded file: %s", header.Filename)
	report, err := s.service.MatchFile(ctx, tempFile)
	if err != nil {
		s.log.Warnf("Failed to match %s: %v", header.Filename, err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to match recording: %v", err))
		return
	}

	resp := toMatchResponse(report.Transcription, report.Matches, DefaultResultLimit)
	resp.DurationMs = report.Duration.Milliseconds()
	s.log.Infof("Match complete: %d notes, top tune %v", report.Transcription.Notes(), topTune(report.Matches))
	s.respondJSON(w, http.StatusOK, resp)
}

func topTune(matches []folkdna.MatchResult) string {
	if len(matches) == 0 {
		return "-"
	}
	return matches[0].TuneID
}
