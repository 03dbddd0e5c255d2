package main

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Root endpoint
	mux.HandleFunc("/", s.handleRoot)

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	// Tune lookup
	mux.HandleFunc("/api/tunes/", s.handleTune)

	// Query endpoints
	mux.HandleFunc("/api/query/transcription", s.handleQueryTranscription)
	mux.HandleFunc("/api/query/name", s.handleQueryName)
	mux.HandleFunc("/api/abc", s.handleABC)
	mux.HandleFunc("/api/match", s.handleMatch)

	var handler http.Handler = mux
	if s.config.LogRequests {
		handler = loggingMiddleware(handler)
	}

	// Wrap with CORS middleware
	return corsMiddleware(s.config.AllowedOrigins)(handler)
}

// corsMiddleware answers preflight requests and sets CORS headers for
// allowed origins. An empty list or a single "*" allows any origin without
// credentials; listed origins are echoed back and may send credentials.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	listed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		listed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && listed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if h.Get("Access-Control-Allow-Origin") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				h.Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs one line per request with its status and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.WithFields(logger.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  rec.status,
			"client":  clientIP(r),
			"elapsed": time.Since(start).Round(time.Microsecond),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	st := s.service.Stats()
	s.log.Infof("🚀 FolkDNA server starting on %s", addr)
	s.log.Infof("   Index: %s (%d tunes, %d settings)", s.config.IndexPath, st.Tunes, st.Settings)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("\nEndpoints:")
	s.log.Infof("   GET    /health                      - Health check")
	s.log.Infof("   GET    /api/health/metrics          - Index metrics")
	s.log.Infof("   GET    /api/tunes/{id}              - Get tune by ID")
	s.log.Infof("   POST   /api/query/transcription     - Rank tunes against a transcription")
	s.log.Infof("   POST   /api/query/name              - Find tunes by name")
	s.log.Infof("   POST   /api/abc                     - Render a transcription as ABC")
	s.log.Infof("   POST   /api/match                   - Match a WAV recording")

	return http.ListenAndServe(addr, handler)
}
