package server

import (
	"net/http"
	"strings"
)

// endpointDescriptions lists the public routes for GET / and the startup banner
var endpointDescriptions = []struct {
	Route       string
	Description string
}{
	{"GET /", "API information"},
	{"GET /health", "Health check"},
	{"GET /stats", "Server statistics"},
	{"POST /evaluate", "Evaluate an uploaded PDF resume against a job description"},
	{"POST /evaluate-json", "Evaluate an uploaded PDF resume with an optional per-request API key and model"},
	{"POST /api/analyze-resume", "Score a resume fetched from a URL against a job description"},
	{"POST /api/generate-job-summary", "Summarize a job posting"},
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware()(s.authMiddleware(s.requestSizeLimitMiddleware(h)))
	}

	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if handler := s.Observability.MetricsHandler(); handler != nil {
		mux.Handle("GET /metrics", handler)
	}

	mux.HandleFunc("POST /evaluate", protect(s.evaluateHandler))
	mux.HandleFunc("POST /evaluate-json", protect(s.evaluateJSONHandler))
	mux.HandleFunc("POST /api/analyze-resume", protect(s.analyzeResumeHandler))
	mux.HandleFunc("POST /api/generate-job-summary", protect(s.jobSummaryHandler))

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return s.Observability.HTTPMiddleware()(handler)
}

// requestAPIKey reads the caller's key from X-API-Key or an Authorization bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if !s.authRequired() {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"request_id", requestIDFrom(r.Context()),
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, r, http.StatusUnauthorized, ErrorResponse{
				Error:   "UNAUTHORIZED",
				Message: "Missing API key",
				Detail:  "X-API-Key header or Authorization Bearer token required",
			})
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"request_id", requestIDFrom(r.Context()),
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, r, http.StatusUnauthorized, ErrorResponse{
				Error:   "UNAUTHORIZED",
				Message: "Invalid API key",
				Detail:  "Unauthorized access",
			})
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next(w, r)
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
