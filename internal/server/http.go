package server

import (
	"context"
	"io"
	"sync"
	"time"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/types"
)

// Pipeline runs one evaluation request end to end
type Pipeline interface {
	Run(ctx context.Context, req types.EvaluationRequest) (*types.Outcome, error)
	Stats() map[string]any
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// EvaluateErrorResponse keeps the success shape of /evaluate alongside the error
type EvaluateErrorResponse struct {
	ErrorResponse
	types.EvaluateResponse
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication, replaced at runtime by the key watcher
	apiKeysMu sync.RWMutex
	apiKeys   map[string]bool

	// CORS allow-list
	CORSOrigins []string

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Pipeline      Pipeline
	Observability *observability.ObservabilityManager

	// Secrets backs API key rotation when the key watcher is enabled
	Secrets    config.SecretReader
	KeyWatcher config.KeyWatcherConfig
	keyWatcher *VaultWatcher

	// Out receives the startup banner, os.Stdout when nil
	Out io.Writer

	Logger *resumatchErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	CORSOrigins    []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	KeyWatcher     config.KeyWatcherConfig
	Secrets        config.SecretReader
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, pipeline Pipeline, om *observability.ObservabilityManager, logger *resumatchErrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		CORSOrigins:    cfg.CORSOrigins,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		KeyWatcher:     cfg.KeyWatcher,
		Secrets:        cfg.Secrets,
		Pipeline:       pipeline,
		Observability:  om,
		Logger:         logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty list disables authentication.
func (s *Server) SetAPIKeys(keys []string) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s.apiKeysMu.Lock()
	s.apiKeys = apiKeyMap
	s.apiKeysMu.Unlock()
}

// authRequired reports whether any API key is configured
func (s *Server) authRequired() bool {
	s.apiKeysMu.RLock()
	defer s.apiKeysMu.RUnlock()
	return len(s.apiKeys) > 0
}

func (s *Server) validAPIKey(key string) bool {
	s.apiKeysMu.RLock()
	defer s.apiKeysMu.RUnlock()
	return s.apiKeys[key]
}

func (s *Server) apiKeyCount() int {
	s.apiKeysMu.RLock()
	defer s.apiKeysMu.RUnlock()
	return len(s.apiKeys)
}
