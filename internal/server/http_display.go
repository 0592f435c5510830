package server

import (
	"fmt"
	"io"
	"os"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	s.displayEndpoints(out)
	s.displayAuthInfo(out)
	s.displayRequestLimitInfo(out)
	s.displayRateLimitInfo(out)
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Available endpoints:")
	for _, e := range endpointDescriptions {
		_, _ = fmt.Fprintf(out, "  %-32s - %s\n", e.Route, e.Description)
	}
	if s.Observability.MetricsHandler() != nil {
		_, _ = fmt.Fprintf(out, "  %-32s - %s\n", "GET /metrics", "Prometheus metrics")
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo(out io.Writer) {
	if count := s.apiKeyCount(); count > 0 {
		_, _ = fmt.Fprintf(out, "API authentication: ENABLED (%d keys configured)\n", count)
		_, _ = fmt.Fprintln(out, "Include 'X-API-Key: <your-key>' header in POST requests")
	} else {
		_, _ = fmt.Fprintln(out, "API authentication: DISABLED (no API keys configured)")
		_, _ = fmt.Fprintln(out, "WARNING: API endpoints are publicly accessible!")
	}
	if s.keyWatcher != nil {
		_, _ = fmt.Fprintln(out, "  - API keys are refreshed from Vault")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo(out io.Writer) {
	if s.MaxRequestSize > 0 {
		_, _ = fmt.Fprintf(out, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		_, _ = fmt.Fprintln(out, "Request size limit: DISABLED")
		_, _ = fmt.Fprintln(out, "WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo(out io.Writer) {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		_, _ = fmt.Fprintf(out, "Rate limiting: ENABLED (%d requests per %s, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.Window, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			_, _ = fmt.Fprintln(out, "  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			_, _ = fmt.Fprintln(out, "  - Per IP address rate limiting enabled")
		}
	} else {
		_, _ = fmt.Fprintln(out, "Rate limiting: DISABLED")
		_, _ = fmt.Fprintln(out, "WARNING: No rate limiting configured!")
	}
}
