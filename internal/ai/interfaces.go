package ai

import (
	"context"

	"resumatch/internal/types"
)

// Provider sends a single chat completion to a model backend.
// Implementations make exactly one upstream attempt per call.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
	Name() string
	Close() error
}

// Request is one model invocation
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32 // nil leaves the provider default
	MaxTokens   int      // 0 leaves the provider default

	// APIKey replaces the configured credential for this call only
	APIKey string
}

// Reply is the raw text returned by the model. It is never assumed to be valid JSON.
type Reply struct {
	Text  string
	Model string
	Usage *types.TokenUsage
}
