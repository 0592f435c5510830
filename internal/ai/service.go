package ai

import (
	"context"
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Override carries per-request replacements for the configured model and credential
type Override struct {
	Model  string
	APIKey string
}

// Service invokes the model configured for one operation
type Service struct {
	provider  Provider
	breaker   *CircuitBreaker
	config    config.OperationAIConfig
	operation types.Operation
	logger    *errors.Logger
}

// NewService creates the provider selected by cfg
func NewService(ctx context.Context, cfg config.OperationAIConfig, operation types.Operation, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operation,
		"model", cfg.Model,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	var provider Provider
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		provider = NewOpenRouterProvider(&cfg, logger)
	case config.ProviderGemini:
		gemini, err := NewGeminiProvider(ctx, &cfg, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	case config.ProviderAnthropic:
		provider = NewAnthropicProvider(&cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	return NewServiceWithProvider(provider, cfg, operation, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider Provider, cfg config.OperationAIConfig, operation types.Operation, logger *errors.Logger) *Service {
	return &Service{
		provider:  provider,
		breaker:   NewCircuitBreaker(string(operation), &cfg, logger),
		config:    cfg,
		operation: operation,
		logger:    logger,
	}
}

// Generate sends prompt to the model in a single attempt
func (s *Service) Generate(ctx context.Context, prompt types.ComposedPrompt, override Override) (*Reply, error) {
	req := Request{
		Model:     s.config.Model,
		System:    prompt.System,
		Prompt:    prompt.Text,
		MaxTokens: derefInt(s.config.MaxTokens),
		APIKey:    override.APIKey,
	}
	if s.config.Temperature != nil {
		temperature := *s.config.Temperature
		req.Temperature = &temperature
	}
	if req.System == "" {
		req.System = s.config.SystemPrompt
	}
	if override.Model != "" {
		req.Model = override.Model
	}

	ctx, span := otel.Tracer("resumatch.ai").Start(ctx, s.provider.Name()+".complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", s.provider.Name()),
		attribute.String("ai.operation", string(s.operation)),
		attribute.String("ai.model", req.Model),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)
	if req.Temperature != nil {
		span.SetAttributes(attribute.Float64("ai.temperature", float64(*req.Temperature)))
	}

	reply, err := s.breaker.Execute(func() (*Reply, error) {
		return s.provider.Complete(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		s.logger.LogError(err, "Model call failed",
			"operation", s.operation,
			"provider", s.provider.Name(),
			"model", req.Model)
		return nil, err
	}

	if reply.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", int64(reply.Usage.PromptTokens)),
			attribute.Int64("ai.tokens.output", int64(reply.Usage.CompletionTokens)),
			attribute.Int64("ai.tokens.total", int64(reply.Usage.TotalTokens)),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return reply, nil
}

// Model returns the configured model identifier
func (s *Service) Model() string { return s.config.Model }

// Provider returns the provider name
func (s *Service) Provider() string { return s.provider.Name() }

// GetStats reports the circuit breaker state
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"provider":        s.provider.Name(),
		"model":           s.config.Model,
		"circuit_breaker": s.breaker.GetStats(),
		"healthy":         s.breaker.IsHealthy(),
	}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.provider.Close()
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
