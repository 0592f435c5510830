package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// The Messages API requires max_tokens
const defaultAnthropicMaxTokens = 2048

// AnthropicProvider implements Provider for Claude models
type AnthropicProvider struct {
	client     anthropic.Client
	httpClient *http.Client
	hasKey     bool
	logger     *resumatchErrors.Logger
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a provider for cfg. SDK retries are disabled.
func NewAnthropicProvider(cfg *config.OperationAIConfig, logger *resumatchErrors.Logger) *AnthropicProvider {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClient),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:     anthropic.NewClient(opts...),
		httpClient: httpClient,
		hasKey:     cfg.APIKey != "",
		logger:     logger,
	}
}

// Name implements Provider
func (a *AnthropicProvider) Name() string { return config.ProviderAnthropic }

// Close implements Provider
func (a *AnthropicProvider) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Complete implements Provider
func (a *AnthropicProvider) Complete(ctx context.Context, req Request) (*Reply, error) {
	var callOpts []option.RequestOption
	if req.APIKey != "" {
		callOpts = append(callOpts, option.WithAPIKey(req.APIKey))
	} else if !a.hasKey {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeMissingAPIKey,
			"Anthropic API key is not configured", nil)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := a.client.Messages.New(ctx, params, callOpts...)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeAIServiceFailed,
			fmt.Sprintf("Anthropic API error: %v", err), status, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeEmptyReply,
			"Anthropic returned an empty reply", 0, nil)
	}

	return &Reply{
		Text:  text.String(),
		Model: string(message.Model),
		Usage: &types.TokenUsage{
			PromptTokens:     int32(message.Usage.InputTokens),
			CompletionTokens: int32(message.Usage.OutputTokens),
			TotalTokens:      int32(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}
