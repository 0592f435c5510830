package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenRouterProvider talks to an OpenAI-compatible chat completions endpoint
type OpenRouterProvider struct {
	client     openai.Client
	httpClient *http.Client
	hasKey     bool
	logger     *resumatchErrors.Logger
}

var _ Provider = (*OpenRouterProvider)(nil)

// NewOpenRouterProvider creates a provider for cfg. SDK retries are disabled and the HTTP
// client keeps its default timeout behaviour; cancellation comes from the request context.
func NewOpenRouterProvider(cfg *config.OperationAIConfig, logger *resumatchErrors.Logger) *OpenRouterProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithHeader("X-Title", "Resumatch"),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &OpenRouterProvider{
		client:     openai.NewClient(opts...),
		httpClient: httpClient,
		hasKey:     cfg.APIKey != "",
		logger:     logger,
	}
}

// upstreamError is the error envelope OpenRouter uses, sometimes inside a 200 response
type upstreamError struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// Name implements Provider
func (p *OpenRouterProvider) Name() string { return config.ProviderOpenRouter }

// Close implements Provider
func (p *OpenRouterProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// Complete implements Provider
func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (*Reply, error) {
	var callOpts []option.RequestOption
	if req.APIKey != "" {
		callOpts = append(callOpts, option.WithAPIKey(req.APIKey))
	} else if !p.hasKey {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeMissingAPIKey,
			"OpenRouter API key is not configured", nil)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params, callOpts...)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeAIServiceFailed,
				fmt.Sprintf("OpenRouter API error: %s", upstreamDetail(apiErr)), apiErr.StatusCode, err)
		}
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeAIServiceFailed,
			fmt.Sprintf("OpenRouter API error: %v", err), 0, err)
	}

	if upstream := embeddedError(completion.RawJSON()); upstream != nil {
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeAIServiceFailed,
			fmt.Sprintf("OpenRouter API error: %s", upstream.Message), errorStatus(upstream, http.StatusOK), nil)
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeEmptyReply,
			"OpenRouter returned an empty reply", 0, nil)
	}

	reply := &Reply{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
	}
	if reply.Model == "" {
		reply.Model = req.Model
	}
	if completion.Usage.TotalTokens > 0 {
		reply.Usage = &types.TokenUsage{
			PromptTokens:     int32(completion.Usage.PromptTokens),
			CompletionTokens: int32(completion.Usage.CompletionTokens),
			TotalTokens:      int32(completion.Usage.TotalTokens),
		}
	}
	return reply, nil
}

// upstreamDetail prefers the provider's error message over the status text
func upstreamDetail(apiErr *openai.Error) string {
	message := apiErr.Message
	if upstream := embeddedError(apiErr.RawJSON()); upstream != nil && upstream.Message != "" {
		message = upstream.Message
	}
	if message == "" {
		message = http.StatusText(apiErr.StatusCode)
	}
	return fmt.Sprintf("%d %s", apiErr.StatusCode, message)
}

// embeddedError reads an {"error": {...}} envelope from raw, if present
func embeddedError(raw string) *upstreamError {
	if raw == "" {
		return nil
	}
	var envelope struct {
		Error *upstreamError `json:"error"`
	}
	if json.Unmarshal([]byte(raw), &envelope) != nil {
		return nil
	}
	return envelope.Error
}

// errorStatus reads the numeric code OpenRouter embeds in its error envelope
func errorStatus(e *upstreamError, fallback int) int {
	if code, ok := e.Code.(float64); ok && code >= 400 && code < 600 {
		return int(code)
	}
	return fallback
}
