package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client     *genai.Client
	httpClient *http.Client
	config     *config.OperationAIConfig
	logger     *resumatchErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for an operation
func NewGeminiProvider(ctx context.Context, cfg *config.OperationAIConfig, logger *resumatchErrors.Logger) (*GeminiProvider, error) {
	g := &GeminiProvider{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		config:     cfg,
		logger:     logger,
	}

	if cfg.APIKey != "" {
		client, err := g.newClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		g.client = client
	}
	return g, nil
}

func (g *GeminiProvider) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: g.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}
	return client, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string { return config.ProviderGemini }

// Close implements Provider
func (g *GeminiProvider) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// Complete implements Provider
func (g *GeminiProvider) Complete(ctx context.Context, req Request) (*Reply, error) {
	client := g.client
	if req.APIKey != "" && req.APIKey != g.config.APIKey {
		perRequest, err := g.newClient(ctx, req.APIKey)
		if err != nil {
			return nil, err
		}
		client = perRequest
	}
	if client == nil {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	genaiConfig := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		genaiConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), genaiConfig)
	if err != nil {
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeAIServiceFailed,
			fmt.Sprintf("Gemini API error: %v", err), geminiStatus(err), err)
	}

	text := result.Text()
	if text == "" {
		return nil, resumatchErrors.NewModelCallError(resumatchErrors.ErrCodeEmptyReply,
			"Gemini returned an empty reply", 0, nil)
	}

	reply := &Reply{Text: text, Model: req.Model, Usage: extractTokenUsage(result)}
	if result.ModelVersion != "" {
		reply.Model = result.ModelVersion
	}
	return reply, nil
}

// geminiStatus extracts the HTTP status carried by Gemini client errors
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return googleErr.Code
	}
	return 0
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &types.TokenUsage{
		PromptTokens:     usage.PromptTokenCount,
		CompletionTokens: usage.CandidatesTokenCount,
		TotalTokens:      usage.TotalTokenCount,
	}
}
