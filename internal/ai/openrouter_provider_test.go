package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc, apiKey string) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenRouterProvider(&config.OperationAIConfig{
		BaseURL: server.URL + "/api/v1/",
		APIKey:  apiKey,
	}, testLogger)
}

func TestOpenRouterComplete(t *testing.T) {
	var (
		gotPath  string
		gotAuth  string
		gotTitle string
		gotBody  map[string]any
	)
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "x-ai/grok-4.1-fast:free",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"JD Match\":\"70%\"}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 12, "total_tokens": 132}
		}`))
	}, "sk-configured")

	reply, err := provider.Complete(context.Background(), Request{
		Model:     "x-ai/grok-4.1-fast:free",
		System:    "You are a helpful ATS assistant.",
		Prompt:    "evaluate this",
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-configured", gotAuth)
	assert.Equal(t, "Resumatch", gotTitle)
	assert.Equal(t, "x-ai/grok-4.1-fast:free", gotBody["model"])
	assert.Equal(t, float64(256), gotBody["max_tokens"])
	assert.NotContains(t, gotBody, "temperature")

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "You are a helpful ATS assistant."}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "evaluate this"}, messages[1])

	assert.Equal(t, `{"JD Match":"70%"}`, reply.Text)
	assert.Equal(t, "x-ai/grok-4.1-fast:free", reply.Model)
	require.NotNil(t, reply.Usage)
	assert.Equal(t, int32(132), reply.Usage.TotalTokens)
}

func TestOpenRouterSendsOnlyConfiguredSampling(t *testing.T) {
	temperature := float32(0.3)
	tests := []struct {
		name            string
		req             Request
		wantTemperature bool
		wantMaxTokens   bool
	}{
		{name: "provider defaults", req: Request{Model: "m", Prompt: "p"}},
		{name: "temperature only", req: Request{Model: "m", Prompt: "p", Temperature: &temperature}, wantTemperature: true},
		{name: "max tokens only", req: Request{Model: "m", Prompt: "p", MaxTokens: 100}, wantMaxTokens: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]any
			provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{}"}}]}`))
			}, "sk-test")

			_, err := provider.Complete(context.Background(), tt.req)
			require.NoError(t, err)

			_, hasTemperature := gotBody["temperature"]
			_, hasMaxTokens := gotBody["max_tokens"]
			assert.Equal(t, tt.wantTemperature, hasTemperature)
			assert.Equal(t, tt.wantMaxTokens, hasMaxTokens)
		})
	}
}

func TestOpenRouterPerRequestKey(t *testing.T) {
	var gotAuth string
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{}"}}]}`))
	}, "")

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "sk-caller"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-caller", gotAuth)
}

func TestOpenRouterMissingKey(t *testing.T) {
	called := false
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.False(t, called)
}

func TestOpenRouterUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error": {"message": "No auth credentials found", "code": 401}}`,
			wantCode:   errors.ErrCodeAIServiceFailed,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "OpenRouter API error: 401 No auth credentials found",
		},
		{
			name:       "provider failure",
			status:     http.StatusBadGateway,
			body:       `{"error": {"message": "Provider returned error", "code": 502}}`,
			wantCode:   errors.ErrCodeAIServiceFailed,
			wantStatus: http.StatusBadGateway,
			wantDetail: "OpenRouter API error: 502 Provider returned error",
		},
		{
			name:       "error inside 200",
			status:     http.StatusOK,
			body:       `{"error": {"message": "Rate limit exceeded", "code": 429}}`,
			wantCode:   errors.ErrCodeAIServiceFailed,
			wantStatus: http.StatusTooManyRequests,
			wantDetail: "OpenRouter API error: Rate limit exceeded",
		},
		{
			name:       "no choices",
			status:     http.StatusOK,
			body:       `{"choices": []}`,
			wantCode:   errors.ErrCodeEmptyReply,
			wantStatus: 0,
			wantDetail: "OpenRouter returned an empty reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "sk-test")

			_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
			require.Error(t, err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeModelCall, appErr.Type)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.UpstreamStatus)
			assert.Equal(t, tt.wantDetail, appErr.Message)
		})
	}
}

func TestOpenRouterMakesSingleAttempt(t *testing.T) {
	attempts := 0
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, "sk-test")

	_, err := provider.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
