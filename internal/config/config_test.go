package config

import (
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/types"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithDefaults(t *testing.T, overrides map[string]any) (*Config, error) {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	return finishLoading(v, "")
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OPENROUTER_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "CORS_ORIGINS", "RESUMATCH_SERVER_CORSORIGINS", "RESUMATCH_SERVER_APIKEYS"} {
		t.Setenv(name, "")
	}
}

func TestDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := loadWithDefaults(t, nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenRouter, cfg.AI.Provider)
	assert.Equal(t, DefaultBaseURL, cfg.AI.BaseURL)
	assert.Equal(t, DefaultModel, cfg.AI.Model)
	assert.Equal(t, DefaultSystemPrompt, cfg.AI.SystemPrompt)
	assert.Equal(t, []string{DefaultCORSOrigin}, cfg.Server.CORSOrigins)
	assert.Positive(t, cfg.Fetch.Timeout)
	assert.False(t, cfg.AI.Evaluate.CircuitBreaker.Enabled)

	// Sampling settings stay unset so providers apply their own defaults
	assert.Nil(t, cfg.AI.Temperature)
	assert.Nil(t, cfg.AI.MaxTokens)
	evaluate := cfg.GetOperationConfig(types.OperationEvaluate)
	assert.Nil(t, evaluate.Temperature)
	assert.Nil(t, evaluate.MaxTokens)
}

func TestProviderKeyFallbacks(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := loadWithDefaults(t, map[string]any{
		"ai.jobSummary.provider": ProviderGemini,
		"ai.jobSummary.model":    "gemini-2.0-flash",
	})
	require.NoError(t, err)

	assert.Equal(t, "or-key", cfg.AI.APIKey)
	assert.Equal(t, "or-key", cfg.GetOperationConfig(types.OperationEvaluate).APIKey)

	summary := cfg.GetOperationConfig(types.OperationJobSummary)
	assert.Equal(t, ProviderGemini, summary.Provider)
	assert.Equal(t, "gem-key", summary.APIKey)
	assert.Empty(t, summary.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", summary.Model)
}

func TestCORSOriginsFromEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("CORS_ORIGINS", " https://app.example.com, ,http://localhost:3000 ")

	cfg, err := loadWithDefaults(t, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestGetOperationConfigOverrides(t *testing.T) {
	temperature := float32(0.4)
	maxTokens := 512
	cfg := &Config{AI: AIConfig{
		Provider:     ProviderOpenRouter,
		BaseURL:      DefaultBaseURL,
		Model:        "global-model",
		APIKey:       "global-key",
		SystemPrompt: "global system",
		MaxTokens:    &maxTokens,
		Evaluate: OperationAIConfig{
			Model:       "evaluate-model",
			Temperature: &temperature,
		},
	}}

	evaluate := cfg.GetOperationConfig(types.OperationEvaluate)
	assert.Equal(t, "evaluate-model", evaluate.Model)
	assert.Equal(t, "global-key", evaluate.APIKey)
	assert.Equal(t, DefaultBaseURL, evaluate.BaseURL)
	assert.Equal(t, float32(0.4), *evaluate.Temperature)
	assert.Equal(t, 512, *evaluate.MaxTokens)

	analyze := cfg.GetOperationConfig(types.OperationAnalyzeResume)
	assert.Equal(t, "global-model", analyze.Model)
	assert.Equal(t, "global system", analyze.SystemPrompt)
	assert.Nil(t, analyze.Temperature)
	assert.Equal(t, 512, *analyze.MaxTokens)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		errorMsg  string
	}{
		{
			name:      "unknown provider",
			overrides: map[string]any{"ai.provider": "bedrock", "ai.apiKey": "k"},
			errorMsg:  "unsupported AI provider",
		},
		{
			name:      "missing key without request keys",
			overrides: map[string]any{"ai.allowRequestKeys": false},
			errorMsg:  "AI API key is required",
		},
		{
			name:      "non-positive fetch timeout",
			overrides: map[string]any{"fetch.timeout": "0s"},
			errorMsg:  "fetch timeout must be positive",
		},
		{
			name:      "zero truncation limit",
			overrides: map[string]any{"prompt.maxCoverLetterChars": 0},
			errorMsg:  "truncation limits must be positive",
		},
		{
			name:      "server TLS without certificate",
			overrides: map[string]any{"server.tls.mode": "server"},
			errorMsg:  "TLS certificate and key are required",
		},
		{
			name:      "invalid TLS mode",
			overrides: map[string]any{"server.tls.mode": "strict"},
			errorMsg:  "invalid TLS mode",
		},
		{
			name: "mutual TLS without CA",
			overrides: map[string]any{
				"server.tls.mode":     "mutual",
				"server.tls.certFile": "/tls/cert.pem",
				"server.tls.keyFile":  "/tls/key.pem",
			},
			errorMsg: "CA certificate is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			_, err := loadWithDefaults(t, tt.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoadPromptFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evaluate.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("\n  Resume: {{.Resume}}\n"), 0o600))

	cfg := &Config{}
	cfg.Prompt.Templates.Evaluate = "inline"
	cfg.Prompt.Templates.EvaluateFile = path

	require.NoError(t, cfg.LoadPromptFiles())
	assert.Equal(t, "Resume: {{.Resume}}", cfg.Prompt.Templates.Get(types.OperationEvaluate))

	empty := filepath.Join(dir, "empty.tmpl")
	require.NoError(t, os.WriteFile(empty, []byte("   "), 0o600))
	cfg.Prompt.Templates.JobSummaryFile = empty
	assert.ErrorContains(t, cfg.LoadPromptFiles(), "is empty")

	cfg.Prompt.Templates.JobSummaryFile = filepath.Join(dir, "missing.tmpl")
	assert.ErrorContains(t, cfg.LoadPromptFiles(), "prompt file not found")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b,, "))
	assert.Empty(t, SplitList(""))
}
