package config

import (
	"fmt"
	"log/slog"
	"testing"

	"resumatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretReader struct {
	secrets map[string]*VaultSecret
}

func (f *fakeSecretReader) GetSecretV2(path string) (*VaultSecret, error) {
	if secret, ok := f.secrets[path]; ok {
		return secret, nil
	}
	return nil, fmt.Errorf("secret not found at path: %s", path)
}

func (f *fakeSecretReader) GetStringSliceSecret(path, key string) ([]string, error) {
	secret, err := f.GetSecretV2(path)
	if err != nil {
		return nil, err
	}
	value, err := stringField(secret, path, key)
	if err != nil {
		return nil, err
	}
	return SplitList(value), nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(3), expected: 3},
		{name: "float64 from JSON", input: float64(7), expected: 7},
		{name: "numeric string", input: "12", expected: 12},
		{name: "non-numeric string", input: "v2", expectError: true},
		{name: "unsupported type", input: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, version)
		})
	}
}

func TestParseKVv2Secret(t *testing.T) {
	raw := map[string]any{
		"data":     map[string]any{"api_key": "sk-or-123"},
		"metadata": map[string]any{"version": float64(4)},
	}

	secret, err := parseKVv2Secret(raw, "secret/data/openrouter")
	require.NoError(t, err)
	assert.Equal(t, int64(4), secret.Version)
	assert.Equal(t, "sk-or-123", secret.Data["api_key"])

	_, err = parseKVv2Secret(map[string]any{"api_key": "flat"}, "secret/openrouter")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

func TestApplySecrets(t *testing.T) {
	reader := &fakeSecretReader{secrets: map[string]*VaultSecret{
		"secret/data/server":   {Data: map[string]any{"keys": "alpha, beta,,"}, Version: 1},
		"secret/data/provider": {Data: map[string]any{"api_key": "vault-key"}, Version: 2},
		"secret/data/tls":      {Data: map[string]any{"cert": "CERT", "key": "KEY"}, Version: 1},
	}}

	cfg := &Config{}
	cfg.AI.AnalyzeResume.APIKey = "explicit-key"
	cfg.Server.TLS.CertFile = "/etc/old.pem"
	cfg.Vault.Secrets = VaultSecrets{
		APIKeys:     "secret/data/server",
		ProviderKey: "secret/data/provider",
		TLSCerts:    "secret/data/tls",
	}

	logger := errors.NewLogger(slog.LevelError)
	require.NoError(t, applySecrets(reader, cfg, logger))

	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "vault-key", cfg.AI.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Evaluate.APIKey)
	assert.Equal(t, "explicit-key", cfg.AI.AnalyzeResume.APIKey)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CertFile)
}

func TestApplySecretsMissingKey(t *testing.T) {
	reader := &fakeSecretReader{secrets: map[string]*VaultSecret{
		"secret/data/provider": {Data: map[string]any{"token": "x"}, Version: 1},
	}}
	cfg := &Config{}
	cfg.Vault.Secrets.ProviderKey = "secret/data/provider"

	err := applySecrets(reader, cfg, errors.NewLogger(slog.LevelError))
	assert.ErrorContains(t, err, "key 'api_key' not found")
}
