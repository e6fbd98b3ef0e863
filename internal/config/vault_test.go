package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	agentErrors "recruitagent/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "float64", input: float64(7), expected: 7},
		{name: "string", input: "12", expected: 12},
		{name: "json number", input: json.Number("5"), expected: 5},
		{name: "bad string", input: "v1", expectError: true},
		{name: "missing", input: nil, expectError: true},
		{name: "unsupported", input: []string{"1"}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplyAIKeyToConfig(t *testing.T) {
	cfg := &Config{AI: AIConfig{Answer: OperationAIConfig{APIKey: "sk-answer"}}}

	applyAIKeyToConfig(cfg, "gsk-vault")

	assert.Equal(t, "gsk-vault", cfg.AI.APIKey)
	assert.Equal(t, "gsk-vault", cfg.AI.Analyze.APIKey)
	assert.Equal(t, "gsk-vault", cfg.AI.Questions.APIKey)
	assert.Equal(t, "gsk-vault", cfg.AI.Improve.APIKey)
	assert.Equal(t, "sk-answer", cfg.AI.Answer.APIKey)
}

// fakeVault serves the health endpoint and a fixed set of KVv2 secrets.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true, "sealed": false, "standby": false, "version": "1.15.0",
			})
			return
		}
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/recruitagent/server": {"keys": "key-one, key-two"},
		"secret/data/recruitagent/ai":     {"api_key": "gsk-from-vault"},
		"secret/data/recruitagent/tls":    {"cert": "CERT PEM", "key": "KEY PEM"},
	})
	defer srv.Close()

	cfg := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				APIKeys:  "secret/data/recruitagent/server",
				AIKey:    "secret/data/recruitagent/ai",
				TLSCerts: "secret/data/recruitagent/tls",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, agentErrors.Nop()))

	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Server.APIKeys)
	assert.Equal(t, "gsk-from-vault", cfg.AI.APIKey)
	assert.Equal(t, "gsk-from-vault", cfg.AI.Improve.APIKey)
	assert.Equal(t, "CERT PEM", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY PEM", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, nil)
	defer srv.Close()

	cfg := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{AIKey: "secret/data/recruitagent/ai"},
		},
	}

	err := ApplyVaultSecrets(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI provider key")
}

func TestVaultDisabledIsNoop(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ApplyVaultSecrets(cfg, nil))

	client, err := NewVaultClient(VaultConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestVaultRequiresToken(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "")
	_, err := NewVaultClient(VaultConfig{Enabled: true, Address: "http://127.0.0.1:1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}
