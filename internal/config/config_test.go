package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "RECRUITAGENT_AI_APIKEY", "RECRUITAGENT_SERVER_APIKEYS"} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigFileDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := LoadConfigFile(writeConfig(t, "app:\n  logLevel: info\n"))
	require.NoError(t, err)

	assert.Equal(t, ProviderGroq, cfg.AI.Provider)
	assert.Equal(t, DefaultGroqModel, cfg.AI.Model)
	assert.Equal(t, DefaultGroqBaseURL, cfg.AI.BaseURL)
	assert.Zero(t, cfg.AI.MaxRetries)
	assert.Zero(t, cfg.AI.Timeout)
	assert.Equal(t, "disabled", cfg.Server.TLS.Mode)
	assert.Equal(t, 2*time.Hour, cfg.App.SessionTTL)
	assert.Equal(t, "improved_resume.txt", cfg.App.ImprovedResumeOut)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestOperationConfigInheritsGlobal(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := LoadConfigFile(writeConfig(t, `
ai:
  apiKey: gsk-global
  maxRetries: 1
`))
	require.NoError(t, err)

	analyze := cfg.GetAnalyzeConfig()
	assert.Equal(t, ProviderGroq, analyze.Provider)
	assert.Equal(t, DefaultGroqModel, analyze.Model)
	assert.Equal(t, "gsk-global", analyze.APIKey)
	require.NotNil(t, analyze.Temperature)
	assert.InDelta(t, 0.2, *analyze.Temperature, 0.0001)
	require.NotNil(t, analyze.MaxRetries)
	assert.Equal(t, 1, *analyze.MaxRetries)

	improve := cfg.GetImproveConfig()
	require.NotNil(t, improve.Timeout)
	assert.Equal(t, 90*time.Second, *improve.Timeout)

	questions := cfg.GetQuestionsConfig()
	require.NotNil(t, questions.Temperature)
	assert.InDelta(t, 0.7, *questions.Temperature, 0.0001)
	assert.True(t, questions.CircuitBreaker.Enabled)
}

func TestOperationProviderOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := LoadConfigFile(writeConfig(t, `
ai:
  apiKey: gsk-global
  model: llama3-70b-8192
  answer:
    provider: openai
`))
	require.NoError(t, err)

	answer := cfg.GetAnswerConfig()
	assert.Equal(t, ProviderOpenAI, answer.Provider)
	assert.Equal(t, DefaultOpenAIModel, answer.Model)
	assert.Equal(t, DefaultOpenAIBaseURL, answer.BaseURL)
	assert.Equal(t, "sk-openai", answer.APIKey)

	analyze := cfg.GetAnalyzeConfig()
	assert.Equal(t, "llama3-70b-8192", analyze.Model)
	assert.Equal(t, "gsk-global", analyze.APIKey)
}

func TestProviderKeyFromEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")

	cfg, err := LoadConfigFile(writeConfig(t, "app:\n  logLevel: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "gsk-env", cfg.AI.APIKey)
}

func TestLoadConfigFileRejectsInvalidValues(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown provider", "ai:\n  provider: cohere\n"},
		{"unknown operation provider", "ai:\n  improve:\n    provider: cohere\n"},
		{"negative retries", "ai:\n  maxRetries: -1\n"},
		{"negative timeout", "ai:\n  timeout: -5s\n"},
		{"unsupported default format", "app:\n  defaultFormat: yaml\n"},
		{"bad tls mode", "server:\n  tls:\n    mode: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetOperationConfigUnknown(t *testing.T) {
	cfg := &Config{AI: AIConfig{Provider: ProviderGroq}}
	_, err := cfg.GetOperationConfig("summarize")
	assert.Error(t, err)
}

func TestSplitKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitKeys(" a, ,b ,"))
	assert.Nil(t, splitKeys(""))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "gsk_****wxyz", MaskSecret("gsk_abcdefwxyz"))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "", MaskSecret(""))
}
