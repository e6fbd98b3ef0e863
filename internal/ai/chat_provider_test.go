package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOperationConfig(baseURL string, maxRetries int) *config.OperationAIConfig {
	timeout := 5 * time.Second
	temperature := float32(0.2)
	maxTokens := 512
	return &config.OperationAIConfig{
		Provider:    config.ProviderGroq,
		BaseURL:     baseURL,
		Model:       config.DefaultGroqModel,
		APIKey:      "gsk-test",
		Timeout:     &timeout,
		MaxRetries:  &maxRetries,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
}

func newTestChatProvider(t *testing.T, baseURL string, maxRetries int) *ChatProvider {
	t.Helper()
	p, err := NewChatProvider(testOperationConfig(baseURL, maxRetries), "analyze", nil)
	require.NoError(t, err)
	p.retry.baseDelay = time.Millisecond
	return p
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
	})
}

func TestChatProviderComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "hello from the model")
	}))
	defer srv.Close()

	p := newTestChatProvider(t, srv.URL+"/openai/v1/", 0)
	completion, err := p.Complete(context.Background(), "", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, "hello from the model", completion.Text)
	require.NotNil(t, completion.Usage)
	assert.Equal(t, int64(150), completion.Usage.TotalTokens)

	assert.Equal(t, config.DefaultGroqModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: DefaultSystemPrompt}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user prompt"}, got.Messages[1])
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 0.0001)
	assert.Equal(t, 512, got.MaxTokens)
}

func TestChatProviderFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantCalls  int32
	}{
		{
			name: "unauthorized is not retried",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": {"message": "Invalid API Key", "type": "invalid_request_error"}}`))
			},
			wantStatus: http.StatusUnauthorized,
			wantCalls:  1,
		},
		{
			name: "server errors exhaust retries",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantCalls:  3,
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices": []}`))
			},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway</html>`))
			},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			p := newTestChatProvider(t, srv.URL, 2)
			_, err := p.Complete(context.Background(), "", "prompt")

			var apiErr *agentErrors.APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, config.ProviderGroq, apiErr.Provider)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestChatProviderRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCompletion(w, "second time lucky")
	}))
	defer srv.Close()

	p := newTestChatProvider(t, srv.URL, 3)
	completion, err := p.Complete(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", completion.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatProviderDefaultConfigSendsOneRequest(t *testing.T) {
	for _, name := range []string{"GROQ_API_KEY", "RECRUITAGENT_AI_APIKEY", "RECRUITAGENT_AI_MAXRETRIES", "RECRUITAGENT_AI_TIMEOUT"} {
		t.Setenv(name, "")
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "ai:\n  baseURL: " + srv.URL + "\n  apiKey: gsk-test\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	opCfg, err := cfg.GetOperationConfig(config.OperationAnalyze)
	require.NoError(t, err)

	p, err := NewChatProvider(&opCfg, config.OperationAnalyze, nil)
	require.NoError(t, err)
	assert.Zero(t, p.httpClient.Timeout)

	_, err = p.Complete(context.Background(), "", "prompt")
	var apiErr *agentErrors.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatProviderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newTestChatProvider(t, url, 0)
	_, err := p.Complete(context.Background(), "", "prompt")

	var apiErr *agentErrors.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.NotNil(t, apiErr.Cause)
}

func TestChatProviderCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testOperationConfig(srv.URL, 0)
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	p, err := NewChatProvider(cfg, "analyze", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := p.Complete(context.Background(), "", "prompt")
		require.Error(t, err)
	}
	assert.False(t, p.circuitBreaker.IsHealthy())

	_, err = p.Complete(context.Background(), "", "prompt")
	var apiErr *agentErrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the API")
}

func TestChatProviderBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testOperationConfig(srv.URL, 0)
	cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 1, FailureThreshold: 0.1}
	p, err := NewChatProvider(cfg, "answer", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = p.Complete(context.Background(), "", "prompt")
	}
	assert.True(t, p.circuitBreaker.IsHealthy())
}

func TestChatProviderGetModelInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/"+config.DefaultGroqModel {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id": "llama3-8b-8192", "owned_by": "Meta"}`))
	}))
	defer srv.Close()

	info := newTestChatProvider(t, srv.URL, 0).GetModelInfo(context.Background())
	assert.True(t, info.Available)
	assert.Equal(t, "llama3-8b-8192", info.DisplayName)
	assert.Equal(t, "Meta", info.Version)
	assert.Equal(t, config.ProviderGroq, info.Provider)

	cfg := testOperationConfig(srv.URL, 0)
	cfg.Model = "retired-model"
	p, err := NewChatProvider(cfg, "analyze", nil)
	require.NoError(t, err)
	missing := p.GetModelInfo(context.Background())
	assert.False(t, missing.Available)
	assert.Contains(t, missing.Error, "404")
}

func TestNewChatProviderRejectsBadBaseURL(t *testing.T) {
	_, err := NewChatProvider(testOperationConfig("not a url", 0), "analyze", nil)
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeConfig))
}
