package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxResponseBytes = 8 << 20

// ChatProvider talks to any OpenAI-compatible chat-completion API. Groq is
// the default endpoint.
type ChatProvider struct {
	name           string
	operation      string
	baseURL        string
	httpClient     *http.Client
	config         *config.OperationAIConfig
	retry          retryPolicy
	circuitBreaker *Breaker[*Completion]
	modelBreaker   *Breaker[*ModelInfo]
	logger         *agentErrors.Logger
}

var _ Provider = (*ChatProvider)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewChatProvider creates a provider for one operation. cfg must have been
// resolved through config.GetOperationConfig so every pointer field is set.
func NewChatProvider(cfg *config.OperationAIConfig, operationType string, logger *agentErrors.Logger) (*ChatProvider, error) {
	if logger == nil {
		logger = agentErrors.Nop()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURLFor(cfg.Provider)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, agentErrors.NewConfigError(agentErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid base URL for %s: %q", cfg.Provider, baseURL), err)
	}

	return &ChatProvider{
		name:      cfg.Provider,
		operation: operationType,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:         cfg,
		retry:          retryPolicy{maxRetries: *cfg.MaxRetries, baseDelay: defaultBaseDelay, logger: logger},
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg),
		logger:         logger,
	}, nil
}

// Complete implements Provider. An empty systemPrompt sends DefaultSystemPrompt.
func (c *ChatProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	tracer := otel.Tracer("recruitagent.ai.chat")
	ctx, span := tracer.Start(ctx, "chat."+c.operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", c.name),
		attribute.String("ai.model", c.config.Model),
		attribute.Float64("ai.temperature", float64(*c.config.Temperature)),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   *c.config.MaxTokens,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, agentErrors.NewInternalError(agentErrors.ErrCodeInternal, "failed to encode chat request", err)
	}

	result, err := c.circuitBreaker.Execute(func() (*Completion, error) {
		return executeWithRetry(ctx, c.retry, c.operation, func() (*Completion, error) {
			return c.send(ctx, payload)
		})
	})
	if err != nil {
		err = c.asAPIError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	if result.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", result.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("output.length", len(result.Text)))
	return result, nil
}

// send performs one HTTP round trip.
func (c *ChatProvider) send(ctx context.Context, payload []byte) (*Completion, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, agentErrors.NewAPIError(c.name, 0, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, agentErrors.NewAPIError(c.name, 0, "request to chat completion API failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, agentErrors.NewAPIError(c.name, resp.StatusCode, "failed to read response body", err)
	}

	c.logger.Debug("Chat completion response received",
		"provider", c.name,
		"operation", c.operation,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, agentErrors.NewAPIError(c.name, resp.StatusCode, errorMessage(resp.StatusCode, body), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, agentErrors.NewAPIError(c.name, resp.StatusCode, "response body is not valid JSON", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, agentErrors.NewAPIError(c.name, resp.StatusCode, "response contained no choices", nil)
	}

	completion := &Completion{Text: decoded.Choices[0].Message.Content}
	if u := decoded.Usage; u != nil {
		completion.Usage = &TokenUsage{
			InputTokens:  u.PromptTokens,
			OutputTokens: u.CompletionTokens,
			TotalTokens:  u.TotalTokens,
		}
	}
	return completion, nil
}

func errorMessage(status int, body []byte) string {
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("chat completion API returned %d: %s", status, errResp.Error.Message)
	}
	return fmt.Sprintf("chat completion API returned %d %s", status, http.StatusText(status))
}

// asAPIError makes every failure leaving Complete an *APIError.
func (c *ChatProvider) asAPIError(err error) error {
	var apiErr *agentErrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if isBreakerRejection(err) {
		return agentErrors.NewAPIError(c.name, http.StatusServiceUnavailable, "circuit breaker is open for "+c.operation, err)
	}
	return agentErrors.NewAPIError(c.name, 0, "chat completion failed", err)
}

type modelResponse struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// GetModelInfo checks that the configured model is served by the endpoint.
func (c *ChatProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: c.config.Model, Provider: c.name}

	fetched, err := c.modelBreaker.Execute(func() (*ModelInfo, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models/"+url.PathEscape(c.config.Model), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if resp.StatusCode != http.StatusOK {
			return nil, errors.New(errorMessage(resp.StatusCode, body))
		}
		var model modelResponse
		if err := json.Unmarshal(body, &model); err != nil {
			return nil, fmt.Errorf("invalid model response: %w", err)
		}
		return &ModelInfo{DisplayName: model.ID, Version: model.OwnedBy}, nil
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		c.logger.Warn("Model availability check failed",
			"model", c.config.Model,
			"provider", c.name,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = fetched.DisplayName
	info.Version = fetched.Version
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (c *ChatProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":   c.circuitBreaker.GetStats(),
		"overall_healthy": c.circuitBreaker.IsHealthy() && c.modelBreaker.IsHealthy(),
	}
}

// Close releases idle connections.
func (c *ChatProvider) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
