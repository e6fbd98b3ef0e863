package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	operation      string
	config         *config.OperationAIConfig
	retry          retryPolicy
	circuitBreaker *Breaker[*Completion]
	modelBreaker   *Breaker[*ModelInfo]
	logger         *agentErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *agentErrors.Logger) (*GeminiProvider, error) {
	if logger == nil {
		logger = agentErrors.Nop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, agentErrors.NewAIError(agentErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		operation:      operationType,
		config:         cfg,
		retry:          retryPolicy{maxRetries: *cfg.MaxRetries, baseDelay: defaultBaseDelay, logger: logger},
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg),
		logger:         logger,
	}, nil
}

// Complete implements Provider.
func (g *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	tracer := otel.Tracer("recruitagent.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+g.operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if *g.config.Temperature > 0 {
		genConfig.Temperature = g.config.Temperature
	}
	if *g.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(*g.config.MaxTokens)
	}

	result, err := g.circuitBreaker.Execute(func() (*Completion, error) {
		return executeWithRetry(ctx, g.retry, g.operation, func() (*Completion, error) {
			return g.generate(ctx, userPrompt, genConfig)
		})
	})
	if err != nil {
		err = g.asAPIError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
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
	span.SetAttributes(attribute.Bool("success", true))
	return result, nil
}

func (g *GeminiProvider) generate(ctx context.Context, userPrompt string, genConfig *genai.GenerateContentConfig) (*Completion, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genConfig)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, agentErrors.NewAPIError(config.ProviderGemini, apiErr.Code, apiErr.Message, err)
		}
		return nil, agentErrors.NewAPIError(config.ProviderGemini, 0, "request to Gemini failed", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, agentErrors.NewAPIError(config.ProviderGemini, http.StatusOK, "response contained no candidates", nil)
	}
	return &Completion{Text: text, Usage: extractTokenUsage(resp)}, nil
}

func (g *GeminiProvider) asAPIError(err error) error {
	var apiErr *agentErrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if isBreakerRejection(err) {
		return agentErrors.NewAPIError(config.ProviderGemini, http.StatusServiceUnavailable, "circuit breaker is open for "+g.operation, err)
	}
	return agentErrors.NewAPIError(config.ProviderGemini, 0, "generation failed", err)
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model, Provider: config.ProviderGemini}

	fetched, err := g.modelBreaker.Execute(func() (*ModelInfo, error) {
		model, err := g.client.Models.Get(ctx, g.config.Model, &genai.GetModelConfig{})
		if err != nil {
			return nil, err
		}
		return &ModelInfo{DisplayName: model.DisplayName, Version: model.Version}, nil
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", config.ProviderGemini,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = fetched.DisplayName
	info.Version = fetched.Version
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":   g.circuitBreaker.GetStats(),
		"overall_healthy": g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider. The genai client holds no resources in
// single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}
