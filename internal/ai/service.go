package ai

import (
	"context"
	"fmt"
	"text/template"
	"time"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"
)

// Service runs one task kind: it renders the prompt, calls the provider and
// returns the raw completion.
type Service struct {
	Provider     Provider
	target       string
	kind         TaskKind
	systemPrompt string
	userTemplate *template.Template
	logger       *agentErrors.Logger
}

// NewService creates the AI service for one operation from its resolved configuration
func NewService(cfg *config.OperationAIConfig, operationType string, logger *agentErrors.Logger) (*Service, error) {
	if logger == nil {
		logger = agentErrors.Nop()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	if cfg.APIKey == "" {
		return nil, agentErrors.NewConfigError(agentErrors.ErrCodeMissingAPIKey,
			fmt.Sprintf("no API key configured for provider %s (set ai.apiKey or %s)", cfg.Provider, providerKeyHint(cfg.Provider)), nil)
	}

	var provider Provider
	var err error
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		provider, err = NewChatProvider(cfg, operationType, logger)
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, agentErrors.NewConfigError(agentErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, agentErrors.NewAIError(agentErrors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	kind := TaskKind(operationType)
	systemPrompt := resolvePrompt(cfg.Loaded.System, cfg.CustomPrompts.System, DefaultSystemPrompt)

	var userTemplate *template.Template
	if text := resolvePrompt(cfg.Loaded.User, cfg.CustomPrompts.User, ""); text != "" {
		userTemplate, err = ParseUserTemplate(kind, text)
		if err != nil {
			return nil, agentErrors.NewConfigError(agentErrors.ErrCodeInvalidConfig, "invalid custom prompt", err)
		}
	}

	return &Service{
		Provider:     provider,
		target:       cfg.Provider + "|" + cfg.BaseURL + "|" + cfg.Model,
		kind:         kind,
		systemPrompt: systemPrompt,
		userTemplate: userTemplate,
		logger:       logger,
	}, nil
}

// NewServiceWithProvider wires a ready provider with the built-in prompts.
func NewServiceWithProvider(provider Provider, kind TaskKind, logger *agentErrors.Logger) *Service {
	if logger == nil {
		logger = agentErrors.Nop()
	}
	return &Service{
		Provider:     provider,
		kind:         kind,
		systemPrompt: DefaultSystemPrompt,
		logger:       logger,
	}
}

// Kind returns the task kind the service was built for.
func (s *Service) Kind() TaskKind {
	return s.kind
}

// Prompt renders the user prompt for in.
func (s *Service) Prompt(in PromptInput) (string, error) {
	if s.userTemplate != nil {
		return RenderUserTemplate(s.userTemplate, in)
	}
	return Build(s.kind, in)
}

// Complete renders the prompt and sends it to the provider.
func (s *Service) Complete(ctx context.Context, in PromptInput) (*Completion, error) {
	prompt, err := s.Prompt(in)
	if err != nil {
		return nil, agentErrors.NewInternalError(agentErrors.ErrCodeInternal, "failed to build prompt", err)
	}

	start := time.Now()
	completion, err := s.Provider.Complete(ctx, s.systemPrompt, prompt)
	if err != nil {
		s.logger.LogError(err, "AI completion failed", "operation", string(s.kind))
		return nil, err
	}

	s.logger.Debug("AI completion succeeded",
		"operation", string(s.kind),
		"reply_length", len(completion.Text),
		"duration_ms", time.Since(start).Milliseconds())
	return completion, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// ModelKey identifies the model endpoint behind the service. Services with
// the same key share model availability.
func (s *Service) ModelKey() string {
	if s.target != "" {
		return s.target
	}
	return fmt.Sprintf("%p", s.Provider)
}

// Close releases the provider.
func (s *Service) Close() error {
	return s.Provider.Close()
}

func providerKeyHint(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case config.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}
