package config

import "fmt"

// Operation names, used as config sections, metric labels and span names.
const (
	OperationAnalyze   = "analyze"
	OperationQuestions = "questions"
	OperationImprove   = "improve"
	OperationAnswer    = "answer"
)

// Operations lists every AI operation in a stable order.
var Operations = []string{OperationAnalyze, OperationQuestions, OperationImprove, OperationAnswer}

func (c *Config) operationSection(op string) OperationAIConfig {
	switch op {
	case OperationAnalyze:
		return c.AI.Analyze
	case OperationQuestions:
		return c.AI.Questions
	case OperationImprove:
		return c.AI.Improve
	case OperationAnswer:
		return c.AI.Answer
	default:
		return OperationAIConfig{}
	}
}

// GetOperationConfig returns the AI configuration for op with every unset
// field filled from the global AI settings.
func (c *Config) GetOperationConfig(op string) (OperationAIConfig, error) {
	switch op {
	case OperationAnalyze, OperationQuestions, OperationImprove, OperationAnswer:
	default:
		return OperationAIConfig{}, fmt.Errorf("unknown AI operation: %s", op)
	}

	cfg := c.operationSection(op)
	c.applyOperationDefaults(&cfg)

	if cfg.CustomPrompts.System == "" {
		cfg.CustomPrompts.System = c.AI.CustomPrompts.System
	}
	cfg.Loaded = c.loadedPromptsFor(op)
	return cfg, nil
}

// GetAnalyzeConfig returns the AI configuration for resume analysis
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	cfg, _ := c.GetOperationConfig(OperationAnalyze)
	return cfg
}

// GetQuestionsConfig returns the AI configuration for interview question generation
func (c *Config) GetQuestionsConfig() OperationAIConfig {
	cfg, _ := c.GetOperationConfig(OperationQuestions)
	return cfg
}

// GetImproveConfig returns the AI configuration for resume improvement
func (c *Config) GetImproveConfig() OperationAIConfig {
	cfg, _ := c.GetOperationConfig(OperationImprove)
	return cfg
}

// GetAnswerConfig returns the AI configuration for resume questions
func (c *Config) GetAnswerConfig() OperationAIConfig {
	cfg, _ := c.GetOperationConfig(OperationAnswer)
	return cfg
}

// applyOperationDefaults applies global defaults to operation-specific configuration.
// Model, base URL and key are inherited only when the operation uses the
// global provider, since they are provider specific.
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	sameProvider := opCfg.Provider == "" || opCfg.Provider == c.AI.Provider
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}

	if opCfg.Model == "" {
		if sameProvider && c.AI.Model != "" {
			opCfg.Model = c.AI.Model
		} else {
			opCfg.Model = DefaultModelFor(opCfg.Provider)
		}
	}
	if opCfg.BaseURL == "" {
		if sameProvider && c.AI.BaseURL != "" {
			opCfg.BaseURL = c.AI.BaseURL
		} else {
			opCfg.BaseURL = DefaultBaseURLFor(opCfg.Provider)
		}
	}
	if opCfg.APIKey == "" {
		if sameProvider {
			opCfg.APIKey = c.AI.APIKey
		} else {
			opCfg.APIKey = apiKeyFromEnv(opCfg.Provider)
		}
	}

	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.MaxTokens == nil {
		maxTokens := c.AI.MaxTokens
		opCfg.MaxTokens = &maxTokens
	}
}
