package ai

import "context"

// Provider sends one system and one user message to a chat model and
// returns the first completion. Implementations are safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Completion is the text of a model reply and the tokens it used.
type Completion struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
