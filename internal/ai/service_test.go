package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceAnalyzeEndToEnd(t *testing.T) {
	const reply = "Sure! Here is my evaluation.\n" +
		`{"ats_score": 88, "matching_skills": [{"skill": "Go", "rating": 5, "comment": "Six years of Go"}],` +
		` "missing_skills": [], "assessment": "Excellent match.", "recommendation": "Selected"}`

	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[1].Content
		writeCompletion(w, reply)
	}))
	defer srv.Close()

	cfg := testOperationConfig(srv.URL, 0)
	svc, err := NewService(cfg, config.OperationAnalyze, nil)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	in := PromptInput{
		ResumeText:     "Jane Doe. Go developer with six years of Go, gRPC and PostgreSQL.",
		JobDescription: "We need a senior Go engineer.",
	}
	completion, err := svc.Complete(context.Background(), in)
	require.NoError(t, err)

	result, err := InterpretAnalysis(completion.Text)
	require.NoError(t, err)
	assert.Equal(t, 88, result.ATSScore)
	assert.Equal(t, types.RecommendationSelected, result.Recommendation)
	assert.True(t, result.RecommendationConsistent())
	assert.Empty(t, result.Missing())

	assert.Equal(t, BuildAnalyzePrompt(in.ResumeText, in.JobDescription), prompt)
}

func TestServiceCustomPrompts(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "answer")
	}))
	defer srv.Close()

	cfg := testOperationConfig(srv.URL, 0)
	cfg.CustomPrompts.System = "inline system"
	cfg.Loaded = config.LoadedPrompts{User: "Q: {{.Question}}"}

	svc, err := NewService(cfg, config.OperationAnswer, nil)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), PromptInput{ResumeText: "r", Question: "Where did she study?"})
	require.NoError(t, err)
	assert.Equal(t, "inline system", got.Messages[0].Content)
	assert.Equal(t, "Q: Where did she study?", got.Messages[1].Content)
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	cfg := testOperationConfig("https://api.groq.com/openai/v1", 0)
	cfg.APIKey = ""

	_, err := NewService(cfg, config.OperationAnalyze, nil)
	appErr, ok := agentErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, agentErrors.ErrCodeMissingAPIKey, appErr.Code)
	assert.Contains(t, appErr.Message, "GROQ_API_KEY")
}

func TestNewServiceProviders(t *testing.T) {
	cfg := testOperationConfig("", 0)
	cfg.Provider = "cohere"
	_, err := NewService(cfg, config.OperationImprove, nil)
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeConfig))

	cfg = testOperationConfig("", 0)
	cfg.Provider = config.ProviderOpenAI
	svc, err := NewService(cfg, config.OperationImprove, nil)
	require.NoError(t, err)
	chat, ok := svc.Provider.(*ChatProvider)
	require.True(t, ok)
	assert.Equal(t, config.DefaultOpenAIBaseURL, chat.baseURL)

	cfg = testOperationConfig("", 0)
	cfg.Provider = config.ProviderGemini
	cfg.Model = config.DefaultGeminiModel
	svc, err = NewService(cfg, config.OperationQuestions, nil)
	require.NoError(t, err)
	assert.IsType(t, &GeminiProvider{}, svc.Provider)
	assert.Equal(t, TaskQuestions, svc.Kind())
}

func TestNewServiceRejectsBrokenTemplate(t *testing.T) {
	cfg := testOperationConfig("https://api.groq.com/openai/v1", 0)
	cfg.CustomPrompts.User = "{{.ResumeText"
	_, err := NewService(cfg, config.OperationImprove, nil)
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeConfig))
}

func TestServiceModelKey(t *testing.T) {
	analyze, err := NewService(testOperationConfig("https://api.groq.com/openai/v1", 0), config.OperationAnalyze, nil)
	require.NoError(t, err)
	improve, err := NewService(testOperationConfig("https://api.groq.com/openai/v1", 0), config.OperationImprove, nil)
	require.NoError(t, err)
	assert.Equal(t, analyze.ModelKey(), improve.ModelKey())

	other := testOperationConfig("https://api.groq.com/openai/v1", 0)
	other.Model = "llama-3.1-8b-instant"
	answer, err := NewService(other, config.OperationAnswer, nil)
	require.NoError(t, err)
	assert.NotEqual(t, analyze.ModelKey(), answer.ModelKey())

	first := NewServiceWithProvider(newTestChatProvider(t, "http://127.0.0.1:1", 0), TaskAnalyze, nil)
	second := NewServiceWithProvider(newTestChatProvider(t, "http://127.0.0.1:1", 0), TaskAnalyze, nil)
	assert.NotEqual(t, first.ModelKey(), second.ModelKey())
}
