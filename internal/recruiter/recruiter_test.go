package recruiter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"recruitagent/internal/ai"
	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu          sync.Mutex
	reply       string
	err         error
	prompts     []string
	modelChecks int
}

func (p *stubProvider) Complete(_ context.Context, _, userPrompt string) (*ai.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, userPrompt)
	if p.err != nil {
		return nil, p.err
	}
	return &ai.Completion{Text: p.reply, Usage: &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func (p *stubProvider) GetModelInfo(context.Context) *ai.ModelInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelChecks++
	return &ai.ModelInfo{Name: "stub", Provider: "stub", Available: true}
}

func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *stubProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

func newTestService(t *testing.T, provider ai.Provider) *Service {
	t.Helper()
	svc, err := New(Services{
		Analyze:   ai.NewServiceWithProvider(provider, ai.TaskAnalyze, nil),
		Questions: ai.NewServiceWithProvider(provider, ai.TaskQuestions, nil),
		Improve:   ai.NewServiceWithProvider(provider, ai.TaskImprove, nil),
		Answer:    ai.NewServiceWithProvider(provider, ai.TaskAnswer, nil),
	}, nil, nil)
	require.NoError(t, err)
	return svc
}

func readySession() *session.Session {
	sess := &session.Session{ID: "s1"}
	sess.SetResume("jane.pdf", "Jane Doe. Go developer with six years of Go and Kubernetes.")
	sess.SetJobDescription("Senior Go engineer, Kubernetes experience required.")
	return sess
}

const analysisReply = "Here is the evaluation you asked for:\n" +
	`{"ats_score": 88, "matching_skills": [{"skill": "Go", "rating": 5, "comment": "Six years"}, "Kubernetes"],` +
	` "missing_skills": ["Terraform"], "assessment": "Strong fit.", "recommendation": "Selected"}` +
	"\nLet me know if you need more."

func TestAnalyzeStoresResult(t *testing.T) {
	provider := &stubProvider{reply: analysisReply}
	svc := newTestService(t, provider)
	sess := readySession()

	result, err := svc.Analyze(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, 88, result.ATSScore)
	assert.Equal(t, types.RecommendationSelected, result.Recommendation)
	assert.Equal(t, []string{"Terraform"}, result.Missing())
	require.NotNil(t, sess.ATSScore)
	assert.Equal(t, 88, *sess.ATSScore)
	assert.Same(t, result, sess.Analysis)
	assert.Contains(t, provider.lastPrompt(), "Jane Doe")
}

func TestPreconditions(t *testing.T) {
	provider := &stubProvider{reply: "unused"}
	svc := newTestService(t, provider)
	ctx := context.Background()

	empty := &session.Session{ID: "empty"}
	resumeOnly := &session.Session{ID: "resume-only"}
	resumeOnly.SetResume("cv.txt", "some resume")

	tests := []struct {
		name    string
		run     func() error
		message string
	}{
		{"analyze without job description", func() error {
			_, err := svc.Analyze(ctx, resumeOnly)
			return err
		}, MsgNeedResumeAndJob},
		{"questions without resume", func() error {
			_, err := svc.GenerateQuestions(ctx, empty, types.QuestionOptions{})
			return err
		}, MsgNeedResumeAndJob},
		{"improve without job description", func() error {
			_, err := svc.Improve(ctx, resumeOnly)
			return err
		}, MsgNeedResumeAndJob},
		{"answer without resume", func() error {
			_, err := svc.Answer(ctx, empty, "What languages?")
			return err
		}, MsgNeedResume},
		{"answer with blank question", func() error {
			_, err := svc.Answer(ctx, resumeOnly, "   ")
			return err
		}, MsgNeedQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeValidation))
			appErr, ok := agentErrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
	assert.Zero(t, provider.calls())
}

func TestAPIFailureLeavesStoredSessionUnchanged(t *testing.T) {
	provider := &stubProvider{reply: analysisReply}
	svc := newTestService(t, provider)

	store := session.NewStore(0, nil)
	defer store.Close()
	created := store.Create()

	ctx := context.Background()
	_, err := store.Update(created.ID, func(sess *session.Session) error {
		sess.SetResume("cv.txt", "Go developer")
		sess.SetJobDescription("Go role")
		if _, err := svc.Analyze(ctx, sess); err != nil {
			return err
		}
		_, err := svc.Improve(ctx, sess)
		return err
	})
	require.NoError(t, err)

	before, err := store.Get(created.ID)
	require.NoError(t, err)
	require.NotNil(t, before.Analysis)
	require.True(t, before.HasImprovedResume())

	cause := errors.New("dial tcp: connection refused")
	provider.mu.Lock()
	provider.err = agentErrors.NewAPIError("groq", 0, "request to groq failed", cause)
	provider.mu.Unlock()

	_, err = store.Update(created.ID, func(sess *session.Session) error {
		_, err := svc.Analyze(ctx, sess)
		return err
	})
	var apiErr *agentErrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, cause)

	_, err = store.Update(created.ID, func(sess *session.Session) error {
		_, err := svc.Improve(ctx, sess)
		return err
	})
	require.ErrorAs(t, err, &apiErr)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Analysis, got.Analysis)
	require.NotNil(t, got.ATSScore)
	assert.Equal(t, 88, *got.ATSScore)
	assert.Equal(t, before.ImprovedResume, got.ImprovedResume)
	assert.Equal(t, "Go developer", got.ResumeText)
}

func TestMalformedAnalysisIsResponseFormatError(t *testing.T) {
	provider := &stubProvider{reply: "I could not produce JSON today."}
	svc := newTestService(t, provider)
	sess := readySession()

	_, err := svc.Analyze(context.Background(), sess)
	var formatErr *agentErrors.ResponseFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Nil(t, sess.Analysis)
}

func TestGenerateQuestions(t *testing.T) {
	provider := &stubProvider{reply: "1. Explain goroutines."}
	svc := newTestService(t, provider)
	sess := readySession()

	out, err := svc.GenerateQuestions(context.Background(), sess, types.QuestionOptions{
		Types:      []types.QuestionType{types.QuestionTechnical},
		Difficulty: types.DifficultyHard,
		Count:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Explain goroutines.", out.Questions)

	prompt := provider.lastPrompt()
	assert.Contains(t, prompt, "3")
	assert.Contains(t, prompt, "Technical")
	assert.Contains(t, prompt, "Hard")

	_, err = svc.GenerateQuestions(context.Background(), sess, types.QuestionOptions{Count: 11})
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeValidation))
}

func TestGenerateQuestionsDefaults(t *testing.T) {
	provider := &stubProvider{reply: "questions"}
	svc := newTestService(t, provider)

	out, err := svc.GenerateQuestions(context.Background(), readySession(), types.QuestionOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultQuestionOptions(), out.Options)
}

func TestImproveAndDownload(t *testing.T) {
	provider := &stubProvider{reply: "JANE DOE\nSenior Go Engineer"}
	svc := newTestService(t, provider)
	sess := readySession()

	_, err := ImprovedResume(sess)
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeNotFound))

	out, err := svc.Improve(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE\nSenior Go Engineer", out.ImprovedResume)

	text, err := ImprovedResume(sess)
	require.NoError(t, err)
	assert.Equal(t, out.ImprovedResume, text)
}

func TestAnswer(t *testing.T) {
	provider := &stubProvider{reply: "Go and Kubernetes."}
	svc := newTestService(t, provider)

	out, err := svc.Answer(context.Background(), readySession(), "  Which technologies?  ")
	require.NoError(t, err)
	assert.Equal(t, "Which technologies?", out.Question)
	assert.Equal(t, "Go and Kubernetes.", out.Answer)
	assert.Contains(t, provider.lastPrompt(), "Which technologies?")
}

func TestNewRequiresEveryService(t *testing.T) {
	provider := &stubProvider{}
	_, err := New(Services{Analyze: ai.NewServiceWithProvider(provider, ai.TaskAnalyze, nil)}, nil, nil)
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeConfig))
}

func TestModelStatus(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider)
	status := svc.ModelStatus(context.Background())

	assert.Len(t, status, 4)
	for op, info := range status {
		assert.True(t, info.Available, op)
	}
	assert.Equal(t, 1, provider.modelChecks, "a shared model is probed once")
	assert.NoError(t, svc.Close())
}

func TestModelStatusProbesEachDistinctProvider(t *testing.T) {
	shared, answer := &stubProvider{}, &stubProvider{}
	svc, err := New(Services{
		Analyze:   ai.NewServiceWithProvider(shared, ai.TaskAnalyze, nil),
		Questions: ai.NewServiceWithProvider(shared, ai.TaskQuestions, nil),
		Improve:   ai.NewServiceWithProvider(shared, ai.TaskImprove, nil),
		Answer:    ai.NewServiceWithProvider(answer, ai.TaskAnswer, nil),
	}, nil, nil)
	require.NoError(t, err)

	status := svc.ModelStatus(context.Background())
	assert.Len(t, status, 4)
	assert.Equal(t, 1, shared.modelChecks)
	assert.Equal(t, 1, answer.modelChecks)
}
