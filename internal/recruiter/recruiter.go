// Package recruiter implements the four recruitment actions on a session:
// analysis, interview questions, resume improvement and resume Q&A.
package recruiter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruitagent/internal/ai"
	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/observability"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// User-facing precondition messages.
const (
	MsgNeedResumeAndJob = "Please upload a resume and enter a job description first."
	MsgNeedResume       = "Please upload a resume first."
	MsgNeedQuestion     = "Please enter a question about the resume."
	MsgNoImprovedResume = "No improved resume available. Run 'improve' first."
)

// Services holds one AI service per action.
type Services struct {
	Analyze   *ai.Service
	Questions *ai.Service
	Improve   *ai.Service
	Answer    *ai.Service
}

func (s Services) all() []*ai.Service {
	return []*ai.Service{s.Analyze, s.Questions, s.Improve, s.Answer}
}

// Service runs recruitment actions against a session. Each action reads the
// session, calls the model and writes its result back only on success.
type Service struct {
	services Services
	metrics  *observability.Metrics
	logger   *agentErrors.Logger
}

// New wires ready AI services. Every action needs its service.
func New(services Services, metrics *observability.Metrics, logger *agentErrors.Logger) (*Service, error) {
	for i, svc := range services.all() {
		if svc == nil {
			return nil, agentErrors.NewConfigError(agentErrors.ErrCodeInvalidConfig,
				fmt.Sprintf("no AI service configured for %s", config.Operations[i]), nil)
		}
	}
	if logger == nil {
		logger = agentErrors.Nop()
	}
	return &Service{services: services, metrics: metrics, logger: logger}, nil
}

// NewFromConfig builds an AI service for every operation from cfg.
func NewFromConfig(cfg *config.Config, metrics *observability.Metrics, logger *agentErrors.Logger) (*Service, error) {
	built := make(map[string]*ai.Service, len(config.Operations))
	closeBuilt := func() {
		for _, svc := range built {
			_ = svc.Close()
		}
	}

	for _, op := range config.Operations {
		opCfg, err := cfg.GetOperationConfig(op)
		if err != nil {
			closeBuilt()
			return nil, agentErrors.NewConfigError(agentErrors.ErrCodeInvalidConfig, "invalid AI configuration", err)
		}
		svc, err := ai.NewService(&opCfg, op, logger)
		if err != nil {
			closeBuilt()
			return nil, err
		}
		built[op] = svc
	}

	return New(Services{
		Analyze:   built[config.OperationAnalyze],
		Questions: built[config.OperationQuestions],
		Improve:   built[config.OperationImprove],
		Answer:    built[config.OperationAnswer],
	}, metrics, logger)
}

// Analyze scores the session's resume against its job description and
// stores the result.
func (s *Service) Analyze(ctx context.Context, sess *session.Session) (*types.AnalysisResult, error) {
	if !sess.HasResume() || !sess.HasJobDescription() {
		return nil, precondition(MsgNeedResumeAndJob)
	}

	reply, err := s.complete(ctx, s.services.Analyze, ai.PromptInput{
		ResumeText:     sess.ResumeText,
		JobDescription: sess.JobDescription,
	})
	if err != nil {
		s.record(ctx, observability.MetricResumeAnalyzed, err)
		return nil, err
	}

	result, err := ai.InterpretAnalysis(reply)
	if err != nil {
		s.logger.LogError(err, "Could not interpret analysis reply")
		s.record(ctx, observability.MetricResumeAnalyzed, err)
		return nil, err
	}
	if !result.RecommendationConsistent() {
		s.logger.Warn("Recommendation does not match score",
			"ats_score", result.ATSScore,
			"recommendation", result.Recommendation)
	}

	sess.SetAnalysis(result)
	s.record(ctx, observability.MetricResumeAnalyzed, nil,
		attribute.String("recommendation", result.Recommendation))
	return result, nil
}

// GenerateQuestions produces interview questions. The questions are
// returned, not stored.
func (s *Service) GenerateQuestions(ctx context.Context, sess *session.Session, opts types.QuestionOptions) (*types.QuestionsOutput, error) {
	if !sess.HasResume() || !sess.HasJobDescription() {
		return nil, precondition(MsgNeedResumeAndJob)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest, err.Error(), err)
	}

	reply, err := s.complete(ctx, s.services.Questions, ai.PromptInput{
		ResumeText:     sess.ResumeText,
		JobDescription: sess.JobDescription,
		Options:        opts,
	})
	s.record(ctx, observability.MetricQuestionsGenerated, err,
		attribute.String("difficulty", string(opts.Difficulty)),
		attribute.Int("count", opts.Count))
	if err != nil {
		return nil, err
	}
	return &types.QuestionsOutput{Questions: reply, Options: opts}, nil
}

// Improve rewrites the resume for the job description and stores it.
func (s *Service) Improve(ctx context.Context, sess *session.Session) (*types.ImproveOutput, error) {
	if !sess.HasResume() || !sess.HasJobDescription() {
		return nil, precondition(MsgNeedResumeAndJob)
	}

	reply, err := s.complete(ctx, s.services.Improve, ai.PromptInput{
		ResumeText:     sess.ResumeText,
		JobDescription: sess.JobDescription,
	})
	s.record(ctx, observability.MetricResumeImproved, err)
	if err != nil {
		return nil, err
	}
	sess.SetImprovedResume(reply)
	return &types.ImproveOutput{ImprovedResume: reply}, nil
}

// Answer answers a free-form question about the resume.
func (s *Service) Answer(ctx context.Context, sess *session.Session, question string) (*types.AnswerOutput, error) {
	if !sess.HasResume() {
		return nil, precondition(MsgNeedResume)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, precondition(MsgNeedQuestion)
	}

	reply, err := s.complete(ctx, s.services.Answer, ai.PromptInput{
		ResumeText: sess.ResumeText,
		Question:   question,
	})
	s.record(ctx, observability.MetricQuestionAnswered, err)
	if err != nil {
		return nil, err
	}
	return &types.AnswerOutput{Question: question, Answer: reply}, nil
}

// ImprovedResume returns the stored improved resume.
func ImprovedResume(sess *session.Session) (string, error) {
	if !sess.HasImprovedResume() {
		return "", agentErrors.NewNotFoundError(agentErrors.ErrCodeMissingInput, MsgNoImprovedResume, nil)
	}
	return sess.ImprovedResume, nil
}

// ModelStatus reports model availability per operation. Each distinct
// provider and model is probed once.
func (s *Service) ModelStatus(ctx context.Context) map[string]*ai.ModelInfo {
	status := make(map[string]*ai.ModelInfo, len(config.Operations))
	probed := make(map[string]*ai.ModelInfo)
	for i, svc := range s.services.all() {
		key := svc.ModelKey()
		info, ok := probed[key]
		if !ok {
			info = svc.GetModelInfo(ctx)
			probed[key] = info
		}
		status[config.Operations[i]] = info
	}
	return status
}

// Close releases every provider.
func (s *Service) Close() error {
	var errs []error
	for _, svc := range s.services.all() {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) complete(ctx context.Context, svc *ai.Service, in ai.PromptInput) (string, error) {
	var reply string
	err := s.metrics.TrackAIOperation(ctx, string(svc.Kind()), func(ctx context.Context) *observability.AIOperationResult {
		completion, err := svc.Complete(ctx, in)
		if err != nil {
			return &observability.AIOperationResult{Error: err}
		}
		reply = completion.Text
		result := &observability.AIOperationResult{}
		if u := completion.Usage; u != nil {
			result.TokenUsage = &observability.TokenUsage{
				InputTokens:  u.InputTokens,
				OutputTokens: u.OutputTokens,
				TotalTokens:  u.TotalTokens,
			}
		}
		return result
	})
	return reply, err
}

func (s *Service) record(ctx context.Context, metricType string, err error, attrs ...attribute.KeyValue) {
	s.metrics.RecordBusinessMetric(ctx, metricType, err == nil, attrs...)
}

func precondition(message string) error {
	return agentErrors.NewValidationError(agentErrors.ErrCodeMissingInput, message, nil)
}
