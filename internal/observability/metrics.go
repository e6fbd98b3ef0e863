package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Business metric types accepted by RecordBusinessMetric.
const (
	MetricResumeAnalyzed     = "resume_analyzed"
	MetricQuestionsGenerated = "questions_generated"
	MetricResumeImproved     = "resume_improved"
	MetricQuestionAnswered   = "question_answered"
	MetricDocumentExtracted  = "document_extracted"
	MetricRateLimitHit       = "rate_limit_hit"
)

// Metrics holds all custom instruments. A nil *Metrics records nothing.
type Metrics struct {
	meter metric.Meter

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Counter

	// Business metrics
	ResumesAnalyzed    metric.Int64Counter
	QuestionsGenerated metric.Int64Counter
	ResumesImproved    metric.Int64Counter
	QuestionsAnswered  metric.Int64Counter
	DocumentsExtracted metric.Int64Counter

	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"recruitagent_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.AIRequestCount, "recruitagent_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "recruitagent_ai_errors_total", "Total number of AI request errors"},
		{&m.AITokenUsage, "recruitagent_ai_tokens_total", "Tokens used by AI requests, by token_type"},
		{&m.ResumesAnalyzed, "recruitagent_resumes_analyzed_total", "Total number of resumes analyzed"},
		{&m.QuestionsGenerated, "recruitagent_questions_generated_total", "Total number of interview question sets generated"},
		{&m.ResumesImproved, "recruitagent_resumes_improved_total", "Total number of resumes improved"},
		{&m.QuestionsAnswered, "recruitagent_questions_answered_total", "Total number of resume questions answered"},
		{&m.DocumentsExtracted, "recruitagent_documents_extracted_total", "Total number of uploaded documents extracted"},
		{&m.RateLimitHits, "recruitagent_rate_limit_hits_total", "Total number of rate limit hits"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	return m, nil
}

// NopMetrics returns metrics backed by a no-op meter.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(defaultServiceName))
	return m
}

// RegisterSessionGauge reports count as recruitagent_sessions_active on
// every collection.
func (m *Metrics) RegisterSessionGauge(count func() int) error {
	if m == nil || m.meter == nil {
		return nil
	}
	_, err := m.meter.Int64ObservableGauge(
		"recruitagent_sessions_active",
		metric.WithDescription("Number of live sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions active metric: %w", err)
	}
	return nil
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackAIOperation runs fn inside an "ai.<operation>" span and records its
// duration, outcome and token usage.
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	tracer := otel.Tracer("recruitagent.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)

	if m != nil {
		opt := metric.WithAttributes(attrs...)
		m.AIProcessingTime.Record(ctx, duration, opt)
		m.AIRequestCount.Add(ctx, 1, opt)
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, opt)
		}
	}
	if result != nil && result.TokenUsage != nil {
		m.recordTokenUsage(ctx, operation, result.TokenUsage)
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *Metrics) recordTokenUsage(ctx context.Context, operation string, usage *TokenUsage) {
	if m == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		if tt.value <= 0 {
			continue
		}
		m.AITokenUsage.Add(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)
	opt := metric.WithAttributes(attrs...)

	switch metricType {
	case MetricResumeAnalyzed:
		m.ResumesAnalyzed.Add(ctx, 1, opt)
	case MetricQuestionsGenerated:
		m.QuestionsGenerated.Add(ctx, 1, opt)
	case MetricResumeImproved:
		m.ResumesImproved.Add(ctx, 1, opt)
	case MetricQuestionAnswered:
		m.QuestionsAnswered.Add(ctx, 1, opt)
	case MetricDocumentExtracted:
		m.DocumentsExtracted.Add(ctx, 1, opt)
	case MetricRateLimitHit:
		m.RateLimitHits.Add(ctx, 1, opt)
	}
}
