package observability

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricResumeEvaluated = "resume_evaluated"
	MetricResumeAnalyzed  = "resume_analyzed"
	MetricJobSummarized   = "job_summarized"
	MetricRateLimitHit    = "rate_limit_hit"
)

// Metrics holds all custom metrics for Resumatch
type Metrics struct {
	// Model call metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Pipeline outcome metrics
	ResumesEvaluated metric.Int64Counter
	ResumesAnalyzed  metric.Int64Counter
	JobsSummarized   metric.Int64Counter
	ResumeTextChars  metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter

	settings config.CustomMetricsConfig
}

// AIOperationResult holds the result of a model call including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *types.TokenUsage
}

func newMetrics(meter metric.Meter, settings config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}

	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createBusinessMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createRateLimitMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumatch_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting for model replies"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"resumatch_ai_requests_total",
		metric.WithDescription("Total number of model calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"resumatch_ai_errors_total",
		metric.WithDescription("Total number of failed model calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumatch_ai_token_usage",
		metric.WithDescription("Token usage per model call (input, output, total)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	var err error

	m.ResumesEvaluated, err = meter.Int64Counter(
		"resumatch_resumes_evaluated_total",
		metric.WithDescription("Total number of uploaded resumes evaluated against a job description"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resumes evaluated metric: %w", err)
	}

	m.ResumesAnalyzed, err = meter.Int64Counter(
		"resumatch_resumes_analyzed_total",
		metric.WithDescription("Total number of resumes analyzed by URL"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resumes analyzed metric: %w", err)
	}

	m.JobsSummarized, err = meter.Int64Counter(
		"resumatch_jobs_summarized_total",
		metric.WithDescription("Total number of job summaries generated"),
	)
	if err != nil {
		return fmt.Errorf("failed to create jobs summarized metric: %w", err)
	}

	m.ResumeTextChars, err = meter.Int64Histogram(
		"resumatch_resume_text_chars",
		metric.WithDescription("Characters extracted from resume documents"),
		metric.WithUnit("{char}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resume text size metric: %w", err)
	}

	return nil
}

func (m *Metrics) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"resumatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// TrackAIOperation instruments a model call with tracing and metrics.
// With a nil or disabled manager fn simply runs.
func (om *ObservabilityManager) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	return om.GetMetrics().TrackAIOperationWithTokens(ctx, operation, fn)
}

// RecordBusinessMetric records a pipeline outcome. Safe on a nil manager.
func (om *ObservabilityManager) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	om.GetMetrics().RecordBusinessMetric(ctx, metricType, success, attributes...)
}

// RecordResumeSize records how much text was extracted from a resume. Safe on a nil manager.
func (om *ObservabilityManager) RecordResumeSize(ctx context.Context, operation string, chars int) {
	m := om.GetMetrics()
	if m.ResumeTextChars == nil || !m.settings.BusinessMetrics.TrackContentSizes {
		return
	}
	m.ResumeTextChars.Record(ctx, int64(chars), metric.WithAttributes(attribute.String("operation", operation)))
}

// TrackAIOperationWithTokens instruments a model call with tracing, metrics and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	if m.AIProcessingTime == nil {
		// Metrics not initialized, just run the function
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}

	tracer := otel.Tracer("resumatch.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if m.settings.AIOperations.Enabled {
		m.recordAIMetrics(ctx, operation, err, duration, result, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// recordAIMetrics records all model call metrics
func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	if m.settings.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.recordTokenUsage(ctx, operation, result, span)

	span.SetAttributes(attrs...)
}

// recordTokenUsage records token usage metrics and span attributes
func (m *Metrics) recordTokenUsage(ctx context.Context, operation string, result *AIOperationResult, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil || m.AITokenUsage == nil {
		return
	}
	usage := result.TokenUsage

	if m.settings.AIOperations.TrackTokenUsage {
		for _, tt := range []struct {
			tokenType string
			value     int32
		}{
			{"input", usage.PromptTokens},
			{"output", usage.CompletionTokens},
			{"total", usage.TotalTokens},
		} {
			m.AITokenUsage.Record(ctx, int64(tt.value), metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("token_type", tt.tokenType),
			))
		}
	}

	// Token counts always go on the span
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", int64(usage.PromptTokens)),
		attribute.Int64("ai.tokens.output", int64(usage.CompletionTokens)),
		attribute.Int64("ai.tokens.total", int64(usage.TotalTokens)),
	)
}

// RecordBusinessMetric records pipeline outcome metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	if metricType == MetricRateLimitHit {
		if m.RateLimitHits != nil && m.settings.TrackRateLimits {
			m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		return
	}

	if !m.settings.BusinessMetrics.Enabled {
		return
	}

	var counter metric.Int64Counter
	switch metricType {
	case MetricResumeEvaluated:
		counter = m.ResumesEvaluated
	case MetricResumeAnalyzed:
		counter = m.ResumesAnalyzed
	case MetricJobSummarized:
		counter = m.JobsSummarized
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
