package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"resumatch/internal/config"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func allMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations: config.AIOperationsMetricsConfig{
			Enabled:         true,
			TrackDuration:   true,
			TrackTokenUsage: true,
		},
		BusinessMetrics: config.BusinessMetricsConfig{
			Enabled:           true,
			TrackContentSizes: true,
		},
		TrackRateLimits: true,
	}
}

func newTestManager(t *testing.T) *ObservabilityManager {
	t.Helper()
	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName:    "resumatch-test",
		ServiceVersion: "test",
		Enabled:        true,
		SampleRate:     1.0,
		Prometheus:     PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		CustomMetrics:  allMetrics(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })
	return om
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNilManagerIsNoOp(t *testing.T) {
	var om *ObservabilityManager

	called := false
	err := om.TrackAIOperation(context.Background(), "evaluate", func(ctx context.Context) *AIOperationResult {
		called = true
		return &AIOperationResult{}
	})
	assert.NoError(t, err)
	assert.True(t, called)

	om.RecordBusinessMetric(context.Background(), MetricResumeEvaluated, true)
	om.RecordResumeSize(context.Background(), "evaluate", 100)
	assert.Nil(t, om.MetricsHandler())
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, om.MetricsHandler())

	want := errors.New("upstream failed")
	got := om.TrackAIOperation(context.Background(), "evaluate", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{Error: want}
	})
	assert.Equal(t, want, got)

	handler := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTrackAIOperationExportsMetrics(t *testing.T) {
	om := newTestManager(t)
	handler := om.MetricsHandler()
	require.NotNil(t, handler)

	err := om.TrackAIOperation(context.Background(), "evaluate", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &types.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
	})
	require.NoError(t, err)

	failure := errors.New("boom")
	err = om.TrackAIOperation(context.Background(), "evaluate", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{Error: failure}
	})
	assert.Equal(t, failure, err)

	body := scrape(t, handler)
	assert.Contains(t, body, "resumatch_ai_requests_total")
	assert.Contains(t, body, "resumatch_ai_errors_total")
	assert.Contains(t, body, "resumatch_ai_processing_duration_seconds")
	assert.Contains(t, body, `operation="evaluate"`)
}

func TestRecordBusinessMetric(t *testing.T) {
	om := newTestManager(t)

	om.RecordBusinessMetric(context.Background(), MetricResumeAnalyzed, false, attribute.String("error_type", "download"))
	om.RecordBusinessMetric(context.Background(), MetricJobSummarized, true)
	om.RecordBusinessMetric(context.Background(), MetricRateLimitHit, false, attribute.String("client", "ip"))
	om.RecordResumeSize(context.Background(), "analyze_resume", 1234)

	body := scrape(t, om.MetricsHandler())
	assert.Contains(t, body, "resumatch_resumes_analyzed_total")
	assert.Contains(t, body, `error_type="download"`)
	assert.Contains(t, body, "resumatch_jobs_summarized_total")
	assert.Contains(t, body, "resumatch_rate_limit_hits_total")
	assert.Contains(t, body, "resumatch_resume_text_chars")
	assert.NotContains(t, body, "resumatch_resumes_evaluated_total{")
}

func TestMetricsHandlerOnDedicatedPort(t *testing.T) {
	om := &ObservabilityManager{
		config:         ObservabilityConfig{Prometheus: PrometheusConfig{Enabled: true, Port: "9464"}},
		metricsHandler: http.NotFoundHandler(),
	}
	assert.Nil(t, om.MetricsHandler())
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "resumatch"
	cfg.Observability.Prometheus.Enabled = true
	cfg.Observability.CustomMetrics = allMetrics()

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.Equal(t, "/metrics", obs.Prometheus.Endpoint)
	assert.True(t, obs.CustomMetrics.TrackRateLimits)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.Equal(t, "resumatch", fallback.ServiceName)
	assert.Equal(t, "9090", fallback.Prometheus.Port)
}
