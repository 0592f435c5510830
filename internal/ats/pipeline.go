package ats

import (
	"context"
	"strconv"
	"strings"
	"time"

	"resumatch/internal/ai"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/normalize"
	"resumatch/internal/observability"
	"resumatch/internal/prompt"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

var businessMetrics = map[types.Operation]string{
	types.OperationEvaluate:      observability.MetricResumeEvaluated,
	types.OperationAnalyzeResume: observability.MetricResumeAnalyzed,
	types.OperationJobSummary:    observability.MetricJobSummarized,
}

// Run executes req. Validation happens before any network call. When the prompt was
// composed before a later step failed, the returned Outcome is non-nil and carries it
// alongside the error.
func (s *Service) Run(ctx context.Context, req types.EvaluationRequest) (*types.Outcome, error) {
	start := time.Now()
	logger := s.logger.With("operation", req.Operation)

	outcome, err := s.run(ctx, req)

	success := err == nil
	attrs := []attribute.KeyValue{}
	if appErr, ok := errors.As(err); ok {
		attrs = append(attrs, attribute.String("error_type", string(appErr.Type)))
	}
	s.obs.RecordBusinessMetric(ctx, businessMetrics[req.Operation], success, attrs...)

	if err != nil {
		logger.LogError(err, "Pipeline failed", "duration", time.Since(start))
		return outcome, err
	}

	logger.Info("Pipeline completed",
		"model", outcome.Model,
		"jd_match", outcome.Result.JDMatch,
		"missing_keywords", len(outcome.Result.MissingKeywords),
		"duration", time.Since(start))
	return outcome, nil
}

func (s *Service) run(ctx context.Context, req types.EvaluationRequest) (*types.Outcome, error) {
	model, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		prompt.FieldJobDescription:  strings.TrimSpace(req.JobDescription),
		prompt.FieldCoverLetter:     strings.TrimSpace(req.CoverLetter),
		prompt.FieldJobTitle:        strings.TrimSpace(req.Job.Title),
		prompt.FieldExperienceYears: strconv.Itoa(req.Job.RequiredExperienceYears),
		prompt.FieldTags:            strings.Join(req.Job.Tags, ", "),
	}

	if needsResume(req.Operation) {
		text, err := s.resumeText(ctx, req)
		if err != nil {
			return nil, err
		}
		fields[prompt.FieldResumeText] = text
	}

	composed, err := s.composer.Compose(req.Operation, fields)
	if err != nil {
		return nil, err
	}
	composed.System = s.systemPrompts[req.Operation]

	outcome := &types.Outcome{Prompt: composed, Model: model.Model()}
	if req.Model != "" {
		outcome.Model = req.Model
	}

	var reply *ai.Reply
	err = s.obs.TrackAIOperation(ctx, string(req.Operation), func(ctx context.Context) *observability.AIOperationResult {
		var callErr error
		reply, callErr = model.Generate(ctx, composed, ai.Override{Model: req.Model, APIKey: req.APIKey})
		result := &observability.AIOperationResult{Error: callErr}
		if reply != nil {
			result.TokenUsage = reply.Usage
		}
		return result
	})
	if err != nil {
		return outcome, err
	}
	if reply.Model != "" {
		outcome.Model = reply.Model
	}
	outcome.Usage = reply.Usage

	result, err := normalize.Normalize(reply.Text, req.Operation)
	if err != nil {
		return outcome, err
	}
	outcome.Result = *result
	return outcome, nil
}

// validate rejects malformed requests before any I/O and returns the operation's model
func (s *Service) validate(req types.EvaluationRequest) (Generator, error) {
	model, ok := s.models[req.Operation]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Unknown operation: "+string(req.Operation), nil)
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyField,
			"Job description cannot be empty", nil).WithContext("field", prompt.FieldJobDescription)
	}

	switch req.Operation {
	case types.OperationEvaluate, types.OperationAnalyzeResume:
		if req.Resume.IsEmpty() {
			return nil, errors.NewValidationError(errors.ErrCodeEmptyField,
				"Resume is required", nil).WithContext("field", "resume")
		}
	case types.OperationJobSummary:
		if strings.TrimSpace(req.Job.Title) == "" {
			return nil, errors.NewValidationError(errors.ErrCodeEmptyField,
				"Job title cannot be empty", nil).WithContext("field", prompt.FieldJobTitle)
		}
		if req.Job.RequiredExperienceYears < 0 {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"Required experience years cannot be negative", nil).WithContext("field", prompt.FieldExperienceYears)
		}
	}

	if req.APIKey != "" && !s.allowRequestKeys {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Per-request API keys are disabled on this server", nil)
	}

	return model, nil
}

// resumeText returns the extracted text of the uploaded or referenced resume
func (s *Service) resumeText(ctx context.Context, req types.EvaluationRequest) (string, error) {
	data, contentType, filename := req.Resume.Data, req.Resume.ContentType, req.Resume.Filename

	if len(data) == 0 {
		if s.fetcher == nil {
			return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "Resume download is not configured", nil)
		}
		doc, err := s.fetcher.Fetch(ctx, req.Resume.URL)
		if err != nil {
			return "", err
		}
		data, contentType, filename = doc.Data, doc.ContentType, doc.Filename
	}

	format, err := extract.DetectFormat(contentType, filename, data)
	if err != nil {
		return "", err
	}

	text, err := s.extractor.Extract(data, format)
	if err != nil {
		return "", err
	}

	s.obs.RecordResumeSize(ctx, string(req.Operation), len(text))
	s.logger.Debug("Resume text extracted",
		"operation", req.Operation,
		"format", format,
		"bytes", len(data),
		"chars", len(text))
	return text, nil
}

func needsResume(op types.Operation) bool {
	return op == types.OperationEvaluate || op == types.OperationAnalyzeResume
}
