package server

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "resumatch.api"
	maxMultipartMemory = 32 << 20
	defaultMaxFileSize = 10 << 20
)

// evaluateHandler scores an uploaded PDF resume against a job description
func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.evaluate")
	defer span.End()
	r = r.WithContext(ctx)

	req, err := s.parseEvaluateForm(r, false)
	if err != nil {
		s.writeEvaluateError(w, r, span, nil, err)
		return
	}

	outcome, err := s.Pipeline.Run(ctx, req)
	if err != nil {
		s.writeEvaluateError(w, r, span, outcome, err)
		return
	}

	span.SetAttributes(attribute.String("model", outcome.Model))
	writeJSON(w, r, http.StatusOK, types.EvaluateResponse{
		JDMatch:         outcome.Result.JDMatch,
		MissingKeywords: outcome.Result.MissingKeywords,
		ProfileSummary:  outcome.Result.Summary,
		PromptUsed:      outcome.Prompt.Text,
	})
}

// evaluateJSONHandler is evaluateHandler with per-request credential and model overrides
func (s *Server) evaluateJSONHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.evaluate_json")
	defer span.End()
	r = r.WithContext(ctx)

	req, err := s.parseEvaluateForm(r, true)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	outcome, err := s.Pipeline.Run(ctx, req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	span.SetAttributes(attribute.String("model", outcome.Model))
	writeJSON(w, r, http.StatusOK, types.EvaluateJSONResponse{
		Success: true,
		Data: types.EvaluateJSONData{
			JDMatch:         outcome.Result.JDMatch,
			MissingKeywords: outcome.Result.MissingKeywords,
			ProfileSummary:  outcome.Result.Summary,
		},
		Prompt: outcome.Prompt.Text,
	})
}

// analyzeResumeHandler scores a resume fetched from a URL
func (s *Server) analyzeResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.analyze_resume")
	defer span.End()
	r = r.WithContext(ctx)

	var body types.AnalyzeResumeRequest
	if err := parseJSONRequest(r, &body); err != nil {
		s.fail(w, r, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.job_length", len(body.JobDescription)),
		attribute.Bool("request.cover_letter", body.CoverLetter != ""),
	)

	outcome, err := s.Pipeline.Run(ctx, types.EvaluationRequest{
		Operation:      types.OperationAnalyzeResume,
		Resume:         types.ResumeSource{URL: strings.TrimSpace(body.ResumeURL)},
		JobDescription: body.JobDescription,
		CoverLetter:    body.CoverLetter,
	})
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	writeJSON(w, r, http.StatusOK, types.AnalyzeResumeResponse{
		Score:           outcome.Result.Score,
		JDMatch:         outcome.Result.JDMatch,
		MissingKeywords: outcome.Result.MissingKeywords,
		Summary:         outcome.Result.Summary,
	})
}

// jobSummaryHandler summarizes a job posting
func (s *Server) jobSummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.job_summary")
	defer span.End()
	r = r.WithContext(ctx)

	var body types.JobSummaryRequest
	if err := parseJSONRequest(r, &body); err != nil {
		s.fail(w, r, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.job_length", len(body.JobDescription)),
		attribute.Int("request.tags", len(body.Tags)),
	)

	outcome, err := s.Pipeline.Run(ctx, types.EvaluationRequest{
		Operation:      types.OperationJobSummary,
		JobDescription: body.JobDescription,
		Job: types.JobMetadata{
			Title:                   body.JobTitle,
			RequiredExperienceYears: body.RequiredExperienceYears,
			Tags:                    body.Tags,
		},
	})
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	writeJSON(w, r, http.StatusOK, types.JobSummaryResponse{Summary: outcome.Result.Summary})
}

// parseEvaluateForm reads the multipart resume upload and job description.
// Only the JSON variant honors the api_key and model fields.
func (s *Server) parseEvaluateForm(r *http.Request, withOverrides bool) (types.EvaluationRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return types.EvaluationRequest{}, bodyReadError(err)
		}
		return types.EvaluationRequest{}, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Request must be multipart/form-data with a resume file", err)
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) {
			return types.EvaluationRequest{}, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeEmptyField,
				"Resume is required", err)
		}
		return types.EvaluationRequest{}, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Failed to read resume upload", err)
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return types.EvaluationRequest{}, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeUnsupportedFile,
			"Only PDF files are supported", nil).WithContext("filename", header.Filename)
	}

	limit := s.maxFileSize()
	if header.Size > limit {
		return types.EvaluationRequest{}, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("Resume exceeds the %d byte limit", limit), nil)
	}

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return types.EvaluationRequest{}, resumatchErrors.NewIOError(resumatchErrors.ErrCodeFileNotReadable,
			"Failed to read resume upload", err)
	}

	req := types.EvaluationRequest{
		Operation: types.OperationEvaluate,
		Resume: types.ResumeSource{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		},
		JobDescription: r.FormValue("job_description"),
	}
	if withOverrides {
		req.APIKey = strings.TrimSpace(r.FormValue("api_key"))
		req.Model = strings.TrimSpace(r.FormValue("model"))
	}
	return req, nil
}

func (s *Server) maxFileSize() int64 {
	if s.AppConfig != nil && s.AppConfig.App.MaxFileSize > 0 {
		return s.AppConfig.App.MaxFileSize
	}
	return defaultMaxFileSize
}

// writeEvaluateError keeps the /evaluate success fields next to the error
func (s *Server) writeEvaluateError(w http.ResponseWriter, r *http.Request, span oteltrace.Span, outcome *types.Outcome, err error) {
	s.recordFailure(r, span, err)

	status, body := errorBody(err)
	body.RequestID = requestIDFrom(r.Context())

	resp := EvaluateErrorResponse{
		ErrorResponse: body,
		EvaluateResponse: types.EvaluateResponse{
			JDMatch:         "N/A",
			MissingKeywords: []string{},
		},
	}
	if outcome != nil {
		resp.PromptUsed = outcome.Prompt.Text
	}
	writeJSON(w, r, status, resp)
}

// fail records err on the span and writes the standard error body
func (s *Server) fail(w http.ResponseWriter, r *http.Request, span oteltrace.Span, err error) {
	s.recordFailure(r, span, err)
	s.writeAppError(w, r, err)
}

func (s *Server) recordFailure(r *http.Request, span oteltrace.Span, err error) {
	errorType := string(resumatchErrors.ErrorTypeInternal)
	if appErr, ok := resumatchErrors.As(err); ok {
		errorType = string(appErr.Type)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, errorType)
	span.SetAttributes(attribute.String("error.type", errorType))

	if resumatchErrors.HTTPStatus(err) >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed",
			"request_id", requestIDFrom(r.Context()),
			"endpoint", r.URL.Path)
	}
}
