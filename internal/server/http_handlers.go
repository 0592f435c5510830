package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	resumatchErrors "resumatch/internal/errors"

	"github.com/go-playground/validator/v10"
)

var requestValidator = newRequestValidator()

// newRequestValidator reports JSON field names and accepts s3:// resume URLs
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("resume_url", validateResumeURL); err != nil {
		panic(err)
	}
	return v
}

// validateResumeURL accepts absolute http, https and s3 URLs
func validateResumeURL(fl validator.FieldLevel) bool {
	value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	for _, scheme := range []string{"http://", "https://", "s3://"} {
		if rest, ok := strings.CutPrefix(value, scheme); ok && rest != "" {
			return true
		}
	}
	return false
}

// rootHandler lists the available routes
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	endpoints := make(map[string]string, len(endpointDescriptions))
	for _, e := range endpointDescriptions {
		endpoints[e.Route] = e.Description
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message":   "Resumatch ATS API",
		"version":   s.Version,
		"endpoints": endpoints,
	})
}

// healthHandler is a liveness probe
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// statsHandler provides server statistics including rate limiting and circuit breaker state
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.apiKeyCount(),
			"cors_origins":           s.CORSOrigins,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.Pipeline != nil {
		response["models"] = s.Pipeline.Stats()
	}

	if s.keyWatcher != nil {
		response["key_watcher"] = s.keyWatcher.Status()
	}

	writeJSON(w, r, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v and validates it
func parseJSONRequest(r *http.Request, v any) error {
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType != "application/json" {
		return resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Content-Type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyReadError(err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Request body is not valid JSON", err)
	}

	if err := requestValidator.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// bodyReadError distinguishes oversized bodies from other read failures
func bodyReadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return resumatchErrors.NewValidationError(resumatchErrors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("Request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
		"Failed to read request body", err)
}

// validationError turns validator failures into one readable ValidationError
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest, "Invalid request", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "resume_url":
			messages = append(messages, fmt.Sprintf("%s must be an http, https or s3 URL", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag()+paramSuffix(fe.Param())))
		}
	}

	appErr := resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
		strings.Join(messages, "; "), err)
	return appErr.WithContext("field", fieldErrs[0].Field())
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}

// writeJSON writes v with status
func writeJSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encode failure cannot reach the client
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response tagged with the request ID
func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	body.RequestID = requestIDFrom(r.Context())
	writeJSON(w, r, status, body)
}

// errorBody maps err onto the error response shape
func errorBody(err error) (int, ErrorResponse) {
	status := resumatchErrors.HTTPStatus(err)

	appErr, ok := resumatchErrors.As(err)
	if !ok {
		return status, ErrorResponse{
			Error:   resumatchErrors.ErrCodeInternal,
			Message: "Internal server error",
			Detail:  "Internal server error",
		}
	}

	body := ErrorResponse{
		Error:   appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Message,
		Kind:    string(appErr.Type),
		Excerpt: appErr.Excerpt,
	}
	if appErr.Type == resumatchErrors.ErrorTypeNormalization {
		body.Kind = "invalid_json"
	}
	if status >= http.StatusInternalServerError && appErr.Type != resumatchErrors.ErrorTypeModelCall &&
		appErr.Type != resumatchErrors.ErrorTypeNormalization {
		// Config and internal failures keep their cause in the logs only
		body.Detail = "Internal server error"
	}
	return status, body
}

// writeAppError writes err using the status of its category
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	writeErrorResponse(w, r, status, body)
}
