package errors

import (
	stderrors "errors"
	"fmt"
	"unicode/utf8"
)

// ErrorType represents the failure category of an error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeExtraction    ErrorType = "extraction"
	ErrorTypeDownload      ErrorType = "download"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeModelCall     ErrorType = "model_call"
	ErrorTypeNormalization ErrorType = "normalization"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeInternal      ErrorType = "internal"
)

// ExcerptLimit bounds the raw model reply carried by a normalization error.
const ExcerptLimit = 500

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`

	// UpstreamStatus is the status reported by a remote party (document host or model provider).
	UpstreamStatus int `json:"upstream_status,omitempty"`
	// Excerpt holds the leading part of an unparseable model reply.
	Excerpt string `json:"excerpt,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewExtractionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, code, message, cause)
}

// NewDownloadError reports a failed remote fetch. status is the remote HTTP status, or 0 when
// no response was received.
func NewDownloadError(code, message string, status int, cause error) *AppError {
	e := newAppError(ErrorTypeDownload, code, message, cause)
	e.UpstreamStatus = status
	return e
}

func NewTimeoutError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, code, message, cause)
}

// NewModelCallError reports a failed model invocation. status is the provider's HTTP status,
// or 0 when the provider never answered.
func NewModelCallError(code, message string, status int, cause error) *AppError {
	e := newAppError(ErrorTypeModelCall, code, message, cause)
	e.UpstreamStatus = status
	return e
}

// NewNormalizationError reports a model reply that could not be parsed. The raw reply is
// kept as a bounded excerpt.
func NewNormalizationError(code, message, raw string, cause error) *AppError {
	e := newAppError(ErrorTypeNormalization, code, message, cause)
	e.Excerpt = Excerpt(raw, ExcerptLimit)
	return e
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// Excerpt returns at most limit characters of s.
func Excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// Common error codes
const (
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable  = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeEmptyField       = "EMPTY_FIELD"
	ErrCodeUnsupportedFile  = "UNSUPPORTED_FILE"
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
	ErrCodeEmptyDocument    = "EMPTY_DOCUMENT"
	ErrCodeDownloadFailed   = "DOWNLOAD_FAILED"
	ErrCodeDownloadTimeout  = "DOWNLOAD_TIMEOUT"
	ErrCodeDocumentTooLarge = "DOCUMENT_TOO_LARGE"
	ErrCodeAIServiceFailed  = "AI_SERVICE_FAILED"
	ErrCodeAIUnavailable    = "AI_UNAVAILABLE"
	ErrCodeEmptyReply       = "EMPTY_REPLY"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeTemplateField    = "TEMPLATE_FIELD_MISSING"
	ErrCodeMissingAPIKey    = "MISSING_API_KEY"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeInternal         = "INTERNAL_ERROR"
)
