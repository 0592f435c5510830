package errors

import "net/http"

// HTTPStatus maps an error to the transport status code of its category.
// Errors outside the taxonomy are reported as internal failures.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeExtraction, ErrorTypeIO:
		if appErr.Code == ErrCodeDocumentTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case ErrorTypeDownload:
		if appErr.UpstreamStatus >= 400 && appErr.UpstreamStatus < 500 {
			return http.StatusBadRequest
		}
		if appErr.Code == ErrCodeDocumentTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadGateway
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeModelCall:
		if appErr.Code == ErrCodeAIUnavailable {
			return http.StatusServiceUnavailable
		}
		if appErr.UpstreamStatus != 0 {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
