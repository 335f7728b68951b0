// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler normalizes errors and writes standardized HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError logs the error and writes the JSON error body with the
// status matching the error code.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, operation string, err error) {
	stdErr := h.normalizeError(err)

	h.logger.Error("request failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(stdErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps error codes to response statuses. Retryable store errors
// surface as 503 so callers know to back off.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrStoreUnavailable, ErrAnchorUnavailable, ErrCacheUnavailable:
		return http.StatusServiceUnavailable
	case ErrSearchTimeout:
		return http.StatusGatewayTimeout
	case ErrIndexNotFound:
		return http.StatusNotFound
	case ErrIntentParsingFailed, ErrUnknownSchemaKey, ErrInvalidFilter, ErrInvalidPlan:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
