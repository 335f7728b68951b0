// Package errors provides standardized error handling for the analytics
// pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrSearchFailed      ErrorCode = "SEARCH_FAILED"
	ErrSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"
	ErrAnchorUnavailable ErrorCode = "ANCHOR_UNAVAILABLE"

	ErrIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrUnknownSchemaKey    ErrorCode = "UNKNOWN_SCHEMA_KEY"
	ErrInvalidFilter       ErrorCode = "INVALID_FILTER_FORMAT"
	ErrInvalidPlan         ErrorCode = "INVALID_PLAN"
	ErrPlanExecutionFailed ErrorCode = "PLAN_EXECUTION_FAILED"

	ErrCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// New builds a StandardError; cause may be nil.
func New(code ErrorCode, message string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store connection error.
func NewStoreUnavailableError(err error) *StandardError {
	return New(ErrStoreUnavailable, "Event store connection error", err)
}

// NewSearchFailedError creates a retryable search error.
func NewSearchFailedError(queryType string, err error) *StandardError {
	e := New(ErrSearchFailed, "Event store query error", err)
	e.Details = fmt.Sprintf("queryType: %s, error: %s", queryType, e.Details)
	return e
}

// NewIndexNotFoundError creates a non-retryable index error.
func NewIndexNotFoundError(indexName string) *StandardError {
	e := New(ErrIndexNotFound, "Event index not found", nil)
	e.Details = fmt.Sprintf("indexName: %s", indexName)
	return e
}

// NewIntentParsingFailedError creates a non-retryable classification error.
func NewIntentParsingFailedError(details string) *StandardError {
	e := New(ErrIntentParsingFailed, "Question could not be classified", nil)
	e.Details = details
	return e
}

// NewUnknownSchemaKeyError creates a non-retryable schema lookup error.
func NewUnknownSchemaKeyError(key string) *StandardError {
	e := New(ErrUnknownSchemaKey, "Unknown dimension or metric key", nil)
	e.Details = fmt.Sprintf("key: %s", key)
	return e
}

// NewInvalidFilterError creates a non-retryable filter format error.
func NewInvalidFilterError(details string) *StandardError {
	e := New(ErrInvalidFilter, "Invalid filter format", nil)
	e.Details = details
	return e
}

// NewInvalidPlanError creates a non-retryable plan validation error.
func NewInvalidPlanError(details string) *StandardError {
	e := New(ErrInvalidPlan, "Query plan failed validation", nil)
	e.Details = details
	return e
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrStoreUnavailable, ErrSearchFailed, ErrAnchorUnavailable, ErrPlanExecutionFailed:
		return 3
	case ErrSearchTimeout, ErrCacheUnavailable:
		return 2
	default:
		return 0 // classification and validation errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "STORE"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "SCHEMA"):
		return "NLP"
	case strings.Contains(codeStr, "PLAN") || strings.Contains(codeStr, "FILTER"):
		return "QUERY"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "ANCHOR"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
