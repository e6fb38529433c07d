// Package errors provides the structured error type shared by the support pipeline,
// its adapters and the job-engine worker.
package errors

import (
	stderrors "errors"
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
	ErrCodeClassificationFailed  ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeClassificationTimeout ErrorCode = "CLASSIFICATION_TIMEOUT"

	ErrCodeLookupFailed       ErrorCode = "LOOKUP_FAILED"
	ErrCodeLookupTimeout      ErrorCode = "LOOKUP_TIMEOUT"
	ErrCodeSearchUnavailable  ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeNotConfigured      ErrorCode = "INTEGRATION_NOT_CONFIGURED"
	ErrCodeCRMAPIError        ErrorCode = "CRM_API_ERROR"
	ErrCodeCacheFailed        ErrorCode = "CACHE_FAILED"
	ErrCodeUnsupportedAction  ErrorCode = "UNSUPPORTED_ACTION"
	ErrCodeReplyGenerationErr ErrorCode = "REPLY_GENERATION_FAILED"

	ErrCodePipelineFailed ErrorCode = "PIPELINE_FAILED"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInputParsing   ErrorCode = "INPUT_PARSING_FAILED"

	ErrCodeAlertSendFailed ErrorCode = "ALERT_SEND_FAILED"
	ErrCodeRecordFailed    ErrorCode = "RECORD_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is safe to
// log; none of it is ever shown to a customer.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Job Engine Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewClassificationFailedError wraps a failed or malformed AI classification call.
func NewClassificationFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationFailed, "AI classification failed", err, true)
}

func NewClassificationTimeoutError(err error) *StandardError {
	return newError(ErrCodeClassificationTimeout, "AI classification timed out", err, true)
}

// NewLookupFailedError wraps an errored capability call made for one action.
func NewLookupFailedError(integration, operation string, err error) *StandardError {
	e := newError(ErrCodeLookupFailed, fmt.Sprintf("%s %s failed", integration, operation), err, true)
	return e.WithMetadata("integration", integration).WithMetadata("operation", operation)
}

func NewLookupTimeoutError(integration, operation string, err error) *StandardError {
	e := newError(ErrCodeLookupTimeout, fmt.Sprintf("%s %s timed out", integration, operation), err, true)
	return e.WithMetadata("integration", integration).WithMetadata("operation", operation)
}

// NewSearchUnavailableError signals that a provider rejected a search endpoint
// (missing scope, plan restriction, endpoint disabled).
func NewSearchUnavailableError(integration string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   fmt.Sprintf("%s search is unavailable", integration),
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotConfiguredError(integration string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotConfigured,
		Message:   fmt.Sprintf("%s integration is not configured", integration),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCRMAPIError(operation string, err error) *StandardError {
	return newError(ErrCodeCRMAPIError, fmt.Sprintf("CRM %s failed", operation), err, true)
}

func NewCacheFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeCacheFailed, fmt.Sprintf("cache %s failed", operation), err, true)
}

func NewUnsupportedActionError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedAction,
		Message:   "Unsupported action",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewReplyGenerationError(err error) *StandardError {
	return newError(ErrCodeReplyGenerationErr, "AI reply generation failed", err, true)
}

// NewPipelineFailedError wraps anything that escaped the classify/plan/dispatch/format chain.
func NewPipelineFailedError(stage string, err error) *StandardError {
	e := newError(ErrCodePipelineFailed, fmt.Sprintf("pipeline failed during %s", stage), err, false)
	return e.WithMetadata("stage", stage)
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsing, "Failed to parse job variables", err, false)
}

func NewAlertSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeAlertSendFailed, fmt.Sprintf("%s alert delivery failed", channel), err, true)
	return e.WithMetadata("channel", channel)
}

func NewRecordFailedError(sink string, err error) *StandardError {
	e := newError(ErrCodeRecordFailed, fmt.Sprintf("recording interaction to %s failed", sink), err, true)
	return e.WithMetadata("sink", sink)
}

// ==========================
// 4. Error Conversion
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLookupFailed,
		ErrCodeCRMAPIError,
		ErrCodeAlertSendFailed,
		ErrCodeRecordFailed,
		ErrCodeClassificationFailed:
		return 3

	case ErrCodeLookupTimeout,
		ErrCodeClassificationTimeout:
		return 2

	case ErrCodeReplyGenerationErr, ErrCodeCacheFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     GetErrorCategory(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// Normalize always returns a StandardError, wrapping foreign errors as internal.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// CodeOf returns the error code for metric labels.
func CodeOf(err error) string {
	if stdErr, ok := AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory maps a code onto the error taxonomy used in logs and job variables.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CLASSIFICATION"):
		return "CLASSIFICATION"
	case strings.HasPrefix(codeStr, "LOOKUP"), strings.HasPrefix(codeStr, "SEARCH"),
		strings.HasPrefix(codeStr, "CRM"), strings.HasPrefix(codeStr, "CACHE"),
		strings.HasPrefix(codeStr, "INTEGRATION"):
		return "LOOKUP"
	case strings.HasPrefix(codeStr, "PIPELINE"), code == ErrCodeUnsupportedAction:
		return "PIPELINE"
	case strings.HasPrefix(codeStr, "ALERT"), strings.HasPrefix(codeStr, "RECORD"):
		return "SIDE_EFFECT"
	case strings.HasPrefix(codeStr, "REPLY"):
		return "AI"
	case strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
