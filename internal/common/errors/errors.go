// Package errors provides standardized error handling for BPMN workflow integration.
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
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAgeValue   ErrorCode = "INVALID_AGE_VALUE"
	ErrCodeInvalidGVWValue   ErrorCode = "INVALID_GVW_VALUE"
	ErrCodeRTONotApplicable  ErrorCode = "RTO_NOT_APPLICABLE"
	ErrCodeInvalidInputShape ErrorCode = "INVALID_INPUT_SHAPE"

	ErrCodeSnapshotUnavailable  ErrorCode = "SNAPSHOT_UNAVAILABLE"
	ErrCodeSnapshotQueryFailed  ErrorCode = "SNAPSHOT_QUERY_FAILED"
	ErrCodeSnapshotQueryTimeout ErrorCode = "SNAPSHOT_QUERY_TIMEOUT"

	ErrCodeProjectionRefreshFailed ErrorCode = "PROJECTION_REFRESH_FAILED"
	ErrCodeProjectionCacheFailed   ErrorCode = "PROJECTION_CACHE_FAILED"

	ErrCodeQueryLogFailed ErrorCode = "QUERY_LOG_FAILED"
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
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable input validation error.
// Validation problems are answered synchronously; retrying the same input can
// never succeed.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAgeValueError creates a non-retryable age validation error.
func NewInvalidAgeValueError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAgeValue,
		Message:   "Vehicle age must be 1-50 or 'New'",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidGVWValueError creates a non-retryable weight validation error.
func NewInvalidGVWValueError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidGVWValue,
		Message:   "GVW must be between 0 and 50 tons",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRTONotApplicableError creates a non-retryable error for RTO codes sent
// for states that do not collect them.
func NewRTONotApplicableError(state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRTONotApplicable,
		Message:   "RTO code not applicable for selected state",
		Details:   fmt.Sprintf("state: %s", state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputShapeError creates a non-retryable error for payloads that
// fail schema validation before field rules run.
func NewInvalidInputShapeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInputShape,
		Message:   "Request payload does not match the expected shape",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotUnavailableError creates a retryable error for a rate snapshot
// that cannot be reached. Distinct from a no-match result: the caller must
// retry, not conclude there are no payouts.
func NewSnapshotUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotUnavailable,
		Message:   "Rate snapshot unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotQueryFailedError creates a retryable snapshot query error.
func NewSnapshotQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotQueryFailed,
		Message:   "Rate snapshot query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotQueryTimeoutError creates a retryable snapshot timeout error.
func NewSnapshotQueryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotQueryTimeout,
		Message:   "Rate snapshot query timeout",
		Details:   "query exceeded its deadline",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectionRefreshFailedError creates a retryable projection refresh error.
func NewProjectionRefreshFailedError(dimension string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectionRefreshFailed,
		Message:   "Dropdown projection refresh failed",
		Details:   fmt.Sprintf("dimension: %s, error: %s", dimension, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectionCacheFailedError creates a retryable projection cache error.
func NewProjectionCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectionCacheFailed,
		Message:   "Projection cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryLogFailedError creates a retryable query log error. Logging is
// best-effort on the serving path; this code only surfaces from the dedicated
// analytics flow.
func NewQueryLogFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryLogFailed,
		Message:   "Query log insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. They are
// kept identical so process models can reference the same names.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:        "VALIDATION_FAILED",
	ErrCodeInvalidAgeValue:         "INVALID_AGE_VALUE",
	ErrCodeInvalidGVWValue:         "INVALID_GVW_VALUE",
	ErrCodeRTONotApplicable:        "RTO_NOT_APPLICABLE",
	ErrCodeInvalidInputShape:       "INVALID_INPUT_SHAPE",
	ErrCodeSnapshotUnavailable:     "SNAPSHOT_UNAVAILABLE",
	ErrCodeSnapshotQueryFailed:     "SNAPSHOT_QUERY_FAILED",
	ErrCodeSnapshotQueryTimeout:    "SNAPSHOT_QUERY_TIMEOUT",
	ErrCodeProjectionRefreshFailed: "PROJECTION_REFRESH_FAILED",
	ErrCodeProjectionCacheFailed:   "PROJECTION_CACHE_FAILED",
	ErrCodeQueryLogFailed:          "QUERY_LOG_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSnapshotUnavailable,
		ErrCodeSnapshotQueryFailed,
		ErrCodeProjectionRefreshFailed,
		ErrCodeProjectionCacheFailed,
		ErrCodeQueryLogFailed:
		return 3 // Retryable technical errors

	case ErrCodeSnapshotQueryTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Validation errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SNAPSHOT"):
		return "SNAPSHOT"
	case strings.Contains(codeStr, "PROJECTION"):
		return "PROJECTION"
	case strings.Contains(codeStr, "QUERY_LOG"):
		return "ANALYTICS"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "RTO"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
