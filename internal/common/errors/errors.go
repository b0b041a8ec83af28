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
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeEmptyMessage ErrorCode = "EMPTY_MESSAGE"

	ErrCodeGenAITimeout              ErrorCode = "GENAI_TIMEOUT"
	ErrCodeGenAIRequestFailed        ErrorCode = "GENAI_REQUEST_FAILED"
	ErrCodeClassifierOutputMalformed ErrorCode = "CLASSIFIER_OUTPUT_MALFORMED"

	ErrCodeDataStoreFailed    ErrorCode = "DATA_STORE_FAILED"
	ErrCodeSearchQueryFailed  ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodePendingStoreFailed ErrorCode = "PENDING_STORE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Job variables could not be used",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyMessageError is the validation failure for a blank chat message.
func NewEmptyMessageError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyMessage,
		Message:   "Message must not be empty",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataStoreFailedError wraps a lookup failure; safe to retry because lookups
// never mutate.
func NewDataStoreFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataStoreFailed,
		Message:   "Data store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewPendingStoreFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePendingStoreFailed,
		Message:   "Pending action store unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry & Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:              "INVALID_INPUT",
	ErrCodeEmptyMessage:              "EMPTY_MESSAGE",
	ErrCodeGenAITimeout:              "GENAI_TIMEOUT",
	ErrCodeGenAIRequestFailed:        "GENAI_REQUEST_FAILED",
	ErrCodeClassifierOutputMalformed: "CLASSIFIER_OUTPUT_MALFORMED",
	ErrCodeDataStoreFailed:           "DATA_STORE_FAILED",
	ErrCodeSearchQueryFailed:         "SEARCH_QUERY_FAILED",
	ErrCodePendingStoreFailed:        "PENDING_STORE_FAILED",
}

// GetRetryCount returns the recommended retry count for a code. Language model
// failures are never retried: the classifier degrades instead.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDataStoreFailed,
		ErrCodePendingStoreFailed:
		return 3

	case ErrCodeSearchQueryFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
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

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "GENAI") || strings.HasPrefix(codeStr, "CLASSIFIER"):
		return "AI"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "MESSAGE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
