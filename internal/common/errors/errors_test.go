package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewPendingStoreFailedError("get", stderrors.New("connection refused"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "PENDING_STORE_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Contains(t, bpmnErr.Details, "connection refused")

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "PENDING_STORE_FAILED", vars["errorCode"])
	assert.Equal(t, "PENDING_STORE_FAILED", vars["originalErrorCode"])
	assert.Equal(t, true, vars["retryable"])
}

func TestConvertToBPMNError_NonRetryableHasNoRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewEmptyMessageError())

	assert.Equal(t, "EMPTY_MESSAGE", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnmappedCodePassesThrough(t *testing.T) {
	bpmnErr := ConvertToBPMNError(&StandardError{Code: "SOMETHING_NEW", Timestamp: time.Now()})
	assert.Equal(t, "SOMETHING_NEW", bpmnErr.Code)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeDataStoreFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeSearchQueryFailed))
	assert.Zero(t, GetRetryCount(ErrCodeGenAITimeout))
	assert.Zero(t, GetRetryCount(ErrCodeClassifierOutputMalformed))
	assert.True(t, IsRetryableErrorCode(ErrCodePendingStoreFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
}

func TestGetErrorCategory(t *testing.T) {
	cases := map[ErrorCode]string{
		ErrCodeGenAITimeout:              "AI",
		ErrCodeClassifierOutputMalformed: "AI",
		ErrCodeDataStoreFailed:           "STORAGE",
		ErrCodePendingStoreFailed:        "STORAGE",
		ErrCodeSearchQueryFailed:         "SEARCH",
		ErrCodeInvalidInput:              "VALIDATION",
		ErrCodeEmptyMessage:              "VALIDATION",
		ErrCodeInternal:                  "OTHER",
	}
	for code, want := range cases {
		assert.Equal(t, want, GetErrorCategory(code), "code %s", code)
	}
}

func TestNormalize(t *testing.T) {
	original := NewDataStoreFailedError("find products", stderrors.New("timeout"))
	wrapped := fmt.Errorf("propose: %w", original)

	assert.Same(t, original, Normalize(wrapped))

	plain := Normalize(stderrors.New("kaboom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "kaboom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestRemainingRetries(t *testing.T) {
	retryable := NewDataStoreFailedError("lookup", stderrors.New("x"))

	assert.Equal(t, int32(2), RemainingRetries(retryable, 3))
	assert.Equal(t, int32(3), RemainingRetries(retryable, 10))
	assert.Equal(t, int32(0), RemainingRetries(retryable, 1))
	assert.Equal(t, int32(0), RemainingRetries(NewInvalidInputError("bad"), 5))
}
