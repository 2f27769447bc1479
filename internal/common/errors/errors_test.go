// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Error(string, map[string]interface{}) {}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "lever validation is terminal",
			err:             NewLeverValidationFailedError("revenueImpact missing"),
			expectedCode:    "LEVER_VALIDATION_FAILED",
			expectedRetries: 0,
		},
		{
			name:            "query failures retry",
			err:             NewQueryExecutionFailedError("loadAttributes", fmt.Errorf("connection reset")),
			expectedCode:    "QUERY_EXECUTION_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "cache outage gets a short retry budget",
			err:             NewCacheUnavailableError(fmt.Errorf("dial tcp: refused")),
			expectedCode:    "CACHE_UNAVAILABLE",
			expectedRetries: 2,
		},
		{
			name:            "sizing mismatch is a configuration bug",
			err:             NewSizingRuleMismatchError("impact 3.2, effort 2.8"),
			expectedCode:    "SIZING_RULE_MISMATCH",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, tt.err.Retryable, bpmnErr.Retryable)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_UnmappedCodeFallsThrough(t *testing.T) {
	bpmnErr := ConvertToBPMNError(&StandardError{Code: "SOMETHING_NEW", Retryable: false})
	assert.Equal(t, "SOMETHING_NEW", bpmnErr.Code)
	assert.Zero(t, bpmnErr.Retries)
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewUseCaseNotFoundError("uc-404"))
	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "USE_CASE_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars["errorDetails"], "uc-404")
	assert.NotEmpty(t, vars["originalErrorCode"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeLeverValidationFailed))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeEngineConfigInvalid))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSummaryIndexingFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("MYSTERY"))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseConnectionFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodePhaseRulesExhausted))
}

func TestErrorHandler_NormalizeError(t *testing.T) {
	h := NewErrorHandler(noopLogger{})

	std := NewNotificationSendFailedError("email", fmt.Errorf("throttled"))
	assert.Same(t, std, h.normalizeError(std))

	wrapped := h.normalizeError(fmt.Errorf("plain failure"))
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), wrapped.Code)
	assert.Equal(t, "plain failure", wrapped.Details)
	assert.False(t, wrapped.Retryable)
}
