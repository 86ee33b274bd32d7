package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeSource,
				Message: "primary ranking extraction returned no records",
			},
			wantMessage: "[SOURCE] primary ranking extraction returned no records",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeNetwork,
				Message: "failed to fetch ranking page",
				Cause:   fmt.Errorf("connection refused"),
			},
			wantMessage: "[NETWORK] failed to fetch ranking page: connection refused",
		},
		{
			name: "parsing error with cause",
			appError: &AppError{
				Type:    ErrTypeParsing,
				Message: "feed response is not valid JSON",
				Cause:   errors.New("unexpected end of input"),
			},
			wantMessage: "[PARSING] feed response is not valid JSON: unexpected end of input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	err := NewNetworkError("fetch failed", cause)

	require.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &appErr)
	assert.Equal(t, ErrTypeNetwork, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewSourceError("flow lookup exhausted", nil).
		WithContext("requested_date", "20260830").
		WithContext("attempts", 7)

	assert.Equal(t, "20260830", err.Context["requested_date"])
	assert.Equal(t, 7, err.Context["attempts"])
}

func TestNewErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"network", NewNetworkError("x", nil), ErrTypeNetwork},
		{"parsing", NewParsingError("x", nil), ErrTypeParsing},
		{"source", NewSourceError("x", nil), ErrTypeSource},
		{"export", NewExportError("x", nil), ErrTypeExport},
		{"validation", NewAppValidationError("x"), ErrTypeValidation},
		{"not found", NewNotFoundError("result"), ErrTypeNotFound},
		{"config", NewConfigError("x", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.wantType, tt.err.Type)
		})
	}
}

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "bad date", map[string]string{"date": "not YYYYMMDD"})

	assert.Equal(t, "bad date", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	assert.NotNil(t, err.Details)
}
