package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies Error() produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationFailed,
		Message: "Latitude must be between -90 and 90",
	}

	expected := "validation_failed: Latitude must be between -90 and 90"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "prediction service unreachable", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewAppError(ErrCodeUpstreamPredictionFailed, "model exploded", nil))

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeUpstreamPredictionFailed {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeUpstreamPredictionFailed)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeConflictSubmissionInFlight, http.StatusConflict},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusServiceUnavailable},
		{ErrCodeUpstreamPredictionFailed, http.StatusUnprocessableEntity},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrCodeInternalRender, http.StatusInternalServerError},
		{ErrorCode("something_new"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorCodeIsUpstream(t *testing.T) {
	if !ErrCodeUpstreamUnavailable.IsUpstream() {
		t.Error("upstream_unavailable should be upstream")
	}
	if ErrCodeValidationFailed.IsUpstream() {
		t.Error("validation_failed should not be upstream")
	}
}

func TestAppErrorWithDetailsDoesNotMutate(t *testing.T) {
	base := NewAppErrorWithDetails(ErrCodeValidationFailed, "invalid", nil, map[string]any{"a": 1})
	merged := base.WithDetails(map[string]any{"b": 2})

	if len(base.Details) != 1 {
		t.Errorf("original details mutated: %v", base.Details)
	}
	if merged.Details["a"] != 1 || merged.Details["b"] != 2 {
		t.Errorf("merged details = %v", merged.Details)
	}
	if merged.Code != base.Code || merged.Message != base.Message {
		t.Error("WithDetails should preserve code and message")
	}
}
