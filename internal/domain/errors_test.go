package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNoImages,
			expected: "No images provided",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrAssessmentNotFound.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if !errors.Is(newErr, ErrInternal) {
		t.Errorf("errors.Is should match the sentinel by code")
	}

	if errors.Is(newErr, ErrBadRequest) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("assess: %w", ErrValidationFailed.WithError(errors.New("images[3] is empty")))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}

	if appErr.Code != "VALIDATION_FAILED" {
		t.Errorf("Code = %v, want VALIDATION_FAILED", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrAssessmentNotFound, "ASSESSMENT_NOT_FOUND", 404},
		{ErrPersistenceDisabled, "PERSISTENCE_DISABLED", 404},
		{ErrNoImages, "NO_IMAGES", 422},
		{ErrTooManyImages, "TOO_MANY_IMAGES", 422},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
