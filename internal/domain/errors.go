package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches any AppError carrying the same code, so wrapped copies created
// by WithError still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrAssessmentNotFound = &AppError{
		Code:       "ASSESSMENT_NOT_FOUND",
		Message:    "No assessment stored for this claim",
		StatusCode: 404,
	}

	ErrPersistenceDisabled = &AppError{
		Code:       "PERSISTENCE_DISABLED",
		Message:    "Assessment storage is not configured",
		StatusCode: 404,
	}

	ErrNoImages = &AppError{
		Code:       "NO_IMAGES",
		Message:    "No images provided",
		StatusCode: 422,
	}

	ErrTooManyImages = &AppError{
		Code:       "TOO_MANY_IMAGES",
		Message:    "Too many images for a single claim",
		StatusCode: 422,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
