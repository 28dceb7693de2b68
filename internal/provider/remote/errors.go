package remote

import (
	"errors"
	"fmt"
)

var (
	ErrServiceUnavailable = errors.New("label service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from label service")
	ErrNoImageSource      = errors.New("no image source configured")
)

// StatusError is a non-2xx reply from the label service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("label service returned status %d: %s", e.StatusCode, e.Body)
}

// isClientError reports a 4xx reply, which is never retried
func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
