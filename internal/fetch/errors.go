package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies why an image could not be retrieved or decoded
type Kind string

const (
	KindInvalidReference Kind = "invalid_reference"
	KindNotFound         Kind = "not_found"
	KindNetwork          Kind = "network"
	KindStatus           Kind = "status"
	KindTooLarge         Kind = "too_large"
	KindDecode           Kind = "decode"
)

var (
	// ErrUnsupportedScheme is returned for references that no fetcher handles
	ErrUnsupportedScheme = errors.New("unsupported reference scheme")

	// ErrBodyTooLarge is returned when the payload exceeds the configured cap
	ErrBodyTooLarge = errors.New("image exceeds maximum size")

	// ErrTooManyPixels is returned when decoded dimensions exceed the pixel cap
	ErrTooManyPixels = errors.New("image exceeds maximum pixel count")

	// ErrS3Disabled is returned when an S3 locator is seen without an S3 client
	ErrS3Disabled = errors.New("s3 fetching is not configured")
)

// FetchError reports an unusable image reference
type FetchError struct {
	Ref  string
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Ref, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newError(ref string, kind Kind, err error) *FetchError {
	return &FetchError{Ref: ref, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err, or "" if it is not a FetchError
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
