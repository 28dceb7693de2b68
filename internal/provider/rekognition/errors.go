package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the image bytes or S3 object cannot be processed
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrThrottled indicates Rekognition rejected the call for rate reasons
	ErrThrottled = errors.New("rekognition request throttled")

	// ErrNoImageSource indicates a non-S3 reference with no way to read its bytes
	ErrNoImageSource = errors.New("no image source configured for non-s3 reference")
)
