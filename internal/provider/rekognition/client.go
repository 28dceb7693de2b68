package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied          = "AccessDeniedException"
	errCodeInvalidImageFormat    = "InvalidImageFormatException"
	errCodeImageTooLarge         = "ImageTooLargeException"
	errCodeInvalidS3Object       = "InvalidS3ObjectException"
	errCodeInvalidParameter      = "InvalidParameterException"
	errCodeThroughputExceeded    = "ProvisionedThroughputExceededException"
	errCodeThrottling            = "ThrottlingException"
	errCodeLimitExceeded         = "LimitExceededException"
	errCodeUnrecognizedClient    = "UnrecognizedClientException"
	errCodeInvalidSignatureToken = "InvalidSignatureException"
)

// RekognitionAPI is the subset of the Rekognition client used here
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// NewClientWithAPI builds a client around an existing API implementation
func NewClientWithAPI(api RekognitionAPI, cfg Config) *Client {
	return &Client{rekognition: api, config: cfg}
}

// ParseAPIError maps well-known Rekognition error codes onto package errors
func ParseAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied, errCodeUnrecognizedClient, errCodeInvalidSignatureToken:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
		case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidS3Object, errCodeInvalidParameter:
			return fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
		case errCodeThroughputExceeded, errCodeThrottling, errCodeLimitExceeded:
			return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
		}
	}

	return err
}
