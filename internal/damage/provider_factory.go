package damage

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/audit"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/config"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider/rekognition"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider/remote"
)

// ProviderType defines supported label detection backends
type ProviderType string

const (
	// ProviderTypeMock is the deterministic local detector (dev/test)
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeRekognition is AWS Rekognition DetectLabels (prod)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeRemote is a self-hosted HTTP label service
	ProviderTypeRemote ProviderType = "remote"
)

// NewLabelDetector creates a LabelDetector based on configuration.
// source supplies bytes for references Rekognition cannot read from S3.
//
// Environment variables:
//   - CLASSIFIER_PROVIDER: "mock", "rekognition" or "remote" (default: "mock")
//   - CLASSIFIER_URL: base URL of the remote label service
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-2")
//   - REKOGNITION_MAX_LABELS / REKOGNITION_MIN_CONFIDENCE
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY (via AWS SDK credential chain)
func NewLabelDetector(ctx context.Context, cfg *config.Config, source provider.ImageSource, auditLogger audit.Logger) (provider.LabelDetector, error) {
	switch ProviderType(cfg.ClassifierProvider) {
	case ProviderTypeRekognition:
		return createRekognitionProvider(ctx, cfg, source, auditLogger)

	case ProviderTypeRemote:
		return createRemoteProvider(cfg, source, auditLogger)

	case ProviderTypeMock, "":
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ClassifierProvider, ProviderTypeMock, ProviderTypeRekognition, ProviderTypeRemote)
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(ctx context.Context, cfg *config.Config, source provider.ImageSource, auditLogger audit.Logger) (provider.LabelDetector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}
	if cfg.RekognitionMaxLabels > 0 {
		rekogConfig.MaxLabels = cfg.RekognitionMaxLabels
	}
	if cfg.RekognitionMinConfidence > 0 {
		rekogConfig.MinConfidence = cfg.RekognitionMinConfidence
	}

	opts := []rekognition.ProviderOption{rekognition.WithImageSource(source)}
	if auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(auditLogger))
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

// createRemoteProvider points the HTTP label client at CLASSIFIER_URL
func createRemoteProvider(cfg *config.Config, source provider.ImageSource, auditLogger audit.Logger) (provider.LabelDetector, error) {
	if cfg.ClassifierURL == "" {
		return nil, fmt.Errorf("create remote provider: CLASSIFIER_URL is empty")
	}

	remoteConfig := remote.DefaultConfig()
	remoteConfig.BaseURL = cfg.ClassifierURL
	if cfg.RekognitionMaxLabels > 0 {
		remoteConfig.MaxLabels = int(cfg.RekognitionMaxLabels)
	}
	if cfg.RekognitionMinConfidence > 0 {
		remoteConfig.MinConfidence = float64(cfg.RekognitionMinConfidence)
	}
	if cfg.ClassifyTimeout > 0 {
		remoteConfig.Timeout = cfg.ClassifyTimeout
	}

	return remote.NewProvider(remoteConfig, source, auditLogger), nil
}
