package rekognition

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/audit"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/fetch"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
)

const (
	// maxImageSize is the maximum inline image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	providerName = "rekognition"
)

// Provider implements provider.LabelDetector using Rekognition DetectLabels.
// S3 locators are passed by reference; anything else is downloaded through
// the image source and sent inline.
type Provider struct {
	client      *Client
	source      provider.ImageSource
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

// WithImageSource sets where non-S3 image bytes are read from
func WithImageSource(source provider.ImageSource) ProviderOption {
	return func(p *Provider) {
		p.source = source
	}
}

// Ensure Provider implements provider.LabelDetector interface at compile time
var _ provider.LabelDetector = (*Provider)(nil)

// NewProvider creates a Rekognition label detector using the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithClient(client, opts...), nil
}

// NewProviderWithClient creates a provider around an existing client
func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provider.LabelDetector
func (p *Provider) Name() string {
	return providerName
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, ref domain.ImageReference, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: audit.EventLabelsDetected,
		ImageRef:  ref.String(),
		Provider:  providerName,
		Success:   success,
		Metadata:  metadata,
	}

	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

// validateImage checks if inline image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// buildImage resolves the reference into a Rekognition image payload. The
// second result reports whether inline bytes were re-encoded to fit.
func (p *Provider) buildImage(ctx context.Context, ref domain.ImageReference) (*types.Image, bool, error) {
	if loc, ok := fetch.ParseS3Location(ref.String()); ok {
		return &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(loc.Bucket),
				Name:   aws.String(loc.Key),
			},
		}, false, nil
	}

	if p.source == nil {
		return nil, false, ErrNoImageSource
	}
	data, err := p.source.Download(ctx, ref.String())
	if err != nil {
		return nil, false, fmt.Errorf("download image: %w", err)
	}
	data, reencoded, err := fitInline(ref.String(), data)
	if err != nil {
		return nil, false, err
	}
	if err := validateImage(data); err != nil {
		return nil, false, err
	}
	return &types.Image{Bytes: data}, reencoded, nil
}

// DetectLabels calls Rekognition DetectLabels and returns the labels in the
// order the service ranked them.
func (p *Provider) DetectLabels(ctx context.Context, ref domain.ImageReference) ([]domain.LabelObservation, error) {
	image, reencoded, err := p.buildImage(ctx, ref)
	if err != nil {
		p.logAudit(ctx, ref, false, err, nil)
		return nil, fmt.Errorf("image %s: %w", ref, err)
	}

	input := &rekognition.DetectLabelsInput{
		Image:         image,
		MaxLabels:     aws.Int32(p.client.config.MaxLabels),
		MinConfidence: aws.Float32(p.client.config.MinConfidence),
	}

	output, err := p.client.rekognition.DetectLabels(ctx, input)
	if err != nil {
		parsed := ParseAPIError(err)
		p.logAudit(ctx, ref, false, parsed, nil)
		return nil, fmt.Errorf("image %s: detect labels: %w", ref, parsed)
	}

	labels := make([]domain.LabelObservation, 0, len(output.Labels))
	for _, l := range output.Labels {
		if l.Name == nil {
			continue
		}
		labels = append(labels, domain.LabelObservation{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}

	metadata := map[string]string{
		"labels_count": strconv.Itoa(len(labels)),
	}
	if reencoded {
		metadata["inline_reencoded"] = "true"
	}
	p.logAudit(ctx, ref, true, nil, metadata)

	return labels, nil
}
