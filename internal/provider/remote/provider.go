// Package remote detects labels through a self-hosted HTTP classifier that
// accepts base64 images on POST /detect-labels.
package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/audit"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
)

const providerName = "remote"

// Provider implements provider.LabelDetector using the label service
type Provider struct {
	client      *Client
	source      provider.ImageSource
	auditLogger audit.Logger
}

// NewProvider creates a provider that downloads images from source and
// forwards them to the label service.
func NewProvider(config Config, source provider.ImageSource, auditLogger audit.Logger) *Provider {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &Provider{
		client:      NewClient(config),
		source:      source,
		auditLogger: auditLogger,
	}
}

func (p *Provider) Name() string {
	return providerName
}

// DetectLabels downloads the image and asks the service for its labels
func (p *Provider) DetectLabels(ctx context.Context, ref domain.ImageReference) ([]domain.LabelObservation, error) {
	if p.source == nil {
		return nil, ErrNoImageSource
	}

	data, err := p.source.Download(ctx, ref.String())
	if err != nil {
		p.logAudit(ctx, ref, false, err, nil)
		return nil, fmt.Errorf("image %s: download: %w", ref, err)
	}

	resp, err := p.client.DetectLabels(ctx, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		p.logAudit(ctx, ref, false, err, nil)
		return nil, fmt.Errorf("image %s: detect labels: %w", ref, err)
	}

	labels := make([]domain.LabelObservation, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		if l.Name == "" {
			continue
		}
		labels = append(labels, domain.LabelObservation{
			Name:       l.Name,
			Confidence: l.Confidence,
		})
	}

	p.logAudit(ctx, ref, true, nil, map[string]string{
		"labels_count": strconv.Itoa(len(labels)),
	})

	return labels, nil
}

func (p *Provider) logAudit(ctx context.Context, ref domain.ImageReference, success bool, err error, metadata map[string]string) {
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

// Ensure Provider implements provider.LabelDetector
var _ provider.LabelDetector = (*Provider)(nil)
