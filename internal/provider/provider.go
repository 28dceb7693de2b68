package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// LabelDetector is the image label-detection collaborator. Implementations
// return labels in the order the backend ranks them, confidences in [0,100].
type LabelDetector interface {
	// DetectLabels returns the labels found in the referenced image
	DetectLabels(ctx context.Context, ref domain.ImageReference) ([]domain.LabelObservation, error)

	// Name identifies the backend in logs, metrics and audit events
	Name() string
}

// ImageSource yields the raw bytes behind a reference, for backends that
// cannot read the image location themselves.
type ImageSource interface {
	Download(ctx context.Context, ref string) ([]byte, error)
}
