// Package damage turns label-detection output into per-image damage verdicts.
package damage

import (
	"context"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
)

// Config for the classifier
type Config struct {
	LabelAreas  domain.LabelAreaMap
	Breakpoints domain.Breakpoints
	Timeout     time.Duration
}

// DefaultConfig uses the standard label table, breakpoints and a 15s timeout
func DefaultConfig() Config {
	return Config{
		LabelAreas:  domain.DefaultLabelAreaMap(),
		Breakpoints: domain.DefaultBreakpoints(),
		Timeout:     15 * time.Second,
	}
}

// Classifier maps detected labels onto a damage area and severity
type Classifier struct {
	detector provider.LabelDetector
	config   Config
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewClassifier wires the classifier to its label detector
func NewClassifier(detector provider.LabelDetector, cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Classifier {
	return &Classifier{
		detector: detector,
		config:   cfg,
		metrics:  metrics,
		logger:   logger.With("component", "classifier"),
	}
}

// Classify never fails: a detector error, timeout or a label set with no
// recognised damage label all produce an "unrelated" discard.
func (c *Classifier) Classify(ctx context.Context, ref domain.ImageReference) domain.ImageResult {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	labels, err := c.detector.DetectLabels(ctx, ref)
	c.metrics.ClassifierDuration.WithLabelValues(c.detector.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ClassifierErrors.WithLabelValues(c.detector.Name()).Inc()
		c.logger.WarnContext(ctx, "label detection failed",
			"image", ref, "provider", c.detector.Name(), "error", err)
		return domain.Discarded(ref, domain.DiscardUnrelated)
	}

	return c.Evaluate(ref, labels)
}

// Evaluate scans labels in order; the first one present in the label table
// decides area and severity.
func (c *Classifier) Evaluate(ref domain.ImageReference, labels []domain.LabelObservation) domain.ImageResult {
	for _, l := range labels {
		area, ok := c.config.LabelAreas.Lookup(l.Name)
		if !ok {
			continue
		}
		severity := c.config.Breakpoints.Severity(l.Confidence)
		c.logger.Debug("damage label matched",
			"image", ref, "label", l.Name, "confidence", l.Confidence,
			"area", area, "severity", severity)
		return domain.Damaged(ref, area, severity)
	}

	c.logger.Debug("no damage label", "image", ref, "labels", len(labels))
	return domain.Discarded(ref, domain.DiscardUnrelated)
}
