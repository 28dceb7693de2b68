package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
)

// Store is the key/value contract CachedDetector needs
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedDetector memoises label detection per provider and image reference
type CachedDetector struct {
	next    provider.LabelDetector
	store   Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewCachedDetector(next provider.LabelDetector, store Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedDetector {
	return &CachedDetector{
		next:    next,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.With("component", "label_cache"),
	}
}

// Name reports the wrapped detector's name so metrics stay per provider
func (d *CachedDetector) Name() string {
	return d.next.Name()
}

// DetectLabels serves from cache when possible. Store failures degrade to
// a direct call; detector errors are never cached.
func (d *CachedDetector) DetectLabels(ctx context.Context, ref domain.ImageReference) ([]domain.LabelObservation, error) {
	key := d.key(ref)

	data, err := d.store.Get(ctx, key)
	switch {
	case err == nil:
		var labels []domain.LabelObservation
		if jerr := json.Unmarshal(data, &labels); jerr == nil {
			d.metrics.LabelCache.WithLabelValues("hit").Inc()
			return labels, nil
		}
		d.logger.Warn("discarding corrupt cache entry", "key", key)
	case errors.Is(err, ErrCacheMiss), errors.Is(err, ErrCacheExpired):
	default:
		d.metrics.LabelCache.WithLabelValues("error").Inc()
		d.logger.Warn("label cache read failed", "key", key, "error", err)
	}
	d.metrics.LabelCache.WithLabelValues("miss").Inc()

	labels, err := d.next.DetectLabels(ctx, ref)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(labels); err == nil {
		if err := d.store.Set(ctx, key, data, d.ttl); err != nil {
			d.metrics.LabelCache.WithLabelValues("error").Inc()
			d.logger.Warn("label cache write failed", "key", key, "error", err)
		}
	}

	return labels, nil
}

func (d *CachedDetector) key(ref domain.ImageReference) string {
	return "labels:" + d.next.Name() + ":" + ref.String()
}

var _ provider.LabelDetector = (*CachedDetector)(nil)
