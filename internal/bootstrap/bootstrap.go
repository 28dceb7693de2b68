// Package bootstrap assembles the triage pipeline from configuration. It is
// shared by the HTTP server and the command-line runner.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/audit"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/cache"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/config"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/damage"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/database"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/dedup"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/fetch"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/quality"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/repository"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/service"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/sink"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/summary"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/webhook"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/ws"
)

// Components is a fully wired pipeline plus the resources it holds
type Components struct {
	Service  *service.AssessmentService
	Detector provider.LabelDetector
	// Pool and Cache are nil when DATABASE_URL is unset
	Pool  *pgxpool.Pool
	Cache *cache.PGCache
	// Hub is nil unless WithLiveFeed was given
	Hub *ws.Hub

	logger *slog.Logger
}

type options struct {
	liveFeed bool
}

// Option customises Build
type Option func(*options)

// WithLiveFeed adds a websocket hub as a result sink. The caller runs it.
func WithLiveFeed() Option {
	return func(o *options) {
		o.liveFeed = true
	}
}

// Build wires fetchers, the label detector, clustering, classification,
// the summary builder and every configured sink.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) (*Components, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	pipeline, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}

	c := &Components{logger: logger}

	fetcher, err := newFetcher(ctx, cfg, pipeline)
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewSlogLogger(logger)

	detector, err := damage.NewLabelDetector(ctx, cfg, fetcher, auditLogger)
	if err != nil {
		return nil, err
	}

	var sinks []service.ResultSink
	var repo *repository.AssessmentRepository

	if cfg.PersistenceEnabled() {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		c.Cache = cache.NewPGCache(pool)

		detector = cache.NewCachedDetector(detector, c.Cache, cfg.LabelCacheTTL, metrics, logger)

		repo = repository.NewAssessmentRepository(pool)
		sinks = append(sinks, repo)
		logger.Info("persistence enabled", slog.Duration("label_cache_ttl", cfg.LabelCacheTTL))
	}
	c.Detector = detector

	if cfg.WebhookURL != "" {
		sinks = append(sinks, webhook.NewNotifier(webhook.DefaultConfig(cfg.WebhookURL, cfg.WebhookSecret), logger))
	}
	if cfg.ResultFile != "" {
		sinks = append(sinks, sink.NewFileSink(cfg.ResultFile))
	}
	if o.liveFeed {
		c.Hub = ws.NewHub()
		sinks = append(sinks, c.Hub)
	}

	clusterer := dedup.NewClusterer(fetcher, dedup.Config{
		HashDistanceThreshold: pipeline.HashDistanceThreshold,
		BlurThreshold:         pipeline.BlurThreshold,
		Workers:               pipeline.Workers,
	}, logger)

	classifier := damage.NewClassifier(detector, damage.Config{
		LabelAreas:  pipeline.LabelAreas,
		Breakpoints: pipeline.Breakpoints,
		Timeout:     pipeline.ClassifyTimeout,
	}, metrics, logger)

	svc := service.NewAssessmentService(clusterer, classifier, summary.NewBuilder(nil), service.AssessmentConfig{
		Quality: quality.Thresholds{
			Blur: pipeline.BlurThreshold,
			Dark: pipeline.DarkThreshold,
		},
		HashDistanceThreshold: pipeline.HashDistanceThreshold,
		Workers:               pipeline.Workers,
		MaxImages:             pipeline.MaxImagesPerClaim,
		Provider:              detector.Name(),
	}, metrics, logger).
		WithSinks(sinks...).
		WithAuditLogger(auditLogger)
	if repo != nil {
		svc.WithStore(repo)
	}
	c.Service = svc

	logger.Info("pipeline ready",
		slog.String("provider", detector.Name()),
		slog.Int("workers", pipeline.Workers),
		slog.Int("sinks", len(sinks)),
	)

	return c, nil
}

func newFetcher(ctx context.Context, cfg *config.Config, p config.Pipeline) (*fetch.Router, error) {
	httpFetcher := fetch.NewHTTPFetcher(fetch.HTTPConfig{
		Timeout:   p.FetchTimeout,
		MaxBytes:  p.MaxImageBytes,
		MaxPixels: p.MaxImagePixels,
		UserAgent: fetch.DefaultHTTPConfig().UserAgent,
	}, nil)

	if !cfg.S3Enabled {
		return fetch.NewRouter(httpFetcher, nil).WithMaxPixels(p.MaxImagePixels), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	s3Fetcher := fetch.NewS3Fetcher(s3.NewFromConfig(awsCfg), p.FetchTimeout, p.MaxImageBytes).
		WithMaxPixels(p.MaxImagePixels)

	return fetch.NewRouter(httpFetcher, s3Fetcher).WithMaxPixels(p.MaxImagePixels), nil
}

// RunCacheCleanup deletes expired label cache rows every interval until ctx
// is cancelled. It returns immediately when no cache is configured.
func (c *Components) RunCacheCleanup(ctx context.Context, interval time.Duration) {
	if c.Cache == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Cache.CleanupExpired(ctx)
			if err != nil {
				c.logger.Warn("label cache cleanup failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				c.logger.Debug("label cache cleaned", slog.Int64("deleted", n))
			}
		}
	}
}

// Close releases the database pool, if any
func (c *Components) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
