package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/audit"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/dedup"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/fetch"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/quality"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/summary"
)

type ClustererInterface interface {
	Cluster(ctx context.Context, refs []domain.ImageReference) dedup.Result
}

type ClassifierInterface interface {
	Classify(ctx context.Context, ref domain.ImageReference) domain.ImageResult
}

type SummaryBuilderInterface interface {
	Build(in summary.Input) domain.ClaimSummary
}

// AssessmentStore reads persisted assessments back
type AssessmentStore interface {
	GetLatestByClaimID(ctx context.Context, claimID string) (*domain.Assessment, error)
	FindCrossClaimMatches(ctx context.Context, claimID string, maxDistance int) ([]domain.CrossClaimMatch, error)
}

// ResultSink receives every finished assessment. Sink errors are logged
// and never fail the request.
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, a *domain.Assessment) error
}

// AssessmentConfig holds the orchestrator's own settings
type AssessmentConfig struct {
	Quality               quality.Thresholds
	HashDistanceThreshold int
	Workers               int
	MaxImages             int
	Provider              string
}

type AssessmentService struct {
	clusterer   ClustererInterface
	classifier  ClassifierInterface
	builder     SummaryBuilderInterface
	store       AssessmentStore
	sinks       []ResultSink
	config      AssessmentConfig
	metrics     *observability.Metrics
	auditLogger audit.Logger
	logger      *slog.Logger
}

func NewAssessmentService(
	clusterer ClustererInterface,
	classifier ClassifierInterface,
	builder SummaryBuilderInterface,
	cfg AssessmentConfig,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AssessmentService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &AssessmentService{
		clusterer:   clusterer,
		classifier:  classifier,
		builder:     builder,
		config:      cfg,
		metrics:     metrics,
		auditLogger: &audit.NoOpLogger{},
		logger:      logger.With("component", "assessment"),
	}
}

// WithStore enables read-back of persisted assessments
func (s *AssessmentService) WithStore(store AssessmentStore) *AssessmentService {
	s.store = store
	return s
}

// WithSinks appends result sinks, called in order after each assessment
func (s *AssessmentService) WithSinks(sinks ...ResultSink) *AssessmentService {
	s.sinks = append(s.sinks, sinks...)
	return s
}

func (s *AssessmentService) WithAuditLogger(l audit.Logger) *AssessmentService {
	s.auditLogger = l
	return s
}

// Validate checks a request before any image is touched
func (s *AssessmentService) Validate(refs []domain.ImageReference) error {
	if len(refs) == 0 {
		return domain.ErrNoImages
	}
	if s.config.MaxImages > 0 && len(refs) > s.config.MaxImages {
		return domain.ErrTooManyImages.WithError(
			fmt.Errorf("%d images, maximum %d", len(refs), s.config.MaxImages))
	}
	for i, r := range refs {
		if strings.TrimSpace(r.String()) == "" {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("images[%d] is empty", i))
		}
	}
	return nil
}

// Assess runs the triage pipeline for one claim: near-duplicates are
// collapsed first, only cluster representatives are quality-checked, and
// only images passing quality reach the classifier. Results has one entry
// per input reference, in input order.
func (s *AssessmentService) Assess(ctx context.Context, claimID string, refs []domain.ImageReference) (*domain.Assessment, error) {
	if err := s.Validate(refs); err != nil {
		s.metrics.ClaimsAssessed.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if claimID == "" {
		claimID = domain.UnknownClaimID
	}

	start := time.Now()
	logger := s.logger.With("claim_id", claimID)

	clusters := s.clusterer.Cluster(ctx, refs)
	results := make([]domain.ImageResult, len(refs))

	for _, f := range clusters.Failed {
		results[f.Index] = domain.Discarded(f.Reference, domain.DiscardLowQuality)
		kind := string(fetch.KindOf(f.Err))
		if kind == "" {
			kind = "hash"
		}
		s.metrics.FetchErrors.WithLabelValues(kind).Inc()
	}
	for _, i := range clusters.Duplicates() {
		results[i] = domain.Discarded(refs[i], domain.DiscardDuplicate)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, rep := range clusters.Kept {
		g.Go(func() error {
			results[rep.Index] = s.evaluate(gctx, logger, rep)
			return nil
		})
	}
	_ = g.Wait()

	sum := s.builder.Build(summary.Input{
		ClaimID:  claimID,
		Results:  results,
		Analyzed: len(clusters.Kept),
		Clusters: len(clusters.Clusters),
	})

	assessment := &domain.Assessment{
		ID:           uuid.New(),
		Summary:      sum,
		Results:      results,
		Fingerprints: fingerprints(clusters),
	}

	s.record(assessment, time.Since(start))
	logger.Info("claim assessed",
		"assessment_id", assessment.ID,
		"images", sum.SourceImageCounts.Total,
		"analyzed", sum.SourceImageCounts.Analyzed,
		"clusters", sum.SourceImageCounts.Clusters,
		"overall_damage_severity", sum.OverallDamageSeverity,
		"duration", time.Since(start))

	_ = s.auditLogger.Log(ctx, audit.Event{
		ClaimID:   claimID,
		EventType: audit.EventClaimAssessed,
		Provider:  s.config.Provider,
		Success:   true,
		Metadata: map[string]string{
			"assessment_id":           assessment.ID.String(),
			"images":                  strconv.Itoa(sum.SourceImageCounts.Total),
			"overall_damage_severity": strconv.FormatFloat(sum.OverallDamageSeverity, 'f', 1, 64),
		},
	})

	s.publish(ctx, logger, assessment)

	return assessment, nil
}

// evaluate runs the quality gate and, when it passes, the classifier
func (s *AssessmentService) evaluate(ctx context.Context, logger *slog.Logger, rep dedup.Member) domain.ImageResult {
	verdict := quality.Assess(rep.Image, s.config.Quality)
	if !verdict.Accepted {
		logger.Debug("image rejected by quality gate",
			"image", rep.Reference,
			"blur_score", verdict.BlurScore,
			"brightness", verdict.Brightness)
		return domain.Discarded(rep.Reference, domain.DiscardLowQuality)
	}
	return s.classifier.Classify(ctx, rep.Reference)
}

func (s *AssessmentService) record(a *domain.Assessment, elapsed time.Duration) {
	s.metrics.ClaimsAssessed.WithLabelValues("success").Inc()
	s.metrics.AssessmentDuration.Observe(elapsed.Seconds())
	s.metrics.ClustersPerClaim.Observe(float64(a.Summary.SourceImageCounts.Clusters))
	for _, r := range a.Results {
		s.metrics.ImagesProcessed.WithLabelValues(string(r.DiscardReason)).Inc()
	}
}

func (s *AssessmentService) publish(ctx context.Context, logger *slog.Logger, a *domain.Assessment) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, a); err != nil {
			s.metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
			logger.Error("result sink failed",
				"sink", sink.Name(),
				"assessment_id", a.ID,
				"error", err)
		}
	}
}

// GetLatest returns the most recent stored assessment for claimID
func (s *AssessmentService) GetLatest(ctx context.Context, claimID string) (*domain.Assessment, error) {
	if s.store == nil {
		return nil, domain.ErrPersistenceDisabled
	}
	a, err := s.store.GetLatestByClaimID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: get assessment: %w", claimID, err)
	}
	return a, nil
}

// CrossMatches lists images of claimID that match images from other claims
func (s *AssessmentService) CrossMatches(ctx context.Context, claimID string) ([]domain.CrossClaimMatch, error) {
	if s.store == nil {
		return nil, domain.ErrPersistenceDisabled
	}
	matches, err := s.store.FindCrossClaimMatches(ctx, claimID, s.config.HashDistanceThreshold)
	if err != nil {
		return nil, fmt.Errorf("claim %s: cross matches: %w", claimID, err)
	}
	return matches, nil
}

func fingerprints(res dedup.Result) []domain.ImageFingerprint {
	var out []domain.ImageFingerprint
	for ci, cl := range res.Clusters {
		for mi, m := range cl.Members {
			out = append(out, domain.ImageFingerprint{
				Reference:      m.Reference,
				Hash:           uint64(m.Fingerprint),
				Sharpness:      m.Sharpness,
				Cluster:        ci,
				Representative: mi == cl.Representative,
			})
		}
	}
	return out
}
