package damage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// slowDetector blocks until the context is done
type slowDetector struct{}

func (slowDetector) Name() string { return "slow" }

func (slowDetector) DetectLabels(ctx context.Context, _ domain.ImageReference) ([]domain.LabelObservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestClassifier_Classify(t *testing.T) {
	detector := mock.New()
	detector.SetLabels("roof.jpg",
		domain.LabelObservation{Name: "House", Confidence: 99},
		domain.LabelObservation{Name: "Roof Damage", Confidence: 92},
		domain.LabelObservation{Name: "Siding Damage", Confidence: 97},
	)
	detector.SetLabels("siding.jpg", domain.LabelObservation{Name: "Wind Damage", Confidence: 61})
	detector.SetLabels("weak.jpg", domain.LabelObservation{Name: "Garage Damage", Confidence: 31})
	detector.SetLabels("kitchen.jpg",
		domain.LabelObservation{Name: "Kitchen", Confidence: 99},
		domain.LabelObservation{Name: "roof damage", Confidence: 95},
	)
	detector.SetLabels("empty.jpg")
	detector.SetError("broken.jpg", errors.New("throttled"))

	metrics := observability.NewMetricsForTesting()
	c := NewClassifier(detector, DefaultConfig(), metrics, testLogger())

	tests := []struct {
		ref          domain.ImageReference
		wantDamaged  bool
		wantArea     domain.DamageArea
		wantSeverity domain.SeverityLevel
	}{
		{ref: "roof.jpg", wantDamaged: true, wantArea: domain.AreaRoof, wantSeverity: 4},
		{ref: "siding.jpg", wantDamaged: true, wantArea: domain.AreaSiding, wantSeverity: 2},
		{ref: "weak.jpg", wantDamaged: true, wantArea: domain.AreaGarage, wantSeverity: 0},
		{ref: "kitchen.jpg"},
		{ref: "empty.jpg"},
		{ref: "broken.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			res := c.Classify(context.Background(), tt.ref)

			assert.Equal(t, tt.ref, res.Reference)
			if !tt.wantDamaged {
				assert.Nil(t, res.DamageDetected)
				assert.Equal(t, domain.DiscardUnrelated, res.DiscardReason)
				assert.Equal(t, domain.SeverityNone, res.Severity)
				return
			}
			require.True(t, res.IsDamaged())
			require.NotNil(t, res.Area)
			assert.Equal(t, tt.wantArea, *res.Area)
			assert.Equal(t, tt.wantSeverity, res.Severity)
			assert.Equal(t, domain.DiscardNone, res.DiscardReason)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClassifierErrors.WithLabelValues("mock")))
}

func TestClassifier_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	metrics := observability.NewMetricsForTesting()

	c := NewClassifier(slowDetector{}, cfg, metrics, testLogger())

	res := c.Classify(context.Background(), "hang.jpg")
	assert.Equal(t, domain.DiscardUnrelated, res.DiscardReason)
	assert.Nil(t, res.DamageDetected)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClassifierErrors.WithLabelValues("slow")))
}

func TestClassifier_CustomTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LabelAreas = domain.LabelAreaMap{"Hail Damage": domain.AreaRoof}
	b, err := domain.NewBreakpoints([]float64{95, 85, 70, 50})
	require.NoError(t, err)
	cfg.Breakpoints = b

	c := NewClassifier(mock.New(), cfg, observability.NewMetricsForTesting(), testLogger())

	res := c.Evaluate("x.jpg", []domain.LabelObservation{
		{Name: "Roof Damage", Confidence: 99},
		{Name: "Hail Damage", Confidence: 80},
	})
	require.True(t, res.IsDamaged())
	assert.Equal(t, domain.AreaRoof, *res.Area)
	assert.Equal(t, domain.SeverityLevel(2), res.Severity)
}
