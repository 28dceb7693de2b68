package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

func TestProvider_DetectLabels(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		ref       domain.ImageReference
		wantLabel string
	}{
		{name: "roof keyword", ref: "https://x/claim1/roof_north.jpg", wantLabel: "Roof Damage"},
		{name: "shingle wins over roof", ref: "https://x/roof_shingle.jpg", wantLabel: "Shingle Damage"},
		{name: "garage keyword", ref: "s3://b/GARAGE.png", wantLabel: "Garage Damage"},
		{name: "no keyword", ref: "https://x/kitchen.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := p.DetectLabels(ctx, tt.ref)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(labels), 2)

			if tt.wantLabel == "" {
				assert.Len(t, labels, 2)
				return
			}
			last := labels[len(labels)-1]
			assert.Equal(t, tt.wantLabel, last.Name)
			assert.GreaterOrEqual(t, last.Confidence, 45.0)
			assert.Less(t, last.Confidence, 100.0)
		})
	}
}

func TestProvider_Deterministic(t *testing.T) {
	p := New()
	a, err := p.DetectLabels(context.Background(), "https://x/roof.jpg")
	require.NoError(t, err)
	b, err := p.DetectLabels(context.Background(), "https://x/roof.jpg")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProvider_Scripted(t *testing.T) {
	p := New()
	boom := errors.New("boom")

	p.SetLabels("a", domain.LabelObservation{Name: "Wind Damage", Confidence: 77})
	p.SetError("b", boom)

	labels, err := p.DetectLabels(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []domain.LabelObservation{{Name: "Wind Damage", Confidence: 77}}, labels)

	_, err = p.DetectLabels(context.Background(), "b")
	assert.ErrorIs(t, err, boom)
}

func TestProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().DetectLabels(ctx, "https://x/roof.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "mock", New().Name())
}
