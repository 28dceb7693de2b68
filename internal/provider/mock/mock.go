package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"sync"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/provider"
)

// keywordLabels associa palavras na referência a um rótulo de dano
var keywordLabels = []struct {
	keyword string
	label   string
}{
	{"shingle", "Shingle Damage"},
	{"roof", "Roof Damage"},
	{"siding", "Siding Damage"},
	{"wind", "Wind Damage"},
	{"garage", "Garage Damage"},
	{"door", "Door Damage"},
}

// Provider implements provider.LabelDetector for development and tests.
// Labels are derived from the reference text, with confidences seeded by
// its sha256, so the same reference always yields the same labels.
type Provider struct {
	mu       sync.RWMutex
	scripted map[domain.ImageReference]scripted
}

type scripted struct {
	labels []domain.LabelObservation
	err    error
}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{scripted: make(map[domain.ImageReference]scripted)}
}

// SetLabels fixes the labels returned for ref
func (p *Provider) SetLabels(ref domain.ImageReference, labels ...domain.LabelObservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripted[ref] = scripted{labels: labels}
}

// SetError makes DetectLabels fail for ref
func (p *Provider) SetError(ref domain.ImageReference, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripted[ref] = scripted{err: err}
}

// Name implements provider.LabelDetector
func (p *Provider) Name() string {
	return "mock"
}

// DetectLabels simula a detecção de rótulos
func (p *Provider) DetectLabels(ctx context.Context, ref domain.ImageReference) ([]domain.LabelObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	s, ok := p.scripted[ref]
	p.mu.RUnlock()
	if ok {
		return s.labels, s.err
	}

	labels := []domain.LabelObservation{
		{Name: "Building", Confidence: 98.7},
		{Name: "House", Confidence: 97.2},
	}

	lower := strings.ToLower(ref.String())
	for _, kw := range keywordLabels {
		if strings.Contains(lower, kw.keyword) {
			labels = append(labels, domain.LabelObservation{
				Name:       kw.label,
				Confidence: confidenceFor(ref),
			})
			break
		}
	}

	return labels, nil
}

// confidenceFor maps the reference hash into [45,100)
func confidenceFor(ref domain.ImageReference) float64 {
	sum := sha256.Sum256([]byte(ref))
	v := binary.BigEndian.Uint16(sum[:2])
	return 45 + float64(v%5500)/100
}

var _ provider.LabelDetector = (*Provider)(nil)
