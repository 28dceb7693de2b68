// Package summary aggregates per-image outcomes into the claim report.
package summary

import (
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

const (
	// PerilWind is the only peril this pipeline reports
	PerilWind = "wind"

	// confirmedSeverity is the minimum severity that counts as confirmed evidence
	confirmedSeverity domain.SeverityLevel = 2
	// confirmedImages is the number of confirmed images an area needs
	confirmedImages = 2

	// fixedConfidence is a static placeholder, not a derived statistic
	fixedConfidence = 0.87
)

// dataGaps is a static annotation, not computed from the input
var dataGaps = []string{"No attic photos"}

// Input is everything the builder needs for one claim
type Input struct {
	ClaimID string
	// Results holds one entry per input image, in input order
	Results []domain.ImageResult
	// Analyzed is the size of the deduplicated final image set
	Analyzed int
	// Clusters is the number of near-duplicate clusters formed
	Clusters int
}

// Builder produces ClaimSummary values; the clock stamps generated_at
type Builder struct {
	clock clockwork.Clock
}

// NewBuilder returns a builder using clock (real clock when nil)
func NewBuilder(clock clockwork.Clock) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Builder{clock: clock}
}

// Build never fails; an input with no damaged images yields zero severity
// and no areas.
func (b *Builder) Build(in Input) domain.ClaimSummary {
	claimID := in.ClaimID
	if claimID == "" {
		claimID = domain.UnknownClaimID
	}

	counts := domain.SourceImageCounts{
		Total:    len(in.Results),
		Analyzed: in.Analyzed,
		Clusters: in.Clusters,
	}

	var damaged []domain.ImageResult
	for _, r := range in.Results {
		switch r.DiscardReason {
		case domain.DiscardLowQuality:
			counts.DiscardedLowQuality++
		case domain.DiscardUnrelated:
			counts.DiscardedUnrelated++
		case domain.DiscardDuplicate:
			counts.DiscardedDuplicates++
		}
		if r.IsDamaged() {
			damaged = append(damaged, r)
		}
	}

	return domain.ClaimSummary{
		ClaimID:               claimID,
		SourceImageCounts:     counts,
		OverallDamageSeverity: OverallSeverity(damaged),
		Areas:                 Areas(damaged),
		DataGaps:              append([]string(nil), dataGaps...),
		Confidence:            fixedConfidence,
		GeneratedAt:           b.clock.Now().UTC().Truncate(time.Second),
	}
}

// severityWeight is the aggregation weight of one damaged image. Each
// image is weighted by its own severity, which biases the overall score
// toward the worst photos.
func severityWeight(s domain.SeverityLevel) float64 {
	return float64(s)
}

// OverallSeverity is the weighted mean of severities, rounded to one
// decimal; 0 when there are no damaged images or all weights are zero.
func OverallSeverity(damaged []domain.ImageResult) float64 {
	var weighted, weights float64
	for _, r := range damaged {
		w := severityWeight(r.Severity)
		weighted += float64(r.Severity) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return round1(weighted / weights)
}

// Areas groups damaged images by area, in order of first appearance
func Areas(damaged []domain.ImageResult) []domain.AreaSummary {
	areas := []domain.AreaSummary{}
	index := map[domain.DamageArea]int{}
	sums := map[domain.DamageArea]float64{}

	for _, r := range damaged {
		area := domain.AreaUnknown
		if r.Area != nil {
			area = *r.Area
		}

		i, ok := index[area]
		if !ok {
			i = len(areas)
			index[area] = i
			areas = append(areas, domain.AreaSummary{
				Area:                 area,
				RepresentativeImages: []domain.ImageReference{},
			})
		}

		if r.Severity >= confirmedSeverity {
			a := &areas[i]
			a.Count++
			sums[area] += float64(r.Severity)
			if len(a.RepresentativeImages) == 0 {
				a.RepresentativeImages = append(a.RepresentativeImages, r.Reference)
			}
		}
	}

	for i := range areas {
		a := &areas[i]
		a.DamageConfirmed = a.Count >= confirmedImages
		if a.DamageConfirmed {
			peril := PerilWind
			a.PrimaryPeril = &peril
			a.AvgSeverity = round1(sums[a.Area] / float64(a.Count))
			a.Notes = fmt.Sprintf("Damage detected in %s area.", a.Area)
		} else {
			a.Notes = fmt.Sprintf("Insufficient evidence to confirm damage in %s area.", a.Area)
		}
	}

	return areas
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
