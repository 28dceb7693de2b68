package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownClaimID is used when the caller does not supply a claim identifier.
const UnknownClaimID = "UNKNOWN"

// ImageReference locates a source photo (http(s) URL or s3://bucket/key)
type ImageReference string

func (r ImageReference) String() string {
	return string(r)
}

// DiscardReason explains why an image did not contribute a damage verdict
type DiscardReason string

const (
	DiscardNone       DiscardReason = "none"
	DiscardLowQuality DiscardReason = "low_quality"
	DiscardUnrelated  DiscardReason = "unrelated"
	DiscardDuplicate  DiscardReason = "duplicate"
)

// QualityVerdict is the outcome of the blur/brightness check on one image
type QualityVerdict struct {
	Accepted   bool    `json:"accepted"`
	BlurScore  float64 `json:"blur_score"`
	Brightness float64 `json:"brightness"`
}

// LabelObservation is a single label returned by the classifier collaborator
type LabelObservation struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ImageResult is the per-image outcome of the pipeline.
// DamageDetected is nil when the image was never evaluated (discarded).
type ImageResult struct {
	Reference      ImageReference `json:"url"`
	DamageDetected *bool          `json:"wind_damage"`
	Severity       SeverityLevel  `json:"severity"`
	Area           *DamageArea    `json:"area"`
	DiscardReason  DiscardReason  `json:"discard_reason"`
}

// IsDamaged reports whether the image was evaluated and damage was found
func (r ImageResult) IsDamaged() bool {
	return r.DamageDetected != nil && *r.DamageDetected
}

// Discarded builds the result for an image that was never classified
func Discarded(ref ImageReference, reason DiscardReason) ImageResult {
	return ImageResult{
		Reference:     ref,
		Severity:      SeverityNone,
		DiscardReason: reason,
	}
}

// Damaged builds the result for an image whose labels matched a damage area
func Damaged(ref ImageReference, area DamageArea, severity SeverityLevel) ImageResult {
	detected := true
	return ImageResult{
		Reference:      ref,
		DamageDetected: &detected,
		Severity:       severity,
		Area:           &area,
		DiscardReason:  DiscardNone,
	}
}

// SourceImageCounts accounts for every input image
type SourceImageCounts struct {
	Total               int `json:"total"`
	Analyzed            int `json:"analyzed"`
	DiscardedLowQuality int `json:"discarded_low_quality"`
	DiscardedUnrelated  int `json:"discarded_unrelated"`
	DiscardedDuplicates int `json:"discarded_duplicates"`
	Clusters            int `json:"clusters"`
}

// AreaSummary aggregates damage evidence for one area of the property
type AreaSummary struct {
	Area                 DamageArea       `json:"area"`
	DamageConfirmed      bool             `json:"damage_confirmed"`
	PrimaryPeril         *string          `json:"primary_peril"`
	Count                int              `json:"count"`
	AvgSeverity          float64          `json:"avg_severity"`
	RepresentativeImages []ImageReference `json:"representative_images"`
	Notes                string           `json:"notes"`
}

// ClaimSummary is the claim-level report produced by the pipeline
type ClaimSummary struct {
	ClaimID               string            `json:"claim_id"`
	SourceImageCounts     SourceImageCounts `json:"source_image_counts"`
	OverallDamageSeverity float64           `json:"overall_damage_severity"`
	Areas                 []AreaSummary     `json:"areas"`
	DataGaps              []string          `json:"data_gaps"`
	Confidence            float64           `json:"confidence"`
	GeneratedAt           time.Time         `json:"generated_at"`
}

// ImageFingerprint records where a fetched image landed during clustering
type ImageFingerprint struct {
	Reference      ImageReference `json:"url"`
	Hash           uint64         `json:"hash"`
	Sharpness      float64        `json:"sharpness"`
	Cluster        int            `json:"cluster"`
	Representative bool           `json:"representative"`
}

// Assessment bundles the summary with the per-image audit trail
type Assessment struct {
	ID           uuid.UUID          `json:"id"`
	Summary      ClaimSummary       `json:"summary"`
	Results      []ImageResult      `json:"results"`
	Fingerprints []ImageFingerprint `json:"-"`
}

// CrossClaimMatch is an image of one claim that perceptually matches an
// image submitted under a different claim.
type CrossClaimMatch struct {
	Reference      ImageReference `json:"url"`
	OtherClaimID   string         `json:"other_claim_id"`
	OtherReference ImageReference `json:"other_url"`
	Distance       int            `json:"distance"`
	OtherCreatedAt time.Time      `json:"other_created_at"`
}

// ResultDocument is the {"results","summary"} document handed to sinks
type ResultDocument struct {
	Results []ImageResult `json:"results"`
	Summary ClaimSummary  `json:"summary"`
}

func (a *Assessment) Document() ResultDocument {
	return ResultDocument{Results: a.Results, Summary: a.Summary}
}
