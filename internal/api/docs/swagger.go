package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AssessRequest represents a claim submission
type AssessRequest struct {
	ClaimID string   `json:"claim_id" example:"CLM-2024-0917"`
	Images  []string `json:"images" example:"s3://claims/CLM-2024-0917/roof-1.jpg"`
}

// SourceImageCounts accounts for every submitted image
type SourceImageCounts struct {
	Total               int `json:"total" example:"7"`
	Analyzed            int `json:"analyzed" example:"4"`
	DiscardedLowQuality int `json:"discarded_low_quality" example:"2"`
	DiscardedUnrelated  int `json:"discarded_unrelated" example:"1"`
	DiscardedDuplicates int `json:"discarded_duplicates" example:"2"`
	Clusters            int `json:"clusters" example:"5"`
}

// AreaSummary aggregates evidence for one area of the property
type AreaSummary struct {
	Area                 string   `json:"area" example:"roof"`
	DamageConfirmed      bool     `json:"damage_confirmed" example:"true"`
	PrimaryPeril         string   `json:"primary_peril" example:"wind"`
	Count                int      `json:"count" example:"2"`
	AvgSeverity          float64  `json:"avg_severity" example:"3.5"`
	RepresentativeImages []string `json:"representative_images" example:"s3://claims/CLM-2024-0917/roof-1.jpg"`
	Notes                string   `json:"notes" example:"Detected wind-related damage patterns."`
}

// ClaimSummary is the claim-level report
type ClaimSummary struct {
	ClaimID               string            `json:"claim_id" example:"CLM-2024-0917"`
	SourceImageCounts     SourceImageCounts `json:"source_image_counts"`
	OverallDamageSeverity float64           `json:"overall_damage_severity" example:"3.6"`
	Areas                 []AreaSummary     `json:"areas"`
	DataGaps              []string          `json:"data_gaps" example:"No attic photos"`
	Confidence            float64           `json:"confidence" example:"0.87"`
	GeneratedAt           string            `json:"generated_at" example:"2024-09-28T18:00:00Z"`
}

// ImageResult is the per-image outcome
type ImageResult struct {
	URL           string `json:"url" example:"s3://claims/CLM-2024-0917/roof-1.jpg"`
	WindDamage    bool   `json:"wind_damage" example:"true"`
	Severity      int    `json:"severity" example:"4"`
	Area          string `json:"area" example:"roof"`
	DiscardReason string `json:"discard_reason" example:"none"`
}

// AssessResponse carries the stored assessment
type AssessResponse struct {
	AssessmentID string        `json:"assessment_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Results      []ImageResult `json:"results"`
	Summary      ClaimSummary  `json:"summary"`
}

// CrossClaimMatch is an image shared with another claim
type CrossClaimMatch struct {
	URL            string `json:"url" example:"s3://claims/CLM-2024-0917/roof-1.jpg"`
	OtherClaimID   string `json:"other_claim_id" example:"CLM-2023-0311"`
	OtherURL       string `json:"other_url" example:"s3://claims/CLM-2023-0311/roof.jpg"`
	Distance       int    `json:"distance" example:"3"`
	OtherCreatedAt string `json:"other_created_at" example:"2023-03-11T09:30:00Z"`
}

// CrossMatchesResponse lists cross-claim matches
type CrossMatchesResponse struct {
	ClaimID string            `json:"claim_id" example:"CLM-2024-0917"`
	Matches []CrossClaimMatch `json:"matches"`
}

// HealthResponse is returned by /health and /ready
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Version  string `json:"version" example:"0.3.0"`
	Database string `json:"database,omitempty" example:"ok"`
}

// ErrorDetail is the body of an error
type ErrorDetail struct {
	Code    string `json:"code" example:"NO_IMAGES"`
	Message string `json:"message" example:"No images provided"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorResponse(code, message, status, description string) response.Response {
	return response.New(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}, status, description)
}

var (
	errBadRequest   = errorResponse("BAD_REQUEST", "Invalid request", "400", "Bad Request")
	errNoImages     = errorResponse("NO_IMAGES", "No images provided", "422", "Unprocessable Entity")
	errTooMany      = errorResponse("TOO_MANY_IMAGES", "Too many images for a single claim", "422", "Unprocessable Entity")
	errValidation   = errorResponse("VALIDATION_FAILED", "Request validation failed", "422", "Unprocessable Entity")
	errRateLimited  = errorResponse("RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later", "429", "Too Many Requests")
	errInternal     = errorResponse("INTERNAL_ERROR", "An unexpected error occurred", "500", "Internal Server Error")
	errNotFound     = errorResponse("ASSESSMENT_NOT_FOUND", "No assessment stored for this claim", "404", "Not Found")
	errNoPersisting = errorResponse("PERSISTENCE_DISABLED", "Assessment storage is not configured", "404", "Not Found")
)

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vendaval Claim Triage API",
		Version:     "v1.0.0",
		Description: "Wind-damage triage for property insurance claim photos: quality gate, near-duplicate clustering, damage classification and claim summary",
		Host:        "localhost:3000",
	})

	claimIDParam := parameter.StrParam("claim_id", parameter.Path, parameter.WithDescription("Claim identifier"))

	endpoints := []*endpoint.EndPoint{
		// POST /v1/claims/assess
		endpoint.New(
			endpoint.POST,
			"/v1/claims/assess",
			endpoint.WithTags("Claims"),
			endpoint.WithSummary("Assess claim photos"),
			endpoint.WithDescription("Runs the triage pipeline over the submitted image references and returns per-image results with the claim summary."),
			endpoint.WithBody(AssessRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AssessResponse{}, "200", "Claim assessed"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest, errNoImages, errTooMany, errValidation, errRateLimited, errInternal,
			}),
		),

		// POST /aggregate
		endpoint.New(
			endpoint.POST,
			"/aggregate",
			endpoint.WithTags("Claims"),
			endpoint.WithSummary("Aggregate claim photos into a summary"),
			endpoint.WithDescription("Accepts a plain request or a proxy envelope whose body is a JSON string. Returns only the claim summary."),
			endpoint.WithBody(AssessRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ClaimSummary{}, "200", "Claim summary"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest, errNoImages, errTooMany, errValidation, errRateLimited, errInternal,
			}),
		),

		// GET /v1/claims/{claim_id}
		endpoint.New(
			endpoint.GET,
			"/v1/claims/{claim_id}",
			endpoint.WithTags("Claims"),
			endpoint.WithSummary("Get the latest assessment for a claim"),
			endpoint.WithParams(claimIDParam),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AssessResponse{}, "200", "Stored assessment"),
			}),
			endpoint.WithErrors([]response.Response{
				errNotFound, errNoPersisting, errRateLimited, errInternal,
			}),
		),

		// GET /v1/claims/{claim_id}/cross-matches
		endpoint.New(
			endpoint.GET,
			"/v1/claims/{claim_id}/cross-matches",
			endpoint.WithTags("Claims"),
			endpoint.WithSummary("Find images reused across claims"),
			endpoint.WithDescription("Compares the perceptual hashes of the claim's latest assessment with images stored under other claims."),
			endpoint.WithParams(claimIDParam),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CrossMatchesResponse{}, "200", "Cross-claim matches"),
			}),
			endpoint.WithErrors([]response.Response{
				errNotFound, errNoPersisting, errRateLimited, errInternal,
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is alive"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable", Database: "unreachable"}, "503", "Database unreachable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
