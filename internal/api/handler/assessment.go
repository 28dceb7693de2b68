package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// AssessmentService is the orchestrator surface the handlers need
type AssessmentService interface {
	Assess(ctx context.Context, claimID string, refs []domain.ImageReference) (*domain.Assessment, error)
	GetLatest(ctx context.Context, claimID string) (*domain.Assessment, error)
	CrossMatches(ctx context.Context, claimID string) ([]domain.CrossClaimMatch, error)
}

// AssessmentHandler serves the claim assessment endpoints
type AssessmentHandler struct {
	service AssessmentService
	logger  *slog.Logger
}

func NewAssessmentHandler(service AssessmentService, logger *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger,
	}
}

// AssessRequest is the claim submission body
type AssessRequest struct {
	ClaimID string   `json:"claim_id"`
	Images  []string `json:"images"`
}

// AssessResponse is returned by POST /v1/claims/assess and GET /v1/claims/:claim_id
type AssessResponse struct {
	AssessmentID uuid.UUID            `json:"assessment_id"`
	Results      []domain.ImageResult `json:"results"`
	Summary      domain.ClaimSummary  `json:"summary"`
}

// CrossMatchesResponse lists images shared with other claims
type CrossMatchesResponse struct {
	ClaimID string                   `json:"claim_id"`
	Matches []domain.CrossClaimMatch `json:"matches"`
}

// Assess POST /v1/claims/assess
func (h *AssessmentHandler) Assess(c *fiber.Ctx) error {
	a, err := h.run(c)
	if err != nil {
		return err
	}
	return c.JSON(newAssessResponse(a))
}

// Aggregate POST /aggregate - responds with the claim summary only
func (h *AssessmentHandler) Aggregate(c *fiber.Ctx) error {
	a, err := h.run(c)
	if err != nil {
		return err
	}
	return c.JSON(a.Summary)
}

// Get GET /v1/claims/:claim_id
func (h *AssessmentHandler) Get(c *fiber.Ctx) error {
	claimID := c.Params("claim_id")

	a, err := h.service.GetLatest(c.UserContext(), claimID)
	if err != nil {
		return err
	}
	return c.JSON(newAssessResponse(a))
}

// CrossMatches GET /v1/claims/:claim_id/cross-matches
func (h *AssessmentHandler) CrossMatches(c *fiber.Ctx) error {
	claimID := c.Params("claim_id")

	matches, err := h.service.CrossMatches(c.UserContext(), claimID)
	if err != nil {
		return err
	}
	return c.JSON(CrossMatchesResponse{ClaimID: claimID, Matches: matches})
}

func (h *AssessmentHandler) run(c *fiber.Ctx) (*domain.Assessment, error) {
	req, err := ParseAssessRequest(c.Body())
	if err != nil {
		return nil, err
	}

	refs := make([]domain.ImageReference, len(req.Images))
	for i, img := range req.Images {
		refs[i] = domain.ImageReference(strings.TrimSpace(img))
	}

	h.logger.Debug("assessment requested",
		"claim_id", req.ClaimID,
		"images", len(refs))

	return h.service.Assess(c.UserContext(), req.ClaimID, refs)
}

// envelope is the API Gateway proxy event shape, whose body is a JSON string
type envelope struct {
	Body json.RawMessage `json:"body"`
}

// ParseAssessRequest accepts either a plain request body or a proxy
// envelope carrying it as a string. An empty body is an empty request.
func ParseAssessRequest(body []byte) (AssessRequest, error) {
	req := AssessRequest{ClaimID: domain.UnknownClaimID}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return req, domain.ErrBadRequest.WithError(err)
	}
	if len(env.Body) > 0 && env.Body[0] == '"' {
		var inner string
		if err := json.Unmarshal(env.Body, &inner); err != nil {
			return req, domain.ErrBadRequest.WithError(err)
		}
		if strings.TrimSpace(inner) == "" {
			inner = "{}"
		}
		body = []byte(inner)
	}

	var parsed AssessRequest
	if err := json.Unmarshal(body, &parsed); err != nil {
		return req, domain.ErrBadRequest.WithError(err)
	}
	if parsed.ClaimID == "" {
		parsed.ClaimID = domain.UnknownClaimID
	}
	return parsed, nil
}

func newAssessResponse(a *domain.Assessment) AssessResponse {
	return AssessResponse{
		AssessmentID: a.ID,
		Results:      a.Results,
		Summary:      a.Summary,
	}
}
