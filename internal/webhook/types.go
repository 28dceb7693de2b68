package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

const (
	EventClaimAssessed = "claim.assessed"

	SignatureHeader = "X-Vendaval-Signature"
	EventHeader     = "X-Vendaval-Event"
	DeliveryHeader  = "X-Vendaval-Delivery"
)

// EventPayload is the JSON body POSTed to the configured endpoint
type EventPayload struct {
	ID           uuid.UUID             `json:"id"`
	Type         string                `json:"type"`
	ClaimID      string                `json:"claim_id"`
	AssessmentID uuid.UUID             `json:"assessment_id"`
	Data         domain.ResultDocument `json:"data"`
	Timestamp    time.Time             `json:"timestamp"`
}
