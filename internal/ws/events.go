package ws

import (
	"time"
)

type EventType string

const (
	EventClaimAssessed EventType = "claim.assessed"
)

// AllClaims subscribes a client to every claim
const AllClaims = "*"

type Event struct {
	ClaimID   string      `json:"claim_id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
