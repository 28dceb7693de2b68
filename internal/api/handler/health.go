package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by /health
const Version = "0.3.0"

// Pinger checks a dependency; *pgxpool.Pool satisfies it
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

// NewHealthHandler builds the health endpoints; db may be nil when
// persistence is disabled.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(HealthResponse{Status: "ready", Database: "disabled"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:   "unavailable",
			Database: "unreachable",
		})
	}

	return c.JSON(HealthResponse{Status: "ready", Database: "ok"})
}
