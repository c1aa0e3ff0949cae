// Package health serves the liveness and datastore readiness probes.
package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks datastore connectivity.
type Pinger func(ctx context.Context) error

type Response struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

type Handler struct {
	ping    Pinger
	timeout time.Duration
}

func NewHandler(ping Pinger) *Handler {
	return &Handler{ping: ping, timeout: 3 * time.Second}
}

// Liveness handles GET /health. It never touches dependencies.
func (h *Handler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /healthz with a live round trip to the database.
// @Summary      Readiness
// @Tags         health
// @Produce      json
// @Success      200  {object}  Response
// @Failure      503  {object}  Response
// @Router       /healthz [get]
func (h *Handler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{OK: false, DB: "down"})
	}
	return c.JSON(Response{OK: true, DB: "up"})
}
