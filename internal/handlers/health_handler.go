package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/backend/internal/dto"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store       Pinger
	environment string
	startedAt   time.Time
}

func NewHealthHandler(store Pinger, environment string) *HealthHandler {
	return &HealthHandler{store: store, environment: environment, startedAt: time.Now()}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbStatus := "ok", "ok"
	if err := h.store.Ping(ctx); err != nil {
		status, dbStatus = "degraded", "unhealthy"
	}

	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, dto.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.environment,
		DB:          dbStatus,
	}, "Server is running"))
}
