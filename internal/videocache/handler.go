package videocache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the backing cache is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service *Service
	cache   Pinger
}

func NewHandler(service *Service, cache Pinger) *Handler {
	return &Handler{service: service, cache: cache}
}

// Register mounts the cache routes under /api/youtube plus /health.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	yt := app.Group("/api/youtube")
	yt.Get("/search", h.Search)
	yt.Get("/video/:id", h.Video)
}

func (h *Handler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Search query required")
	}

	results, err := h.service.Search(c.UserContext(), query, c.QueryInt("max", DefaultMaxResults))
	if err != nil {
		if errors.Is(err, ErrQueryRequired) {
			return errorJSON(c, fiber.StatusBadRequest, "Search query required")
		}
		slog.Error("video search failed", "query", query, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "YouTube API error")
	}
	return c.JSON(results)
}

func (h *Handler) Video(c *fiber.Ctx) error {
	id := c.Params("id")

	details, err := h.service.Video(c.UserContext(), id)
	switch {
	case err == nil:
		return c.JSON(details)
	case errors.Is(err, ErrInvalidVideoID):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid video id")
	case errors.Is(err, ErrVideoNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Video not found")
	default:
		slog.Error("video details failed", "video_id", id, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "YouTube API error")
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	status := "disconnected"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
		defer cancel()
		if h.cache.Ping(ctx) == nil {
			status = "connected"
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "redis": status})
}

func errorJSON(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
