package handlers

import (
	"libradesk/internal/config"
	"libradesk/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg      *config.Config
	notifier *services.NotificationService
	dbCheck  func() error
}

// NewHealthHandler creates a new health handler. dbCheck pings the database.
func NewHealthHandler(cfg *config.Config, notifier *services.NotificationService, dbCheck func() error) *HealthHandler {
	return &HealthHandler{cfg: cfg, notifier: notifier, dbCheck: dbCheck}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "📚 LibraDesk API v1.0 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, database and notification webhook health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if h.dbCheck != nil {
		if err := h.dbCheck(); err != nil {
			dbStatus = "unhealthy"
		}
	}

	notify := "disabled"
	if h.notifier != nil && h.notifier.IsEnabled() {
		notify = h.notifier.BreakerState()
	}

	status, code := "ok", fiber.StatusOK
	if dbStatus != "healthy" {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
			"notify":   notify,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "LibraDesk API v1.0",
		"version": "1.0.0",
	})
}
