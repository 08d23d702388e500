package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/observability"
	"github.com/spec-kit/ppa-crm/internal/persistence"
)

const readyTimeout = 2 * time.Second

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	metrics     *observability.Metrics
}

func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis, metrics: metrics}
}

// Live answers as long as the process serves HTTP.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Metrics returns request counters since start.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// Ready reports 200 when Postgres answers. Redis only backs login throttling,
// so its outage degrades the report without failing readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	checks := fiber.Map{"postgres": "ok"}
	if err := h.postgres.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "database unavailable",
				"details": checks,
			},
		})
	}

	status := "ready"
	switch {
	case !h.redis.Shared():
		checks["redis"] = "process-local"
	case h.redis.Ping(ctx) != nil:
		checks["redis"] = "unreachable"
		status = "degraded"
	default:
		checks["redis"] = "ok"
	}
	return c.JSON(fiber.Map{"status": status, "dependencies": checks})
}
