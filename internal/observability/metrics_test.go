package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/crm/leads", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/crm/leads", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/crm/leads", "GET", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/crm/leads|GET|200"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMS["/api/crm/leads|GET|200"], 0.01)
	assert.Equal(t, int64(1), snap.Errors["/api/crm/leads|GET|FORBIDDEN"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerUsesRoutePattern(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/leads/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/leads/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(1), m.Snapshot().Requests["/leads/:id|GET|204"])
}

func TestDenialsAreTotalledByCode(t *testing.T) {
	m := NewMetrics()
	m.RecordError("/api/crm/leads/:id", "GET", "NOT_FOUND")
	m.RecordError("/api/crm/tasks/:id/complete", "PATCH", "FORBIDDEN")
	m.RecordError("/api/crm/leads/:id", "PUT", "NOT_FOUND")
	m.RecordError("/api/crm/leads", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	assert.Equal(t, map[string]int64{"NOT_FOUND": 2, "FORBIDDEN": 1}, snap.Denials)
	assert.Len(t, snap.Errors, 4)
}

func TestRequestLoggerStatusForReturnedErrors(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/leads/:id", func(c *fiber.Ctx) error { return apperrors.NewNotFound("lead", nil) })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/leads/abc", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere/1", nil))
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/leads/:id|GET|404"])
	assert.Equal(t, int64(1), snap.Requests["unmatched|GET|404"])
}
