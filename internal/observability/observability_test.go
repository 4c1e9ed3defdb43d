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
	"go.uber.org/zap/zaptest/observer"

	"github.com/shiftdesk/staff-scheduler/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tasks", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tasks", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/tasks", "GET", "NOT_FOUND")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Requests["/api/tasks|GET|200"])
	assert.Equal(t, int64(1), s.Errors["/api/tasks|GET|NOT_FOUND"])
	assert.InDelta(t, 20.0, s.AvgLatencyMS["/api/tasks|GET|200"], 0.001)

	s.Requests["/api/tasks|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/api/tasks|GET|200"], "snapshot must be a copy")

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(RequestIDKey, "req-1")
		return c.Next()
	})
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("missing")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/7", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(1), metrics.Snapshot().Requests["/items/:id|GET|404"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerConsoleDebug(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
