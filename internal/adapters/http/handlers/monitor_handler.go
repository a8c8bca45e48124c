package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// MonitorHandler exposes fleet-wide observability: the stats overview, an
// on-demand health-check trigger, and the liveness probe.
type MonitorHandler struct {
	discovery ports.Discovery
	health    ports.HealthEngine
}

// NewMonitorHandler constructs a MonitorHandler.
func NewMonitorHandler(discovery ports.Discovery, health ports.HealthEngine) *MonitorHandler {
	return &MonitorHandler{discovery: discovery, health: health}
}

// Overview handles GET /monitor/overview.
func (h *MonitorHandler) Overview(c echo.Context) error {
	stats, err := h.discovery.GetStats(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RunHealthCheck handles POST /monitor/health-check.
func (h *MonitorHandler) RunHealthCheck(c echo.Context) error {
	summary, err := h.health.RunHealthCheckNow(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Health handles GET /health. It always returns 200 once the process is
// serving requests; it reports liveness, not fleet health.
func (h *MonitorHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
