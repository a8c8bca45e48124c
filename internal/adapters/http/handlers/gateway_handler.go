package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// GatewayHandler serves the enriched route table that an edge gateway
// pulls at startup (and periodically refreshes) to drive its own routing.
type GatewayHandler struct {
	routes ports.RouteService
}

// NewGatewayHandler constructs a GatewayHandler.
func NewGatewayHandler(routes ports.RouteService) *GatewayHandler {
	return &GatewayHandler{routes: routes}
}

// Routes handles GET /gateway/routes. The caller identifies itself via the
// X-Gateway-ID header; GatewayRoutes rejects the request if that service is
// not registered as a gateway.
func (h *GatewayHandler) Routes(c echo.Context) error {
	gatewayID := c.Request().Header.Get("X-Gateway-ID")
	if gatewayID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Gateway-ID header is required")
	}

	routes, err := h.routes.GatewayRoutes(c.Request().Context(), gatewayID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, routes)
}
