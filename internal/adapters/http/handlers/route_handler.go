package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// RouteHandler exposes gateway-route CRUD and the enriched gateway-routes
// projection consumed by gateways at request time.
type RouteHandler struct {
	routes ports.RouteService
}

// NewRouteHandler constructs a RouteHandler.
func NewRouteHandler(routes ports.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

type routeRequest struct {
	GatewayServiceID *string            `json:"gateway_service_id"`
	PathPattern      *string            `json:"path_pattern"`
	Methods          []string           `json:"methods"`
	TargetServiceID  *string            `json:"target_service_id"`
	StripPrefix      *bool              `json:"strip_prefix"`
	StripPath        *string            `json:"strip_path"`
	Priority         *int               `json:"priority"`
	Enabled          *bool              `json:"enabled"`
	AuthConfig       *domain.AuthConfig `json:"auth_config"`
}

func (r routeRequest) toDraft() ports.RouteDraft {
	return ports.RouteDraft{
		GatewayServiceID: r.GatewayServiceID,
		PathPattern:      r.PathPattern,
		Methods:          r.Methods,
		TargetServiceID:  r.TargetServiceID,
		StripPrefix:      r.StripPrefix,
		StripPath:        r.StripPath,
		Priority:         r.Priority,
		Enabled:          r.Enabled,
		AuthConfig:       r.AuthConfig,
	}
}

func parseRouteID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// Create handles POST /routes.
func (h *RouteHandler) Create(c echo.Context) error {
	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	route, err := h.routes.Create(c.Request().Context(), req.toDraft())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, route)
}

// Get handles GET /routes/:id.
func (h *RouteHandler) Get(c echo.Context) error {
	id, err := parseRouteID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid route id")
	}

	route, err := h.routes.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, route)
}

// Update handles PUT /routes/:id.
func (h *RouteHandler) Update(c echo.Context) error {
	id, err := parseRouteID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid route id")
	}

	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	route, err := h.routes.Update(c.Request().Context(), id, req.toDraft())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, route)
}

// Delete handles DELETE /routes/:id.
func (h *RouteHandler) Delete(c echo.Context) error {
	id, err := parseRouteID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid route id")
	}

	removed, err := h.routes.Delete(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "route not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /routes?gateway_id=&enabled_only=.
func (h *RouteHandler) List(c echo.Context) error {
	var gatewayID *string
	if gw := c.QueryParam("gateway_id"); gw != "" {
		gatewayID = &gw
	}
	enabledOnly := c.QueryParam("enabled_only") == "true"

	routes, err := h.routes.ListAll(c.Request().Context(), gatewayID, enabledOnly)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, routes)
}
