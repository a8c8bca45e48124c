package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// ServiceHandler exposes the registry's service lifecycle over HTTP.
type ServiceHandler struct {
	registry  ports.Registry
	discovery ports.Discovery
}

// NewServiceHandler constructs a ServiceHandler.
func NewServiceHandler(registry ports.Registry, discovery ports.Discovery) *ServiceHandler {
	return &ServiceHandler{registry: registry, discovery: discovery}
}

type serviceRequest struct {
	ID              *string        `json:"id"`
	Name            *string        `json:"name"`
	Host            *string        `json:"host"`
	Port            *int           `json:"port"`
	Protocol        *string        `json:"protocol"`
	HealthCheckPath *string        `json:"health_check_path"`
	IsGateway       *bool          `json:"is_gateway"`
	BasePath        *string        `json:"base_path"`
	ServiceMeta     map[string]any `json:"service_meta"`
}

func (r serviceRequest) toDraft() ports.ServiceDraft {
	draft := ports.ServiceDraft{
		ID: r.ID, Name: r.Name, Host: r.Host, Port: r.Port,
		HealthCheckPath: r.HealthCheckPath, IsGateway: r.IsGateway,
		BasePath: r.BasePath, ServiceMeta: r.ServiceMeta,
	}
	if r.Protocol != nil {
		proto := domain.Protocol(*r.Protocol)
		draft.Protocol = &proto
	}
	return draft
}

// Register handles POST /services.
func (h *ServiceHandler) Register(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	svc, created, err := h.registry.Register(c.Request().Context(), req.toDraft())
	if err != nil {
		return mapError(err)
	}
	if created {
		return c.JSON(http.StatusCreated, svc)
	}
	return c.JSON(http.StatusOK, svc)
}

// List handles GET /services.
func (h *ServiceHandler) List(c echo.Context) error {
	var filter ports.ServiceFilter
	if status := c.QueryParam("status"); status != "" {
		s := domain.ServiceStatus(status)
		filter.Status = &s
	}
	if gw := c.QueryParam("is_gateway"); gw == "true" || gw == "false" {
		v := gw == "true"
		filter.IsGateway = &v
	}

	svcs, err := h.registry.GetAll(c.Request().Context(), filter)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, svcs)
}

// Get handles GET /services/:id.
func (h *ServiceHandler) Get(c echo.Context) error {
	svc, err := h.registry.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, svc)
}

// Update handles PUT /services/:id.
func (h *ServiceHandler) Update(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	svc, err := h.registry.Update(c.Request().Context(), c.Param("id"), req.toDraft())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, svc)
}

// Delete handles DELETE /services/:id.
func (h *ServiceHandler) Delete(c echo.Context) error {
	removed, err := h.registry.Unregister(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// Heartbeat handles POST /services/:id/heartbeat.
func (h *ServiceHandler) Heartbeat(c echo.Context) error {
	svc, err := h.registry.Heartbeat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, svc)
}

// Gateways handles GET /gateways.
func (h *ServiceHandler) Gateways(c echo.Context) error {
	gateways, err := h.discovery.GetGateways(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, gateways)
}

// Discover handles GET /discover/:id.
func (h *ServiceHandler) Discover(c echo.Context) error {
	svc, err := h.discovery.Discover(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, svc)
}
