package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// DependencyHandler exposes dependency-edge management and topology.
type DependencyHandler struct {
	dependencies ports.DependencyService
}

// NewDependencyHandler constructs a DependencyHandler.
func NewDependencyHandler(dependencies ports.DependencyService) *DependencyHandler {
	return &DependencyHandler{dependencies: dependencies}
}

type dependencyRequest struct {
	Source      string  `json:"source_service_id"`
	Target      string  `json:"target_service_id"`
	Description *string `json:"description"`
}

// Create handles POST /dependencies.
func (h *DependencyHandler) Create(c echo.Context) error {
	var req dependencyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	dep, err := h.dependencies.Create(c.Request().Context(), req.Source, req.Target, req.Description)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, dep)
}

// List handles GET /dependencies.
func (h *DependencyHandler) List(c echo.Context) error {
	deps, err := h.dependencies.ListAll(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, deps)
}

// Delete handles DELETE /dependencies/:id.
func (h *DependencyHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dependency id")
	}

	removed, err := h.dependencies.Delete(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "dependency not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// listForService serves GET /services/:id/dependencies and /services/:id/dependents.
func (h *DependencyHandler) listForService(c echo.Context, direction ports.DependencyDirection) error {
	deps, err := h.dependencies.ListForService(c.Request().Context(), c.Param("id"), direction)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, deps)
}

// Dependencies handles GET /services/:id/dependencies (outgoing edges).
func (h *DependencyHandler) Dependencies(c echo.Context) error {
	return h.listForService(c, ports.DirectionOutgoing)
}

// Dependents handles GET /services/:id/dependents (incoming edges).
func (h *DependencyHandler) Dependents(c echo.Context) error {
	return h.listForService(c, ports.DirectionIncoming)
}

// Topology handles GET /topology.
func (h *DependencyHandler) Topology(c echo.Context) error {
	topology, err := h.dependencies.Topology(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, topology)
}
