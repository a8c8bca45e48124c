package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/core/registry"
	"github.com/kestrel-dev/serviceatlas/internal/adapters/http/handlers"
	"github.com/kestrel-dev/serviceatlas/internal/adapters/http/middleware"
	"github.com/kestrel-dev/serviceatlas/internal/observability"
)

// Dependencies holds everything the router needs to build handlers and
// wire middleware.
type Dependencies struct {
	Registry     ports.Registry
	Dependencies ports.DependencyService
	Routes       ports.RouteService
	Discovery    ports.Discovery
	Health       ports.HealthEngine
	Modules      *registry.Registry // optional: module registry for health checks
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// Router handles HTTP routing and handler registration.
type Router struct {
	echo *echo.Echo
	deps Dependencies

	serviceHandler    *handlers.ServiceHandler
	dependencyHandler *handlers.DependencyHandler
	routeHandler      *handlers.RouteHandler
	gatewayHandler    *handlers.GatewayHandler
	monitorHandler    *handlers.MonitorHandler

	rateLimiter *middleware.RateLimiter
}

// NewRouter creates a new Router instance.
func NewRouter(e *echo.Echo, deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Router{
		echo:              e,
		deps:              deps,
		serviceHandler:    handlers.NewServiceHandler(deps.Registry, deps.Discovery),
		dependencyHandler: handlers.NewDependencyHandler(deps.Dependencies),
		routeHandler:      handlers.NewRouteHandler(deps.Routes),
		gatewayHandler:    handlers.NewGatewayHandler(deps.Routes),
		monitorHandler:    handlers.NewMonitorHandler(deps.Discovery, deps.Health),
	}
}

// RegisterRoutes registers all HTTP routes.
func (r *Router) RegisterRoutes() {
	e := r.echo

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(r.deps.Logger))
	e.Use(middleware.SecureHeaders())
	e.Use(echomw.BodyLimit("1M"))

	r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	e.Use(r.rateLimiter.Middleware())
	e.Use(middleware.RequireJSONContentType())

	e.GET("/health", r.monitorHandler.Health)

	api := e.Group("/api/v1")

	svc := api.Group("/services")
	svc.POST("", r.serviceHandler.Register)
	svc.GET("", r.serviceHandler.List)
	svc.GET("/:id", r.serviceHandler.Get)
	svc.PUT("/:id", r.serviceHandler.Update)
	svc.DELETE("/:id", r.serviceHandler.Delete)
	svc.POST("/:id/heartbeat", r.serviceHandler.Heartbeat)
	svc.GET("/:id/dependencies", r.dependencyHandler.Dependencies)
	svc.GET("/:id/dependents", r.dependencyHandler.Dependents)

	api.GET("/gateways", r.serviceHandler.Gateways)
	api.GET("/discover/:id", r.serviceHandler.Discover)

	dep := api.Group("/dependencies")
	dep.POST("", r.dependencyHandler.Create)
	dep.GET("", r.dependencyHandler.List)
	dep.DELETE("/:id", r.dependencyHandler.Delete)

	api.GET("/topology", r.dependencyHandler.Topology)

	route := api.Group("/routes")
	route.POST("", r.routeHandler.Create)
	route.GET("", r.routeHandler.List)
	route.GET("/:id", r.routeHandler.Get)
	route.PUT("/:id", r.routeHandler.Update)
	route.DELETE("/:id", r.routeHandler.Delete)

	api.GET("/gateway/routes", r.gatewayHandler.Routes)

	monitor := api.Group("/monitor")
	monitor.GET("/overview", r.monitorHandler.Overview)
	monitor.POST("/health-check", r.monitorHandler.RunHealthCheck)

	e.GET("/health/modules", r.modulesHealth)

	if r.deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.deps.Metrics.Handler()))
	}
}

// modulesHealth reports per-module health when a module registry is wired.
func (r *Router) modulesHealth(c echo.Context) error {
	result := map[string]any{"status": "healthy"}

	if r.deps.Modules != nil {
		modules := make(map[string]string)
		for name, err := range r.deps.Modules.HealthAll(c.Request().Context()) {
			if err != nil {
				modules[name] = err.Error()
				result["status"] = "degraded"
			} else {
				modules[name] = "healthy"
			}
		}
		result["modules"] = modules
	}

	status := http.StatusOK
	if result["status"] == "degraded" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, result)
}

// Stop cleans up router resources (rate limiter cleanup goroutine).
func (r *Router) Stop() {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}
