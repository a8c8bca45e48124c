package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/registry"
	internalhttp "github.com/kestrel-dev/serviceatlas/internal/adapters/http"
	"github.com/kestrel-dev/serviceatlas/internal/adapters/repository"
	"github.com/kestrel-dev/serviceatlas/internal/config"
	"github.com/kestrel-dev/serviceatlas/internal/core/services"
	"github.com/kestrel-dev/serviceatlas/internal/defaults"
	"github.com/kestrel-dev/serviceatlas/internal/observability"
)

// Engine wraps all application components and manages the lifecycle.
// Usage: New() -> (optional Registry().Register overrides) -> Init() -> Run()
type Engine struct {
	reg    *registry.Registry
	db     *repository.DB
	echo   *echo.Echo
	logger *slog.Logger
	router *internalhttp.Router
	cfg    *config.Config
}

// New creates a new Engine, loading config, connecting to the database,
// creating all repositories and services, and registering default
// modules. It does NOT call InitAll or start the server, allowing callers
// to register module overrides before initialization.
func New(ctx context.Context) (*Engine, error) {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := repository.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("connected to database")

	// Repositories
	serviceRepo := repository.NewServiceRepository(db)
	dependencyRepo := repository.NewDependencyRepository(db)
	routeRepo := repository.NewRouteRepository(db)

	metrics, err := observability.New()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	// Services
	registrySvc := services.NewRegistry(serviceRepo, routeRepo, logger).WithMetrics(metrics)
	healthEngine := services.NewHealthEngine(serviceRepo, cfg.Registry, cfg.Bootstrap, logger).WithMetrics(metrics)
	dependencySvc := services.NewDependencyService(dependencyRepo, serviceRepo)
	routeSvc := services.NewRouteService(routeRepo, serviceRepo)
	discoverySvc := services.NewDiscovery(serviceRepo)
	bootstrapSvc := services.NewBootstrap(registrySvc, dependencySvc, routeSvc, cfg.Server, cfg.Bootstrap, logger)

	// Module registry with defaults
	reg := registry.New(logger)
	defaults.RegisterAll(reg, defaults.Deps{
		HealthEngine: healthEngine,
		Bootstrap:    bootstrapSvc,
		Metrics:      metrics,
		BootstrapCfg: cfg.Bootstrap,
		Logger:       logger,
	})

	// Echo + router
	e := echo.New()
	e.HideBanner = true

	router := internalhttp.NewRouter(e, internalhttp.Dependencies{
		Registry:     registrySvc,
		Dependencies: dependencySvc,
		Routes:       routeSvc,
		Discovery:    discoverySvc,
		Health:       healthEngine,
		Modules:      reg,
		Metrics:      metrics,
		Logger:       logger,
	})

	return &Engine{
		reg:    reg,
		db:     db,
		echo:   e,
		logger: logger,
		router: router,
		cfg:    cfg,
	}, nil
}

// Registry returns the module registry for registering overrides.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Pool returns the underlying database connection pool.
func (e *Engine) Pool() *pgxpool.Pool {
	return e.db.Pool
}

// Echo returns the underlying Echo instance for route extensions.
func (e *Engine) Echo() *echo.Echo {
	return e.echo
}

// Logger returns the configured logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Init initializes all registered modules and registers HTTP routes.
// Call this after registering any module overrides.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.reg.InitAll(ctx); err != nil {
		return fmt.Errorf("initialize modules: %w", err)
	}

	e.router.RegisterRoutes()

	return nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (e *Engine) Run(ctx context.Context) error {
	addr := e.cfg.Server.Address()

	go func() {
		e.logger.Info("starting server", slog.String("address", addr))
		if err := e.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	fmt.Printf("\nservice registry listening on http://localhost:%d\n\n", e.cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nshutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}

// Shutdown performs graceful shutdown of all components.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.router.Stop()

	if err := e.reg.ShutdownAll(ctx); err != nil {
		e.logger.Error("module shutdown error", slog.String("error", err.Error()))
	}

	e.db.Close()

	if err := e.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("echo shutdown: %w", err)
	}
	return nil
}
