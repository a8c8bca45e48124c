package services

import (
	"context"
	"log/slog"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/internal/config"
)

var _ ports.Bootstrap = (*Bootstrap)(nil)

// Bootstrap preloads services.yaml and, when configured, self-registers
// the registry as a service in its own fleet. Ported from
// original_source/app/services/preload.py and main.py's lifespan
// self-register block.
type Bootstrap struct {
	registry     ports.Registry
	dependencies ports.DependencyService
	routes       ports.RouteService
	server       config.ServerConfig
	boot         config.BootstrapConfig
	logger       *slog.Logger
}

// NewBootstrap constructs a Bootstrap.
func NewBootstrap(registry ports.Registry, dependencies ports.DependencyService, routes ports.RouteService, server config.ServerConfig, boot config.BootstrapConfig, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{
		registry: registry, dependencies: dependencies, routes: routes,
		server: server, boot: boot, logger: logger,
	}
}

// Preload registers every service, dependency, and route named in doc.
// Each entry is attempted independently: a failure is logged and skipped
// rather than aborting the rest of the document.
func (b *Bootstrap) Preload(ctx context.Context, doc ports.BootstrapDocument) error {
	idByName := make(map[string]string, len(doc.Services))

	for _, entry := range doc.Services {
		draft := ports.ServiceDraft{
			ID:   entry.ID,
			Name: &entry.Name,
			Host: &entry.Host,
			Port: &entry.Port,
		}
		if entry.Protocol != nil {
			proto := domain.Protocol(*entry.Protocol)
			draft.Protocol = &proto
		}
		draft.HealthCheckPath = entry.HealthCheckPath
		draft.IsGateway = entry.IsGateway
		if entry.Metadata != nil {
			draft.ServiceMeta = entry.Metadata
		}

		svc, _, err := b.registry.Register(ctx, draft)
		if err != nil {
			b.logger.Error("bootstrap: register service failed",
				slog.String("name", entry.Name), slog.String("error", err.Error()))
			continue
		}
		idByName[entry.Name] = svc.ID
	}

	for _, entry := range doc.Dependencies {
		source := resolveID(idByName, entry.Source)
		target := resolveID(idByName, entry.Target)
		if _, err := b.dependencies.Create(ctx, source, target, entry.Description); err != nil {
			b.logger.Error("bootstrap: create dependency failed",
				slog.String("source", entry.Source), slog.String("target", entry.Target),
				slog.String("error", err.Error()))
		}
	}

	for _, entry := range doc.Routes {
		gatewayID := resolveID(idByName, entry.Gateway)
		targetID := resolveID(idByName, entry.Target)
		authConfig := entry.AuthConfig
		if authConfig != nil && authConfig.AuthServiceID != nil {
			resolved := resolveID(idByName, *authConfig.AuthServiceID)
			authConfig = &domain.AuthConfig{
				RequireAuth:   authConfig.RequireAuth,
				AuthServiceID: &resolved,
				PublicPaths:   authConfig.PublicPaths,
				LoginRedirect: authConfig.LoginRedirect,
			}
		}
		draft := ports.RouteDraft{
			GatewayServiceID: &gatewayID,
			PathPattern:      &entry.PathPattern,
			TargetServiceID:  &targetID,
			StripPrefix:      entry.StripPrefix,
			StripPath:        entry.StripPath,
			Priority:         entry.Priority,
			AuthConfig:       authConfig,
		}
		if _, err := b.routes.Create(ctx, draft); err != nil {
			b.logger.Error("bootstrap: create route failed",
				slog.String("gateway", entry.Gateway), slog.String("pattern", entry.PathPattern),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// resolveID maps a bootstrap document's human-readable service reference
// to the id it was actually registered under, falling back to treating
// the reference as a literal id when no such name was registered.
func resolveID(idByName map[string]string, ref string) string {
	if id, ok := idByName[ref]; ok {
		return id
	}
	return ref
}

// SelfRegister registers the registry itself as a service in its own
// fleet, using BootstrapConfig.ServiceID/BasePath and the server's
// listen address. Ported from main.py's lifespan self-register block.
func (b *Bootstrap) SelfRegister(ctx context.Context) error {
	id := b.boot.ServiceID
	name := "Service Registry"
	host := b.server.Host
	port := b.server.Port
	healthPath := domain.DefaultHealthCheckPath
	basePath := b.boot.BasePath

	draft := ports.ServiceDraft{
		ID:              &id,
		Name:            &name,
		Host:            &host,
		Port:            &port,
		HealthCheckPath: &healthPath,
		BasePath:        &basePath,
	}

	_, _, err := b.registry.Register(ctx, draft)
	if err != nil {
		return domain.Fatal("self-register registry service", err)
	}
	return nil
}
