// Package defaults wires the registry's background modules (health
// engine, bootstrap preload, metrics) into the module lifecycle registry.
package defaults

import (
	"log/slog"

	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/core/registry"
	"github.com/kestrel-dev/serviceatlas/internal/config"
	"github.com/kestrel-dev/serviceatlas/internal/observability"
)

// Deps holds the already-constructed services and config needed to build
// default modules.
type Deps struct {
	HealthEngine ports.HealthEngine
	Bootstrap    ports.Bootstrap
	Metrics      *observability.Metrics
	BootstrapCfg config.BootstrapConfig
	Logger       *slog.Logger
}

// RegisterAll registers all default module implementations into the
// registry. HealthEngine must also satisfy registry.Module directly;
// Bootstrap is adapted via bootstrapModule since ports.Bootstrap alone has
// no Init/Health/Shutdown.
func RegisterAll(reg *registry.Registry, deps Deps) {
	if hm, ok := deps.HealthEngine.(registry.Module); ok {
		reg.Register(hm)
	}
	reg.Register(newBootstrapModule(deps.Bootstrap, deps.BootstrapCfg, deps.Logger))
	if deps.Metrics != nil {
		reg.Register(newMetricsModule(deps.Metrics))
	}
}
