package ports

import (
	"context"
	"time"

	"github.com/kestrel-dev/serviceatlas/core/domain"
)

// ServiceDraft carries the fields a caller may supply to Register or
// Update. Pointer fields are optional; Update only overwrites fields that
// are non-nil (a partial update, mirroring the registry's "PATCH" upsert
// semantics).
type ServiceDraft struct {
	ID              *string
	Name            *string
	Host            *string
	Port            *int
	Protocol        *domain.Protocol
	HealthCheckPath *string
	IsGateway       *bool
	BasePath        *string
	ServiceMeta     map[string]any
}

// Registry is the service lifecycle API: register, unregister, update,
// read, and heartbeat.
type Registry interface {
	// Register reports whether the id was newly created (true) or an
	// existing service was re-registered/overwritten (false).
	Register(ctx context.Context, draft ServiceDraft) (*domain.Service, bool, error)
	Unregister(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, draft ServiceDraft) (*domain.Service, error)
	Get(ctx context.Context, id string) (*domain.Service, error)
	GetAll(ctx context.Context, filter ServiceFilter) ([]*domain.Service, error)
	Heartbeat(ctx context.Context, id string) (*domain.Service, error)
}

// CheckSummary is the synchronous health-check result returned by
// HealthEngine.RunHealthCheckNow.
type CheckSummary struct {
	Checked   int       `json:"checked"`
	Healthy   int       `json:"healthy"`
	Unhealthy int       `json:"unhealthy"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthEngine runs the periodic active-probe and heartbeat-timeout sweeps
// and exposes a synchronous variant for on-demand checks.
type HealthEngine interface {
	RunHealthCheckNow(ctx context.Context) (CheckSummary, error)
}

// DependencyService manages dependency edges and the derived topology.
type DependencyService interface {
	Create(ctx context.Context, sourceID, targetID string, description *string) (*domain.Dependency, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]*domain.Dependency, error)
	ListForService(ctx context.Context, id string, direction DependencyDirection) ([]*domain.Dependency, error)
	Topology(ctx context.Context) (*domain.Topology, error)
}

// RouteDraft carries the fields a caller may supply to RouteService.Create
// or Update; pointer fields are optional on Update.
type RouteDraft struct {
	GatewayServiceID *string
	PathPattern      *string
	Methods          []string
	TargetServiceID  *string
	StripPrefix      *bool
	StripPath        *string
	Priority         *int
	Enabled          *bool
	AuthConfig       *domain.AuthConfig
}

// RouteService manages gateway routes: CRUD, path matching, and the
// enriched gateway-routes projection.
type RouteService interface {
	Create(ctx context.Context, draft RouteDraft) (*domain.Route, error)
	Get(ctx context.Context, id int64) (*domain.Route, error)
	Update(ctx context.Context, id int64, draft RouteDraft) (*domain.Route, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context, gatewayID *string, enabledOnly bool) ([]*domain.Route, error)
	// Match reports whether path satisfies the glob pattern.
	Match(pattern, path string) bool
	FindRouteForService(ctx context.Context, gatewayID, targetID string) (*domain.Route, error)
	// GatewayRoutes implements the gateway-routes enrichment.
	GatewayRoutes(ctx context.Context, gatewayID string) ([]domain.GatewayRoute, error)
}

// Discovery exposes read-only derivations over the service Store.
type Discovery interface {
	Discover(ctx context.Context, id string) (*domain.Service, error)
	DiscoverAllHealthy(ctx context.Context) ([]*domain.Service, error)
	GetGateways(ctx context.Context) ([]*domain.Service, error)
	GetStats(ctx context.Context) (ServiceStats, error)
}

// BootstrapDocument is the parsed shape of the services.yaml preload file.
type BootstrapDocument struct {
	Services     []BootstrapService    `yaml:"services"`
	Dependencies []BootstrapDependency `yaml:"dependencies"`
	Routes       []BootstrapRoute      `yaml:"routes"`
}

// BootstrapService is one entry of the preload document's services list.
type BootstrapService struct {
	ID              *string        `yaml:"id"`
	Name            string         `yaml:"name"`
	Host            string         `yaml:"host"`
	Port            int            `yaml:"port"`
	Protocol        *string        `yaml:"protocol"`
	HealthCheckPath *string        `yaml:"health_check_path"`
	IsGateway       *bool          `yaml:"is_gateway"`
	Metadata        map[string]any `yaml:"metadata"`
}

// BootstrapDependency is one entry of the preload document's dependencies list.
type BootstrapDependency struct {
	Source      string  `yaml:"source"`
	Target      string  `yaml:"target"`
	Description *string `yaml:"description"`
}

// BootstrapRoute is one entry of the preload document's routes list.
type BootstrapRoute struct {
	Gateway     string             `yaml:"gateway"`
	PathPattern string             `yaml:"path_pattern"`
	Target      string             `yaml:"target"`
	StripPrefix *bool              `yaml:"strip_prefix"`
	StripPath   *string            `yaml:"strip_path"`
	Priority    *int               `yaml:"priority"`
	AuthConfig  *domain.AuthConfig `yaml:"auth_config"`
}

// Bootstrap performs the one-shot preload and optional self-registration.
type Bootstrap interface {
	Preload(ctx context.Context, doc BootstrapDocument) error
	SelfRegister(ctx context.Context) error
}

// MetricsRecorder records fleet events as metrics. Implementations are
// expected to be safe for concurrent use; a nil *services.Registry/
// *services.HealthEngine field of this type is treated as "metrics
// disabled" rather than requiring a no-op stand-in at every call site.
type MetricsRecorder interface {
	RecordHealthCheck(ctx context.Context, healthy bool)
	RecordServiceRegistered(ctx context.Context)
	RecordHeartbeat(ctx context.Context)
}
