package ports

import (
	"context"

	"github.com/kestrel-dev/serviceatlas/core/domain"
)

// ServiceFilter narrows a ServiceStore.List call.
type ServiceFilter struct {
	Status    *domain.ServiceStatus
	IsGateway *bool
}

// ServiceStore defines persistence for services.
type ServiceStore interface {
	Create(ctx context.Context, svc *domain.Service) error
	Upsert(ctx context.Context, svc *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context, filter ServiceFilter) ([]*domain.Service, error)
	Update(ctx context.Context, svc *domain.Service) error
	Delete(ctx context.Context, id string) (bool, error)
	UpdateHeartbeat(ctx context.Context, id string) (*domain.Service, error)
	UpdateStatus(ctx context.Context, id string, status domain.ServiceStatus, consecutiveFailures int) error
	// FirstGateway returns the lexicographically-smallest-id service with
	// is_gateway = true, or nil if none exists.
	FirstGateway(ctx context.Context) (*domain.Service, error)
	Stats(ctx context.Context) (ServiceStats, error)
}

// ServiceStats is the aggregate count projection backing Discovery.GetStats.
type ServiceStats struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Unknown   int `json:"unknown"`
	Gateways  int `json:"gateways"`
}

// DependencyDirection selects which edges ListForService returns.
type DependencyDirection string

const (
	DirectionOutgoing DependencyDirection = "outgoing"
	DirectionIncoming DependencyDirection = "incoming"
)

// DependencyStore defines persistence for dependencies.
type DependencyStore interface {
	Create(ctx context.Context, dep *domain.Dependency) error
	GetByEdge(ctx context.Context, sourceID, targetID string) (*domain.Dependency, error)
	GetByID(ctx context.Context, id int64) (*domain.Dependency, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]*domain.Dependency, error)
	ListForService(ctx context.Context, serviceID string, direction DependencyDirection) ([]*domain.Dependency, error)
}

// RouteFilter narrows a RouteStore.List call.
type RouteFilter struct {
	GatewayServiceID *string
	EnabledOnly      bool
}

// RouteStore defines persistence for routes.
type RouteStore interface {
	Create(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	Update(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id int64) (bool, error)
	// List returns routes matching filter, ordered priority DESC, created_at DESC.
	List(ctx context.Context, filter RouteFilter) ([]*domain.Route, error)
	// ExistsForTarget reports whether any route already targets targetID.
	ExistsForTarget(ctx context.Context, targetID string) (bool, error)
}

// Transactor scopes a function to a single Store transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
