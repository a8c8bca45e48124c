// Package mocks provides function-field fakes for core/ports interfaces,
// used by internal/core/services tests in place of a real database.
package mocks

import (
	"context"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

// ServiceStore is a function-field fake implementing ports.ServiceStore.
// Tests set only the fields their scenario exercises; unset fields panic
// with a nil-pointer call, surfacing unexpected invocations immediately.
type ServiceStore struct {
	CreateFn          func(ctx context.Context, svc *domain.Service) error
	UpsertFn          func(ctx context.Context, svc *domain.Service) error
	GetByIDFn         func(ctx context.Context, id string) (*domain.Service, error)
	ListFn            func(ctx context.Context, filter ports.ServiceFilter) ([]*domain.Service, error)
	UpdateFn          func(ctx context.Context, svc *domain.Service) error
	DeleteFn          func(ctx context.Context, id string) (bool, error)
	UpdateHeartbeatFn func(ctx context.Context, id string) (*domain.Service, error)
	UpdateStatusFn    func(ctx context.Context, id string, status domain.ServiceStatus, consecutiveFailures int) error
	FirstGatewayFn    func(ctx context.Context) (*domain.Service, error)
	StatsFn           func(ctx context.Context) (ports.ServiceStats, error)
}

func (m *ServiceStore) Create(ctx context.Context, svc *domain.Service) error { return m.CreateFn(ctx, svc) }
func (m *ServiceStore) Upsert(ctx context.Context, svc *domain.Service) error { return m.UpsertFn(ctx, svc) }
func (m *ServiceStore) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *ServiceStore) List(ctx context.Context, filter ports.ServiceFilter) ([]*domain.Service, error) {
	return m.ListFn(ctx, filter)
}
func (m *ServiceStore) Update(ctx context.Context, svc *domain.Service) error { return m.UpdateFn(ctx, svc) }
func (m *ServiceStore) Delete(ctx context.Context, id string) (bool, error)   { return m.DeleteFn(ctx, id) }
func (m *ServiceStore) UpdateHeartbeat(ctx context.Context, id string) (*domain.Service, error) {
	return m.UpdateHeartbeatFn(ctx, id)
}
func (m *ServiceStore) UpdateStatus(ctx context.Context, id string, status domain.ServiceStatus, consecutiveFailures int) error {
	return m.UpdateStatusFn(ctx, id, status, consecutiveFailures)
}
func (m *ServiceStore) FirstGateway(ctx context.Context) (*domain.Service, error) {
	return m.FirstGatewayFn(ctx)
}
func (m *ServiceStore) Stats(ctx context.Context) (ports.ServiceStats, error) { return m.StatsFn(ctx) }

// DependencyStore is a function-field fake implementing ports.DependencyStore.
type DependencyStore struct {
	CreateFn         func(ctx context.Context, dep *domain.Dependency) error
	GetByEdgeFn      func(ctx context.Context, sourceID, targetID string) (*domain.Dependency, error)
	GetByIDFn        func(ctx context.Context, id int64) (*domain.Dependency, error)
	DeleteFn         func(ctx context.Context, id int64) (bool, error)
	ListAllFn        func(ctx context.Context) ([]*domain.Dependency, error)
	ListForServiceFn func(ctx context.Context, serviceID string, direction ports.DependencyDirection) ([]*domain.Dependency, error)
}

func (m *DependencyStore) Create(ctx context.Context, dep *domain.Dependency) error { return m.CreateFn(ctx, dep) }
func (m *DependencyStore) GetByEdge(ctx context.Context, sourceID, targetID string) (*domain.Dependency, error) {
	return m.GetByEdgeFn(ctx, sourceID, targetID)
}
func (m *DependencyStore) GetByID(ctx context.Context, id int64) (*domain.Dependency, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *DependencyStore) Delete(ctx context.Context, id int64) (bool, error) { return m.DeleteFn(ctx, id) }
func (m *DependencyStore) ListAll(ctx context.Context) ([]*domain.Dependency, error) {
	return m.ListAllFn(ctx)
}
func (m *DependencyStore) ListForService(ctx context.Context, serviceID string, direction ports.DependencyDirection) ([]*domain.Dependency, error) {
	return m.ListForServiceFn(ctx, serviceID, direction)
}

// RouteStore is a function-field fake implementing ports.RouteStore.
type RouteStore struct {
	CreateFn          func(ctx context.Context, route *domain.Route) error
	GetByIDFn         func(ctx context.Context, id int64) (*domain.Route, error)
	UpdateFn          func(ctx context.Context, route *domain.Route) error
	DeleteFn          func(ctx context.Context, id int64) (bool, error)
	ListFn            func(ctx context.Context, filter ports.RouteFilter) ([]*domain.Route, error)
	ExistsForTargetFn func(ctx context.Context, targetID string) (bool, error)
}

func (m *RouteStore) Create(ctx context.Context, route *domain.Route) error { return m.CreateFn(ctx, route) }
func (m *RouteStore) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *RouteStore) Update(ctx context.Context, route *domain.Route) error { return m.UpdateFn(ctx, route) }
func (m *RouteStore) Delete(ctx context.Context, id int64) (bool, error)    { return m.DeleteFn(ctx, id) }
func (m *RouteStore) List(ctx context.Context, filter ports.RouteFilter) ([]*domain.Route, error) {
	return m.ListFn(ctx, filter)
}
func (m *RouteStore) ExistsForTarget(ctx context.Context, targetID string) (bool, error) {
	return m.ExistsForTargetFn(ctx, targetID)
}

// Transactor is a fake implementing ports.Transactor that simply invokes
// fn with the given context — no real transaction semantics, since
// service-layer tests never assert on rollback behavior.
type Transactor struct{}

func (Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
