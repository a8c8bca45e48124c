package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/internal/config"
	"github.com/kestrel-dev/serviceatlas/internal/testutil/mocks"
)

// fakeRegistry, fakeDependencyService, and fakeRouteService are minimal
// function-field fakes for the service-level ports — distinct from
// mocks.ServiceStore et al, which fake the Store layer one level down.
type fakeRegistry struct {
	registerFn func(ctx context.Context, draft ports.ServiceDraft) (*domain.Service, error)
}

func (f *fakeRegistry) Register(ctx context.Context, draft ports.ServiceDraft) (*domain.Service, bool, error) {
	svc, err := f.registerFn(ctx, draft)
	return svc, err == nil, err
}
func (f *fakeRegistry) Unregister(context.Context, string) (bool, error) { return false, nil }
func (f *fakeRegistry) Update(context.Context, string, ports.ServiceDraft) (*domain.Service, error) {
	return nil, nil
}
func (f *fakeRegistry) Get(context.Context, string) (*domain.Service, error) { return nil, nil }
func (f *fakeRegistry) GetAll(context.Context, ports.ServiceFilter) ([]*domain.Service, error) {
	return nil, nil
}
func (f *fakeRegistry) Heartbeat(context.Context, string) (*domain.Service, error) { return nil, nil }

type fakeDependencyService struct {
	createFn func(ctx context.Context, sourceID, targetID string, description *string) (*domain.Dependency, error)
}

func (f *fakeDependencyService) Create(ctx context.Context, sourceID, targetID string, description *string) (*domain.Dependency, error) {
	return f.createFn(ctx, sourceID, targetID, description)
}
func (f *fakeDependencyService) Delete(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeDependencyService) ListAll(context.Context) ([]*domain.Dependency, error) {
	return nil, nil
}
func (f *fakeDependencyService) ListForService(context.Context, string, ports.DependencyDirection) ([]*domain.Dependency, error) {
	return nil, nil
}
func (f *fakeDependencyService) Topology(context.Context) (*domain.Topology, error) { return nil, nil }

type fakeRouteService struct {
	createFn func(ctx context.Context, draft ports.RouteDraft) (*domain.Route, error)
}

func (f *fakeRouteService) Create(ctx context.Context, draft ports.RouteDraft) (*domain.Route, error) {
	return f.createFn(ctx, draft)
}
func (f *fakeRouteService) Get(context.Context, int64) (*domain.Route, error) { return nil, nil }
func (f *fakeRouteService) Update(context.Context, int64, ports.RouteDraft) (*domain.Route, error) {
	return nil, nil
}
func (f *fakeRouteService) Delete(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeRouteService) ListAll(context.Context, *string, bool) ([]*domain.Route, error) {
	return nil, nil
}
func (f *fakeRouteService) Match(string, string) bool { return false }
func (f *fakeRouteService) FindRouteForService(context.Context, string, string) (*domain.Route, error) {
	return nil, nil
}
func (f *fakeRouteService) GatewayRoutes(context.Context, string) ([]domain.GatewayRoute, error) {
	return nil, nil
}

func TestBootstrap_Preload_ResolvesNamesToRegisteredIDs(t *testing.T) {
	registered := map[string]string{}
	registry := &fakeRegistry{
		registerFn: func(_ context.Context, draft ports.ServiceDraft) (*domain.Service, error) {
			id, err := domain.GenerateServiceID(*draft.Name)
			require.NoError(t, err)
			registered[*draft.Name] = id
			return &domain.Service{ID: id, Name: *draft.Name}, nil
		},
	}

	var depSource, depTarget string
	deps := &fakeDependencyService{
		createFn: func(_ context.Context, sourceID, targetID string, _ *string) (*domain.Dependency, error) {
			depSource, depTarget = sourceID, targetID
			return &domain.Dependency{SourceServiceID: sourceID, TargetServiceID: targetID}, nil
		},
	}

	var routeGateway, routeTarget string
	routes := &fakeRouteService{
		createFn: func(_ context.Context, draft ports.RouteDraft) (*domain.Route, error) {
			routeGateway, routeTarget = *draft.GatewayServiceID, *draft.TargetServiceID
			return &domain.Route{}, nil
		},
	}

	boot := NewBootstrap(registry, deps, routes, config.ServerConfig{}, config.BootstrapConfig{}, slog.Default())

	doc := ports.BootstrapDocument{
		Services: []ports.BootstrapService{
			{Name: "Orders", Host: "orders", Port: 80},
			{Name: "Gateway", Host: "gw", Port: 80},
		},
		Dependencies: []ports.BootstrapDependency{
			{Source: "Orders", Target: "Gateway"},
		},
		Routes: []ports.BootstrapRoute{
			{Gateway: "Gateway", PathPattern: "/orders/**", Target: "Orders"},
		},
	}

	err := boot.Preload(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, registered["Orders"], depSource)
	assert.Equal(t, registered["Gateway"], depTarget)
	assert.Equal(t, registered["Gateway"], routeGateway)
	assert.Equal(t, registered["Orders"], routeTarget)
}

func TestBootstrap_Preload_ContinuesPastFailedEntry(t *testing.T) {
	calls := 0
	registry := &fakeRegistry{
		registerFn: func(_ context.Context, draft ports.ServiceDraft) (*domain.Service, error) {
			calls++
			if *draft.Name == "Broken" {
				return nil, domain.Precondition("boom")
			}
			return &domain.Service{ID: "ok-1", Name: *draft.Name}, nil
		},
	}
	boot := NewBootstrap(registry, &fakeDependencyService{}, &fakeRouteService{}, config.ServerConfig{}, config.BootstrapConfig{}, slog.Default())

	doc := ports.BootstrapDocument{
		Services: []ports.BootstrapService{
			{Name: "Broken", Host: "x", Port: 1},
			{Name: "Fine", Host: "y", Port: 2},
		},
	}

	err := boot.Preload(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBootstrap_SelfRegister(t *testing.T) {
	var gotID, gotHost string
	var gotPort int
	registry := &fakeRegistry{
		registerFn: func(_ context.Context, draft ports.ServiceDraft) (*domain.Service, error) {
			gotID, gotHost, gotPort = *draft.ID, *draft.Host, *draft.Port
			return &domain.Service{ID: *draft.ID}, nil
		},
	}
	server := config.ServerConfig{Host: "0.0.0.0", Port: 8080}
	bootCfg := config.BootstrapConfig{ServiceID: "registry", BasePath: "/registry"}
	boot := NewBootstrap(registry, &fakeDependencyService{}, &fakeRouteService{}, server, bootCfg, slog.Default())

	err := boot.SelfRegister(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "registry", gotID)
	assert.Equal(t, "0.0.0.0", gotHost)
	assert.Equal(t, 8080, gotPort)
}
