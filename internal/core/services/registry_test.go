package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/internal/testutil/mocks"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestRegistry_Register_SynthesizesID(t *testing.T) {
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, _ string) (*domain.Service, error) { return nil, nil },
		UpsertFn:  func(_ context.Context, _ *domain.Service) error { return nil },
		FirstGatewayFn: func(_ context.Context) (*domain.Service, error) { return nil, nil },
	}
	routeStore := &mocks.RouteStore{}
	reg := NewRegistry(svcStore, routeStore, slog.Default())

	svc, created, err := reg.Register(context.Background(), ports.ServiceDraft{
		Name: strPtr("Orders API"),
		Host: strPtr("orders.internal"),
		Port: intPtr(8080),
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, svc.ID)
	assert.Equal(t, "Orders API", svc.Name)
	assert.Equal(t, domain.ProtocolHTTP, svc.Protocol)
	assert.Equal(t, domain.DefaultHealthCheckPath, svc.HealthCheckPath)
	assert.Equal(t, domain.ServiceStatusUnknown, svc.Status)
}

func TestRegistry_Register_RequiresNameHostPort(t *testing.T) {
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, _ string) (*domain.Service, error) { return nil, nil },
	}
	reg := NewRegistry(svcStore, &mocks.RouteStore{}, slog.Default())

	_, _, err := reg.Register(context.Background(), ports.ServiceDraft{Host: strPtr("x"), Port: intPtr(1)})
	assert.Equal(t, domain.KindPrecondition, domain.KindOf(err))
}

func TestRegistry_Register_InjectsDefaultRouteForNonGateway(t *testing.T) {
	gateway := &domain.Service{ID: "gateway-aaaa0000", IsGateway: true}
	var createdRoute *domain.Route

	svcStore := &mocks.ServiceStore{
		GetByIDFn:      func(_ context.Context, _ string) (*domain.Service, error) { return nil, nil },
		UpsertFn:       func(_ context.Context, _ *domain.Service) error { return nil },
		FirstGatewayFn: func(_ context.Context) (*domain.Service, error) { return gateway, nil },
	}
	routeStore := &mocks.RouteStore{
		ExistsForTargetFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		CreateFn: func(_ context.Context, route *domain.Route) error {
			createdRoute = route
			return nil
		},
	}
	reg := NewRegistry(svcStore, routeStore, slog.Default())

	svc, _, err := reg.Register(context.Background(), ports.ServiceDraft{
		ID: strPtr("orders-1234abcd"), Name: strPtr("Orders"), Host: strPtr("orders"), Port: intPtr(80),
	})
	require.NoError(t, err)

	require.NotNil(t, createdRoute)
	assert.Equal(t, gateway.ID, createdRoute.GatewayServiceID)
	assert.Equal(t, svc.ID, createdRoute.TargetServiceID)
	assert.True(t, createdRoute.StripPrefix)
	assert.Equal(t, "/"+svc.ID+"/**", createdRoute.PathPattern)
}

func TestRegistry_Register_SkipsDefaultRouteForGateway(t *testing.T) {
	routeCreateCalled := false
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, _ string) (*domain.Service, error) { return nil, nil },
		UpsertFn:  func(_ context.Context, _ *domain.Service) error { return nil },
	}
	routeStore := &mocks.RouteStore{
		CreateFn: func(_ context.Context, _ *domain.Route) error { routeCreateCalled = true; return nil },
	}
	reg := NewRegistry(svcStore, routeStore, slog.Default())

	_, _, err := reg.Register(context.Background(), ports.ServiceDraft{
		Name: strPtr("Gateway"), Host: strPtr("gw"), Port: intPtr(80), IsGateway: boolPtr(true),
	})
	require.NoError(t, err)
	assert.False(t, routeCreateCalled)
}

func TestRegistry_Register_ReregisterPreservesUntouchedFields(t *testing.T) {
	existing := &domain.Service{
		ID: "svc-1", Name: "svcA", Host: "1.2.3.4", Port: 8000, Protocol: domain.ProtocolHTTP,
		HealthCheckPath: "/healthz", ServiceMeta: map[string]any{"region": "us-east"},
		RegisteredAt: time.Unix(1000, 0),
	}
	var saved *domain.Service
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, id string) (*domain.Service, error) {
			if id == "svc-1" {
				return existing, nil
			}
			return nil, nil
		},
		UpsertFn: func(_ context.Context, svc *domain.Service) error { saved = svc; return nil },
	}
	reg := NewRegistry(svcStore, &mocks.RouteStore{}, slog.Default())

	svc, created, err := reg.Register(context.Background(), ports.ServiceDraft{
		ID: strPtr("svc-1"), Name: strPtr("svcA-v2"),
	})

	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, saved)
	assert.Equal(t, "svcA-v2", svc.Name)
	assert.Equal(t, "1.2.3.4", svc.Host)
	assert.Equal(t, 8000, svc.Port)
	assert.Equal(t, domain.ProtocolHTTP, svc.Protocol)
	assert.Equal(t, map[string]any{"region": "us-east"}, svc.ServiceMeta)
	assert.Equal(t, existing.RegisteredAt, svc.RegisteredAt)
	assert.Equal(t, domain.ServiceStatusUnknown, svc.Status)
}

func TestRegistry_Heartbeat_NotFound(t *testing.T) {
	svcStore := &mocks.ServiceStore{
		UpdateHeartbeatFn: func(_ context.Context, _ string) (*domain.Service, error) { return nil, nil },
	}
	reg := NewRegistry(svcStore, &mocks.RouteStore{}, slog.Default())

	_, err := reg.Heartbeat(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestRegistry_Update_PreservesUntouchedFields(t *testing.T) {
	existing := &domain.Service{
		ID: "svc-1", Name: "Old Name", Host: "old-host", Port: 1, Protocol: domain.ProtocolHTTP,
	}
	var saved *domain.Service
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, id string) (*domain.Service, error) {
			if id == "svc-1" {
				return existing, nil
			}
			return nil, nil
		},
		UpdateFn: func(_ context.Context, svc *domain.Service) error { saved = svc; return nil },
	}
	reg := NewRegistry(svcStore, &mocks.RouteStore{}, slog.Default())

	_, err := reg.Update(context.Background(), "svc-1", ports.ServiceDraft{Name: strPtr("New Name")})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "New Name", saved.Name)
	assert.Equal(t, "old-host", saved.Host)
}
