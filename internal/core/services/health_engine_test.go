package services

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/internal/config"
	"github.com/kestrel-dev/serviceatlas/internal/testutil/mocks"
)

func newTestRegistryConfig() config.RegistryConfig {
	return config.RegistryConfig{
		HealthCheckInterval: time.Hour,
		HealthCheckTimeout:  time.Second,
		UnhealthyThreshold:  3,
		HeartbeatTimeout:    time.Minute,
	}
}

func newServiceFromURL(t *testing.T, id string, srv *httptest.Server) *domain.Service {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &domain.Service{
		ID: id, Name: id, Host: host, Port: port, Protocol: domain.ProtocolHTTP,
		HealthCheckPath: "/health",
	}
}

func TestHealthEngine_RunHealthCheckNow_MarksHealthyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newServiceFromURL(t, "svc-1", srv)
	svc.ConsecutiveFailures = 2

	var gotStatus domain.ServiceStatus
	var gotFailures int
	svcStore := &mocks.ServiceStore{
		ListFn: func(_ context.Context, _ ports.ServiceFilter) ([]*domain.Service, error) {
			return []*domain.Service{svc}, nil
		},
		UpdateStatusFn: func(_ context.Context, _ string, status domain.ServiceStatus, failures int) error {
			gotStatus, gotFailures = status, failures
			return nil
		},
	}

	engine := NewHealthEngine(svcStore, newTestRegistryConfig(), config.BootstrapConfig{}, slog.Default())
	summary, err := engine.RunHealthCheckNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Healthy)
	assert.Equal(t, domain.ServiceStatusHealthy, gotStatus)
	assert.Equal(t, 0, gotFailures)
}

func TestHealthEngine_RunHealthCheckNow_UnhealthyAtThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := newServiceFromURL(t, "svc-1", srv)
	svc.ConsecutiveFailures = 2 // one more failure reaches the threshold of 3

	var gotStatus domain.ServiceStatus
	svcStore := &mocks.ServiceStore{
		ListFn: func(_ context.Context, _ ports.ServiceFilter) ([]*domain.Service, error) {
			return []*domain.Service{svc}, nil
		},
		UpdateStatusFn: func(_ context.Context, _ string, status domain.ServiceStatus, _ int) error {
			gotStatus = status
			return nil
		},
	}

	engine := NewHealthEngine(svcStore, newTestRegistryConfig(), config.BootstrapConfig{}, slog.Default())
	summary, err := engine.RunHealthCheckNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Unhealthy)
	assert.Equal(t, domain.ServiceStatusUnhealthy, gotStatus)
}

func TestHealthEngine_SweepHeartbeatTimeouts(t *testing.T) {
	stale := &domain.Service{
		ID: "stale-1", Status: domain.ServiceStatusHealthy,
		LastHeartbeat: time.Now().Add(-2 * time.Minute),
	}
	var marked string
	svcStore := &mocks.ServiceStore{
		ListFn: func(_ context.Context, _ ports.ServiceFilter) ([]*domain.Service, error) {
			return []*domain.Service{stale}, nil
		},
		UpdateStatusFn: func(_ context.Context, id string, status domain.ServiceStatus, _ int) error {
			if status == domain.ServiceStatusUnhealthy {
				marked = id
			}
			return nil
		},
	}

	engine := NewHealthEngine(svcStore, newTestRegistryConfig(), config.BootstrapConfig{}, slog.Default())
	require.NoError(t, engine.sweepHeartbeatTimeouts(context.Background()))

	assert.Equal(t, "stale-1", marked)
}
