package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/internal/testutil/mocks"
)

func TestDependencyService_Create_RequiresBothServicesExist(t *testing.T) {
	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, id string) (*domain.Service, error) {
			if id == "a" {
				return &domain.Service{ID: "a"}, nil
			}
			return nil, nil
		},
	}
	depSvc := NewDependencyService(&mocks.DependencyStore{}, svcStore)

	_, err := depSvc.Create(context.Background(), "a", "b", nil)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestDependencyService_Create_IdempotentOnDuplicateEdge(t *testing.T) {
	existing := &domain.Dependency{ID: 7, SourceServiceID: "a", TargetServiceID: "b"}
	createCalled := false

	svcStore := &mocks.ServiceStore{
		GetByIDFn: func(_ context.Context, id string) (*domain.Service, error) {
			return &domain.Service{ID: id}, nil
		},
	}
	depStore := &mocks.DependencyStore{
		GetByEdgeFn: func(_ context.Context, _, _ string) (*domain.Dependency, error) { return existing, nil },
		CreateFn:    func(_ context.Context, _ *domain.Dependency) error { createCalled = true; return nil },
	}
	depSvc := NewDependencyService(depStore, svcStore)

	dep, err := depSvc.Create(context.Background(), "a", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, existing, dep)
	assert.False(t, createCalled, "duplicate edge should not re-create")
}

func TestDependencyService_Topology_ProjectsNodesAndEdges(t *testing.T) {
	svcStore := &mocks.ServiceStore{
		ListFn: func(_ context.Context, _ ports.ServiceFilter) ([]*domain.Service, error) {
			return []*domain.Service{
				{ID: "a", Name: "A", Status: domain.ServiceStatusHealthy},
				{ID: "b", Name: "B", Status: domain.ServiceStatusUnhealthy},
			}, nil
		},
	}
	depStore := &mocks.DependencyStore{
		ListAllFn: func(_ context.Context) ([]*domain.Dependency, error) {
			return []*domain.Dependency{{ID: 1, SourceServiceID: "a", TargetServiceID: "b"}}, nil
		},
	}
	depSvc := NewDependencyService(depStore, svcStore)

	topo, err := depSvc.Topology(context.Background())
	require.NoError(t, err)
	assert.Len(t, topo.Nodes, 2)
	require.Len(t, topo.Edges, 1)
	assert.Equal(t, "a", topo.Edges[0].From)
	assert.Equal(t, "b", topo.Edges[0].To)
}
