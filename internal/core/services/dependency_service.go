package services

import (
	"context"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

var _ ports.DependencyService = (*DependencyService)(nil)

// DependencyService manages dependency edges between services and
// derives the full topology graph from them.
type DependencyService struct {
	dependencies ports.DependencyStore
	services     ports.ServiceStore
}

// NewDependencyService constructs a DependencyService.
func NewDependencyService(dependencies ports.DependencyStore, services ports.ServiceStore) *DependencyService {
	return &DependencyService{dependencies: dependencies, services: services}
}

// Create records that sourceID depends on targetID. Both services must
// already exist. Creating a duplicate edge is idempotent: the existing
// row is returned rather than erroring, ported from
// original_source/app/services/dependency.py:create_dependency.
func (d *DependencyService) Create(ctx context.Context, sourceID, targetID string, description *string) (*domain.Dependency, error) {
	source, err := d.services.GetByID(ctx, sourceID)
	if err != nil {
		return nil, domain.Fatal("look up source service", err)
	}
	if source == nil {
		return nil, domain.NotFound("source service not found")
	}
	target, err := d.services.GetByID(ctx, targetID)
	if err != nil {
		return nil, domain.Fatal("look up target service", err)
	}
	if target == nil {
		return nil, domain.NotFound("target service not found")
	}

	existing, err := d.dependencies.GetByEdge(ctx, sourceID, targetID)
	if err != nil {
		return nil, domain.Fatal("look up existing dependency", err)
	}
	if existing != nil {
		return existing, nil
	}

	dep := &domain.Dependency{
		SourceServiceID: sourceID,
		TargetServiceID: targetID,
		Description:     description,
	}
	if err := d.dependencies.Create(ctx, dep); err != nil {
		return nil, domain.Fatal("create dependency", err)
	}
	return dep, nil
}

// Delete removes a dependency edge by id.
func (d *DependencyService) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := d.dependencies.Delete(ctx, id)
	if err != nil {
		return false, domain.Fatal("delete dependency", err)
	}
	return removed, nil
}

// ListAll returns every dependency edge.
func (d *DependencyService) ListAll(ctx context.Context) ([]*domain.Dependency, error) {
	deps, err := d.dependencies.ListAll(ctx)
	if err != nil {
		return nil, domain.Fatal("list dependencies", err)
	}
	return deps, nil
}

// ListForService returns the outgoing or incoming edges for id.
func (d *DependencyService) ListForService(ctx context.Context, id string, direction ports.DependencyDirection) ([]*domain.Dependency, error) {
	deps, err := d.dependencies.ListForService(ctx, id, direction)
	if err != nil {
		return nil, domain.Fatal("list dependencies for service", err)
	}
	return deps, nil
}

// Topology projects every registered service as a node and every
// dependency as a directed edge. No transitive closure or cycle
// detection is performed, matching the dependency graph's original
// shape.
func (d *DependencyService) Topology(ctx context.Context) (*domain.Topology, error) {
	svcs, err := d.services.List(ctx, ports.ServiceFilter{})
	if err != nil {
		return nil, domain.Fatal("list services for topology", err)
	}
	deps, err := d.dependencies.ListAll(ctx)
	if err != nil {
		return nil, domain.Fatal("list dependencies for topology", err)
	}

	topology := &domain.Topology{
		Nodes: make([]domain.TopologyNode, 0, len(svcs)),
		Edges: make([]domain.TopologyEdge, 0, len(deps)),
	}
	for _, svc := range svcs {
		topology.Nodes = append(topology.Nodes, domain.TopologyNode{
			ID: svc.ID, Name: svc.Name, Status: svc.Status,
		})
	}
	for _, dep := range deps {
		topology.Edges = append(topology.Edges, domain.TopologyEdge{
			From: dep.SourceServiceID, To: dep.TargetServiceID, Required: true,
		})
	}
	return topology, nil
}
