package services

import (
	"context"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

var isGatewayTrue = true
var healthyStatus = domain.ServiceStatusHealthy

var _ ports.Discovery = (*Discovery)(nil)

// Discovery exposes read-only derivations over the service Store: lookup
// by id restricted to healthy services, the healthy fleet, the gateway
// list, and aggregate stats. Ported from
// original_source/app/services/discovery.py.
type Discovery struct {
	services ports.ServiceStore
}

// NewDiscovery constructs a Discovery.
func NewDiscovery(services ports.ServiceStore) *Discovery {
	return &Discovery{services: services}
}

// Discover returns a service only if it is currently healthy.
func (d *Discovery) Discover(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := d.services.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Fatal("discover service", err)
	}
	if svc == nil || svc.Status != domain.ServiceStatusHealthy {
		return nil, domain.ErrServiceNotFound
	}
	return svc, nil
}

// DiscoverAllHealthy returns every service currently marked healthy.
func (d *Discovery) DiscoverAllHealthy(ctx context.Context) ([]*domain.Service, error) {
	svcs, err := d.services.List(ctx, ports.ServiceFilter{Status: &healthyStatus})
	if err != nil {
		return nil, domain.Fatal("list healthy services", err)
	}
	return svcs, nil
}

// GetGateways returns every service registered as a gateway.
func (d *Discovery) GetGateways(ctx context.Context) ([]*domain.Service, error) {
	svcs, err := d.services.List(ctx, ports.ServiceFilter{IsGateway: &isGatewayTrue})
	if err != nil {
		return nil, domain.Fatal("list gateways", err)
	}
	return svcs, nil
}

// GetStats returns aggregate counts across the fleet.
func (d *Discovery) GetStats(ctx context.Context) (ports.ServiceStats, error) {
	stats, err := d.services.Stats(ctx)
	if err != nil {
		return ports.ServiceStats{}, domain.Fatal("get service stats", err)
	}
	return stats, nil
}
