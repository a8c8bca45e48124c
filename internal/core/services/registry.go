package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

const (
	defaultRoutePriority = 10
)

var _ ports.Registry = (*Registry)(nil)

// Registry implements service registration, lookup, and heartbeat
// against a ServiceStore, injecting a default gateway route for every
// non-gateway service it registers.
type Registry struct {
	services ports.ServiceStore
	routes   ports.RouteStore
	logger   *slog.Logger
	metrics  ports.MetricsRecorder
}

// NewRegistry constructs a Registry.
func NewRegistry(services ports.ServiceStore, routes ports.RouteStore, logger *slog.Logger) *Registry {
	return &Registry{services: services, routes: routes, logger: logger}
}

// WithMetrics attaches a metrics recorder; omitted, registrations and
// heartbeats simply aren't recorded.
func (r *Registry) WithMetrics(m ports.MetricsRecorder) *Registry {
	r.metrics = m
	return r
}

// Register creates a new service, or re-registers one whose id already
// exists by overwriting only the fields the draft supplies — everything
// else on the existing row (host, port, protocol, service_meta, ...)
// survives a partial re-register untouched, the same merge applyDraft
// gives Update. Re-registration additionally resets status to unknown and
// last_heartbeat to now, mirroring the original registry's re-register
// semantics. Reports whether the id was newly created (true) or an
// existing row was overwritten (false).
func (r *Registry) Register(ctx context.Context, draft ports.ServiceDraft) (*domain.Service, bool, error) {
	id := ""
	if draft.ID != nil {
		id = *draft.ID
	}
	if id == "" {
		if draft.Name == nil || *draft.Name == "" {
			return nil, false, domain.Precondition("name is required to register a service")
		}
		generated, err := domain.GenerateServiceID(*draft.Name)
		if err != nil {
			return nil, false, domain.Fatal("generate service id", err)
		}
		id = generated
	}

	existing, err := r.services.GetByID(ctx, id)
	if err != nil {
		return nil, false, domain.Fatal("look up service for registration", err)
	}

	svc, err := applyDraft(existing, draft)
	if err != nil {
		return nil, false, domain.Precondition(err.Error())
	}
	svc.ID = id

	if svc.Name == "" {
		return nil, false, domain.Precondition("name is required to register a service")
	}
	if svc.Host == "" {
		return nil, false, domain.Precondition("host is required to register a service")
	}
	if svc.Port == 0 {
		return nil, false, domain.Precondition("port is required to register a service")
	}
	if svc.Protocol == "" {
		svc.Protocol = domain.ProtocolHTTP
	}
	if !svc.Protocol.IsValid() {
		return nil, false, domain.Precondition(fmt.Sprintf("invalid protocol %q", svc.Protocol))
	}
	if svc.HealthCheckPath == "" {
		svc.HealthCheckPath = domain.DefaultHealthCheckPath
	}

	svc.Status = domain.ServiceStatusUnknown
	svc.ConsecutiveFailures = 0
	svc.LastHeartbeat = time.Now()

	if err := r.services.Upsert(ctx, svc); err != nil {
		return nil, false, domain.Fatal("upsert service", err)
	}

	if existing == nil && !svc.IsGateway {
		if err := r.injectDefaultRoute(ctx, svc.ID); err != nil {
			r.logger.Error("default route injection failed",
				slog.String("service_id", svc.ID), slog.String("error", err.Error()))
		}
	}

	if r.metrics != nil {
		r.metrics.RecordServiceRegistered(ctx)
	}
	return svc, existing == nil, nil
}

// injectDefaultRoute wires a freshly-registered service into the first
// gateway's routing table, unless a route already targets it or no
// gateway is registered yet.
func (r *Registry) injectDefaultRoute(ctx context.Context, serviceID string) error {
	gateway, err := r.services.FirstGateway(ctx)
	if err != nil {
		return fmt.Errorf("find gateway: %w", err)
	}
	if gateway == nil {
		return nil
	}

	exists, err := r.routes.ExistsForTarget(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("check existing route: %w", err)
	}
	if exists {
		return nil
	}

	stripPath := "/" + serviceID
	route := &domain.Route{
		GatewayServiceID: gateway.ID,
		PathPattern:      "/" + serviceID + "/**",
		TargetServiceID:  serviceID,
		StripPrefix:      true,
		StripPath:        &stripPath,
		Priority:         defaultRoutePriority,
		Enabled:          true,
	}
	if err := r.routes.Create(ctx, route); err != nil {
		return fmt.Errorf("create default route: %w", err)
	}
	return nil
}

// Unregister removes a service. Owned routes and dependencies cascade at
// the Store layer.
func (r *Registry) Unregister(ctx context.Context, id string) (bool, error) {
	removed, err := r.services.Delete(ctx, id)
	if err != nil {
		return false, domain.Fatal("unregister service", err)
	}
	return removed, nil
}

// Update overwrites only the fields draft sets, leaving status,
// last_heartbeat, and consecutive_failures untouched.
func (r *Registry) Update(ctx context.Context, id string, draft ports.ServiceDraft) (*domain.Service, error) {
	existing, err := r.services.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Fatal("look up service for update", err)
	}
	if existing == nil {
		return nil, domain.ErrServiceNotFound
	}

	updated, err := applyDraft(existing, draft)
	if err != nil {
		return nil, domain.Precondition(err.Error())
	}
	if updated.Protocol != "" && !updated.Protocol.IsValid() {
		return nil, domain.Precondition(fmt.Sprintf("invalid protocol %q", updated.Protocol))
	}

	if err := r.services.Update(ctx, updated); err != nil {
		return nil, domain.Fatal("update service", err)
	}
	return updated, nil
}

// Get returns a single service, or ErrServiceNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := r.services.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Fatal("get service", err)
	}
	if svc == nil {
		return nil, domain.ErrServiceNotFound
	}
	return svc, nil
}

// GetAll returns services matching filter.
func (r *Registry) GetAll(ctx context.Context, filter ports.ServiceFilter) ([]*domain.Service, error) {
	svcs, err := r.services.List(ctx, filter)
	if err != nil {
		return nil, domain.Fatal("list services", err)
	}
	return svcs, nil
}

// Heartbeat unconditionally resets a service to healthy with zero
// consecutive failures and a fresh last_heartbeat.
func (r *Registry) Heartbeat(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := r.services.UpdateHeartbeat(ctx, id)
	if err != nil {
		return nil, domain.Fatal("record heartbeat", err)
	}
	if svc == nil {
		return nil, domain.ErrServiceNotFound
	}
	if r.metrics != nil {
		r.metrics.RecordHeartbeat(ctx)
	}
	return svc, nil
}

// applyDraft returns a copy of base (or a zero Service if base is nil)
// with every non-nil draft field overwritten — the partial-update
// semantics shared by Register's re-register path and Update.
func applyDraft(base *domain.Service, draft ports.ServiceDraft) (*domain.Service, error) {
	var svc domain.Service
	if base != nil {
		svc = *base
	}

	if draft.ID != nil {
		svc.ID = *draft.ID
	}
	if draft.Name != nil {
		svc.Name = *draft.Name
	}
	if draft.Host != nil {
		svc.Host = *draft.Host
	}
	if draft.Port != nil {
		svc.Port = *draft.Port
	}
	if draft.Protocol != nil {
		svc.Protocol = *draft.Protocol
	}
	if draft.HealthCheckPath != nil {
		svc.HealthCheckPath = *draft.HealthCheckPath
	}
	if draft.IsGateway != nil {
		svc.IsGateway = *draft.IsGateway
	}
	if draft.BasePath != nil {
		svc.BasePath = draft.BasePath
	}
	if draft.ServiceMeta != nil {
		svc.ServiceMeta = draft.ServiceMeta
	}

	if base == nil {
		svc.RegisteredAt = time.Now()
		svc.LastHeartbeat = svc.RegisteredAt
	}

	return &svc, nil
}
