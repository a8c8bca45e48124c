package services

import (
	"context"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

var _ ports.RouteService = (*RouteService)(nil)

// RouteService manages gateway routes: CRUD, glob-based path matching,
// and the gateway-routes projection that joins routes, targets, and
// authentication services into one response.
type RouteService struct {
	routes   ports.RouteStore
	services ports.ServiceStore
}

// NewRouteService constructs a RouteService.
func NewRouteService(routes ports.RouteStore, services ports.ServiceStore) *RouteService {
	return &RouteService{routes: routes, services: services}
}

// Create validates that gateway_service_id names a gateway and
// target_service_id names an existing service, then persists the route.
func (s *RouteService) Create(ctx context.Context, draft ports.RouteDraft) (*domain.Route, error) {
	if draft.GatewayServiceID == nil || draft.PathPattern == nil || draft.TargetServiceID == nil {
		return nil, domain.Precondition("gateway_service_id, path_pattern, and target_service_id are required")
	}

	gateway, err := s.services.GetByID(ctx, *draft.GatewayServiceID)
	if err != nil {
		return nil, domain.Fatal("look up gateway service", err)
	}
	if gateway == nil {
		return nil, domain.NotFound("gateway service not found")
	}
	if !gateway.IsGateway {
		return nil, domain.ErrNotAGateway
	}

	target, err := s.services.GetByID(ctx, *draft.TargetServiceID)
	if err != nil {
		return nil, domain.Fatal("look up target service", err)
	}
	if target == nil {
		return nil, domain.NotFound("target service not found")
	}

	route := &domain.Route{
		GatewayServiceID: *draft.GatewayServiceID,
		PathPattern:      *draft.PathPattern,
		Methods:          draft.Methods,
		TargetServiceID:  *draft.TargetServiceID,
		Enabled:          true,
	}
	applyRouteDraft(route, draft)

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, domain.Fatal("create route", err)
	}
	return route, nil
}

// Get returns a single route, or ErrRouteNotFound.
func (s *RouteService) Get(ctx context.Context, id int64) (*domain.Route, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Fatal("get route", err)
	}
	if route == nil {
		return nil, domain.ErrRouteNotFound
	}
	return route, nil
}

// Update overwrites only the fields draft sets. gateway_service_id and
// target_service_id, if changed, are re-validated the same way Create
// validates them.
func (s *RouteService) Update(ctx context.Context, id int64, draft ports.RouteDraft) (*domain.Route, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Fatal("look up route for update", err)
	}
	if route == nil {
		return nil, domain.ErrRouteNotFound
	}

	if draft.GatewayServiceID != nil {
		gateway, err := s.services.GetByID(ctx, *draft.GatewayServiceID)
		if err != nil {
			return nil, domain.Fatal("look up gateway service", err)
		}
		if gateway == nil {
			return nil, domain.NotFound("gateway service not found")
		}
		if !gateway.IsGateway {
			return nil, domain.ErrNotAGateway
		}
	}
	if draft.TargetServiceID != nil {
		target, err := s.services.GetByID(ctx, *draft.TargetServiceID)
		if err != nil {
			return nil, domain.Fatal("look up target service", err)
		}
		if target == nil {
			return nil, domain.NotFound("target service not found")
		}
	}

	applyRouteDraft(route, draft)
	route.UpdatedAt = time.Now()

	if err := s.routes.Update(ctx, route); err != nil {
		return nil, domain.Fatal("update route", err)
	}
	return route, nil
}

func applyRouteDraft(route *domain.Route, draft ports.RouteDraft) {
	if draft.GatewayServiceID != nil {
		route.GatewayServiceID = *draft.GatewayServiceID
	}
	if draft.PathPattern != nil {
		route.PathPattern = *draft.PathPattern
	}
	if draft.Methods != nil {
		route.Methods = draft.Methods
	}
	if draft.TargetServiceID != nil {
		route.TargetServiceID = *draft.TargetServiceID
	}
	if draft.StripPrefix != nil {
		route.StripPrefix = *draft.StripPrefix
	}
	if draft.StripPath != nil {
		route.StripPath = draft.StripPath
	}
	if draft.Priority != nil {
		route.Priority = *draft.Priority
	}
	if draft.Enabled != nil {
		route.Enabled = *draft.Enabled
	}
	if draft.AuthConfig != nil {
		route.AuthConfig = draft.AuthConfig
	}
}

// Delete removes a route by id.
func (s *RouteService) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.routes.Delete(ctx, id)
	if err != nil {
		return false, domain.Fatal("delete route", err)
	}
	return removed, nil
}

// ListAll returns routes, optionally scoped to a gateway and/or enabled
// routes only, in match order (priority DESC, created_at DESC).
func (s *RouteService) ListAll(ctx context.Context, gatewayID *string, enabledOnly bool) ([]*domain.Route, error) {
	routes, err := s.routes.List(ctx, ports.RouteFilter{GatewayServiceID: gatewayID, EnabledOnly: enabledOnly})
	if err != nil {
		return nil, domain.Fatal("list routes", err)
	}
	return routes, nil
}

// Match reports whether path satisfies pattern, treating "**" as zero or
// more path segments and "*" as exactly one, via doublestar.PathMatch.
func (s *RouteService) Match(pattern, path string) bool {
	ok, err := doublestar.PathMatch(pattern, path)
	if err != nil {
		return false
	}
	return ok
}

// FindRouteForService returns the first enabled route, in match order,
// that a gateway has pointed at targetID — or nil if none exists. Ported
// from original_source/app/services/routing.py:find_route_for_service.
func (s *RouteService) FindRouteForService(ctx context.Context, gatewayID, targetID string) (*domain.Route, error) {
	routes, err := s.routes.List(ctx, ports.RouteFilter{GatewayServiceID: &gatewayID, EnabledOnly: true})
	if err != nil {
		return nil, domain.Fatal("list routes for service lookup", err)
	}
	for _, route := range routes {
		if route.TargetServiceID == targetID {
			return route, nil
		}
	}
	return nil, nil
}

// GatewayRoutes builds the enriched, gateway-facing view of every enabled
// route: target service snapshot, authentication service join, and
// derived login-redirect. Ported from
// original_source/app/api/gateway.py:get_gateway_routes, enriched per
// original_source/app/schemas/route.py's AuthConfig/GatewayRouteResponse
// shapes.
func (s *RouteService) GatewayRoutes(ctx context.Context, gatewayID string) ([]domain.GatewayRoute, error) {
	gateway, err := s.services.GetByID(ctx, gatewayID)
	if err != nil {
		return nil, domain.Fatal("look up gateway service", err)
	}
	if gateway == nil {
		return nil, domain.NotFound("gateway service not found")
	}
	if !gateway.IsGateway {
		return nil, domain.ErrNotAGateway
	}

	routes, err := s.routes.List(ctx, ports.RouteFilter{GatewayServiceID: &gatewayID, EnabledOnly: true})
	if err != nil {
		return nil, domain.Fatal("list gateway routes", err)
	}

	allServices, err := s.services.List(ctx, ports.ServiceFilter{})
	if err != nil {
		return nil, domain.Fatal("list services for gateway route enrichment", err)
	}
	byID := make(map[string]*domain.Service, len(allServices))
	authByID := make(map[string]*domain.Service)
	for _, svc := range allServices {
		byID[svc.ID] = svc
		if svc.IsAuthenticationService() {
			authByID[svc.ID] = svc
		}
	}

	result := make([]domain.GatewayRoute, 0, len(routes))
	for _, route := range routes {
		target, ok := byID[route.TargetServiceID]
		if !ok {
			continue
		}

		gr := domain.GatewayRoute{
			Route: *route,
			TargetService: domain.ServiceSnapshot{
				ID: target.ID, Name: target.Name, Host: target.Host,
				Port: target.Port, Status: target.Status,
			},
		}

		if route.AuthConfig != nil {
			cfg := *route.AuthConfig
			gr.Route.AuthConfig = &cfg

			if cfg.AuthServiceID != nil {
				if authSvc, ok := authByID[*cfg.AuthServiceID]; ok {
					gr.AuthService = &domain.AuthServiceInfo{
						ID: authSvc.ID, Name: authSvc.Name,
						AuthEndpoint: authSvc.AuthEndpoint(),
						LoginPath:    authSvc.LoginPath(),
						Status:       authSvc.Status,
					}
					if cfg.LoginRedirect != nil && *cfg.LoginRedirect != "" {
						gr.LoginRedirect = *cfg.LoginRedirect
					} else {
						redirect := s.resolveLoginRedirect(ctx, gatewayID, authSvc)
						gr.LoginRedirect = redirect
						cfg.LoginRedirect = &redirect
					}
				}
			}
		}

		result = append(result, gr)
	}

	return result, nil
}

// resolveLoginRedirect implements the login-redirect derivation: normalize
// the auth service's login_path, find the highest-priority enabled route
// the gateway has pointed at that auth service, and if that route strips a
// prefix, prepend the route's gateway-facing prefix to login_path;
// otherwise fall back to the auth service's own base URL.
func (s *RouteService) resolveLoginRedirect(ctx context.Context, gatewayID string, authSvc *domain.Service) string {
	loginPath := authSvc.LoginPath()
	if loginPath == "" {
		loginPath = "/login"
	}

	authRoute, err := s.FindRouteForService(ctx, gatewayID, authSvc.ID)
	if err == nil && authRoute != nil && authRoute.StripPrefix {
		gatewayPrefix := "/" + authSvc.ID
		if authRoute.StripPath != nil && *authRoute.StripPath != "" {
			gatewayPrefix = *authRoute.StripPath
		}
		return gatewayPrefix + loginPath
	}

	return strings.TrimRight(authSvc.BaseURL(), "/") + loginPath
}
