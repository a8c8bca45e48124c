package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

const routeColumns = "id, gateway_service_id, path_pattern, methods, target_service_id, strip_prefix, strip_path, priority, enabled, auth_config, created_at, updated_at"

// RouteRepository implements ports.RouteStore using PostgreSQL.
type RouteRepository struct {
	db *DB
}

// NewRouteRepository creates a new RouteRepository.
func NewRouteRepository(db *DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// methodsToColumn joins Route.Methods the way the comma-joined "methods"
// column stores them ("*" when unset).
func methodsToColumn(methods []string) string {
	if len(methods) == 0 {
		return "*"
	}
	return strings.Join(methods, ",")
}

func methodsFromColumn(col string) []string {
	if col == "" || col == "*" {
		return nil
	}
	return strings.Split(col, ",")
}

func scanRoute(scanner interface{ Scan(dest ...any) error }) (*domain.Route, error) {
	r := &domain.Route{}
	var authConfigBytes []byte
	var methodsCol string
	err := scanner.Scan(
		&r.ID, &r.GatewayServiceID, &r.PathPattern, &methodsCol, &r.TargetServiceID,
		&r.StripPrefix, &r.StripPath, &r.Priority, &r.Enabled, &authConfigBytes,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Methods = methodsFromColumn(methodsCol)
	if len(authConfigBytes) > 0 {
		r.AuthConfig = &domain.AuthConfig{}
		if err := json.Unmarshal(authConfigBytes, r.AuthConfig); err != nil {
			return nil, fmt.Errorf("unmarshal auth_config: %w", err)
		}
	}
	return r, nil
}

func scanRoutes(rows pgx.Rows) ([]*domain.Route, error) {
	defer rows.Close()
	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func marshalAuthConfig(cfg *domain.AuthConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

// Create inserts a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	q := r.db.Querier(ctx)

	authConfigJSON, err := marshalAuthConfig(route.AuthConfig)
	if err != nil {
		return fmt.Errorf("routeRepo.Create: marshal auth_config: %w", err)
	}

	query := `
		INSERT INTO routes (gateway_service_id, path_pattern, methods, target_service_id, strip_prefix, strip_path, priority, enabled, auth_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err = q.QueryRow(ctx, query,
		route.GatewayServiceID, route.PathPattern, methodsToColumn(route.Methods), route.TargetServiceID,
		route.StripPrefix, route.StripPath, route.Priority, route.Enabled, authConfigJSON,
		route.CreatedAt, route.UpdatedAt,
	).Scan(&route.ID)
	if err != nil {
		return fmt.Errorf("routeRepo.Create: %w", err)
	}

	return nil
}

// GetByID retrieves a route by surrogate id.
func (r *RouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	route, err := scanRoute(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("routeRepo.GetByID(%d): %w", id, err)
	}

	return route, nil
}

// Update overwrites a route's mutable fields.
func (r *RouteRepository) Update(ctx context.Context, route *domain.Route) error {
	q := r.db.Querier(ctx)

	authConfigJSON, err := marshalAuthConfig(route.AuthConfig)
	if err != nil {
		return fmt.Errorf("routeRepo.Update(%d): marshal auth_config: %w", route.ID, err)
	}

	query := `
		UPDATE routes
		SET gateway_service_id = $2, path_pattern = $3, methods = $4, target_service_id = $5,
		    strip_prefix = $6, strip_path = $7, priority = $8, enabled = $9, auth_config = $10,
		    updated_at = $11
		WHERE id = $1`

	result, err := q.Exec(ctx, query,
		route.ID, route.GatewayServiceID, route.PathPattern, methodsToColumn(route.Methods), route.TargetServiceID,
		route.StripPrefix, route.StripPath, route.Priority, route.Enabled, authConfigJSON,
		route.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("routeRepo.Update(%d): %w", route.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("routeRepo.Update(%d): route not found", route.ID)
	}

	return nil
}

// Delete removes a route by surrogate id.
func (r *RouteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	q := r.db.Querier(ctx)

	query := `DELETE FROM routes WHERE id = $1`

	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("routeRepo.Delete(%d): %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// List returns routes matching filter, in match order (priority DESC,
// created_at DESC).
func (r *RouteRepository) List(ctx context.Context, filter ports.RouteFilter) ([]*domain.Route, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + routeColumns + ` FROM routes WHERE 1 = 1`
	var args []any

	if filter.GatewayServiceID != nil {
		args = append(args, *filter.GatewayServiceID)
		query += fmt.Sprintf(" AND gateway_service_id = $%d", len(args))
	}
	if filter.EnabledOnly {
		query += " AND enabled = true"
	}
	query += " ORDER BY priority DESC, created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("routeRepo.List: %w", err)
	}

	routes, err := scanRoutes(rows)
	if err != nil {
		return nil, fmt.Errorf("routeRepo.List: %w", err)
	}

	return routes, nil
}

// ExistsForTarget reports whether any route already targets targetID —
// used by the default-route injector to avoid duplicate routes.
func (r *RouteRepository) ExistsForTarget(ctx context.Context, targetID string) (bool, error) {
	q := r.db.Querier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM routes WHERE target_service_id = $1)`

	var exists bool
	err := q.QueryRow(ctx, query, targetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("routeRepo.ExistsForTarget(%s): %w", targetID, err)
	}

	return exists, nil
}
