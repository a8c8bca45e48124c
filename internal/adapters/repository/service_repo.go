package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

const serviceColumns = "id, name, host, port, protocol, health_check_path, status, is_gateway, base_path, service_meta, registered_at, last_heartbeat, consecutive_failures"

// ServiceRepository implements ports.ServiceStore using PostgreSQL.
type ServiceRepository struct {
	db *DB
}

// NewServiceRepository creates a new ServiceRepository.
func NewServiceRepository(db *DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func scanService(scanner interface{ Scan(dest ...any) error }) (*domain.Service, error) {
	s := &domain.Service{}
	var metaBytes []byte
	err := scanner.Scan(
		&s.ID, &s.Name, &s.Host, &s.Port, &s.Protocol, &s.HealthCheckPath,
		&s.Status, &s.IsGateway, &s.BasePath, &metaBytes,
		&s.RegisteredAt, &s.LastHeartbeat, &s.ConsecutiveFailures,
	)
	if err != nil {
		return nil, err
	}
	if len(metaBytes) > 0 {
		if err := json.Unmarshal(metaBytes, &s.ServiceMeta); err != nil {
			return nil, fmt.Errorf("unmarshal service_meta: %w", err)
		}
	}
	return s, nil
}

func scanServices(rows pgx.Rows) ([]*domain.Service, error) {
	defer rows.Close()
	var services []*domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Create inserts a new service.
func (r *ServiceRepository) Create(ctx context.Context, svc *domain.Service) error {
	q := r.db.Querier(ctx)

	metaJSON, err := json.Marshal(svc.ServiceMeta)
	if err != nil {
		return fmt.Errorf("serviceRepo.Create(%s): marshal service_meta: %w", svc.ID, err)
	}

	query := `
		INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = q.Exec(ctx, query,
		svc.ID, svc.Name, svc.Host, svc.Port, svc.Protocol, svc.HealthCheckPath,
		svc.Status, svc.IsGateway, svc.BasePath, metaJSON,
		svc.RegisteredAt, svc.LastHeartbeat, svc.ConsecutiveFailures,
	)
	if err != nil {
		return fmt.Errorf("serviceRepo.Create(%s): %w", svc.ID, err)
	}

	return nil
}

// Upsert inserts svc, or overwrites every column except registered_at if a
// row with the same id already exists. Used by Registry.Register's
// re-register path.
func (r *ServiceRepository) Upsert(ctx context.Context, svc *domain.Service) error {
	q := r.db.Querier(ctx)

	metaJSON, err := json.Marshal(svc.ServiceMeta)
	if err != nil {
		return fmt.Errorf("serviceRepo.Upsert(%s): marshal service_meta: %w", svc.ID, err)
	}

	query := `
		INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, host = EXCLUDED.host, port = EXCLUDED.port,
			protocol = EXCLUDED.protocol, health_check_path = EXCLUDED.health_check_path,
			status = EXCLUDED.status, is_gateway = EXCLUDED.is_gateway,
			base_path = EXCLUDED.base_path, service_meta = EXCLUDED.service_meta,
			last_heartbeat = EXCLUDED.last_heartbeat, consecutive_failures = EXCLUDED.consecutive_failures`

	_, err = q.Exec(ctx, query,
		svc.ID, svc.Name, svc.Host, svc.Port, svc.Protocol, svc.HealthCheckPath,
		svc.Status, svc.IsGateway, svc.BasePath, metaJSON,
		svc.RegisteredAt, svc.LastHeartbeat, svc.ConsecutiveFailures,
	)
	if err != nil {
		return fmt.Errorf("serviceRepo.Upsert(%s): %w", svc.ID, err)
	}

	return nil
}

// GetByID retrieves a service by id.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	svc, err := scanService(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("serviceRepo.GetByID(%s): %w", id, err)
	}

	return svc, nil
}

// List returns services matching filter, newest-registered first.
func (r *ServiceRepository) List(ctx context.Context, filter ports.ServiceFilter) ([]*domain.Service, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + serviceColumns + ` FROM services WHERE 1 = 1`
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.IsGateway != nil {
		args = append(args, *filter.IsGateway)
		query += fmt.Sprintf(" AND is_gateway = $%d", len(args))
	}
	query += " ORDER BY registered_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("serviceRepo.List: %w", err)
	}

	services, err := scanServices(rows)
	if err != nil {
		return nil, fmt.Errorf("serviceRepo.List: %w", err)
	}

	return services, nil
}

// Update overwrites the mutable registration fields of a service. Status,
// last_heartbeat, and consecutive_failures are left untouched, matching
// the registry's partial-update contract.
func (r *ServiceRepository) Update(ctx context.Context, svc *domain.Service) error {
	q := r.db.Querier(ctx)

	metaJSON, err := json.Marshal(svc.ServiceMeta)
	if err != nil {
		return fmt.Errorf("serviceRepo.Update(%s): marshal service_meta: %w", svc.ID, err)
	}

	query := `
		UPDATE services
		SET name = $2, host = $3, port = $4, protocol = $5, health_check_path = $6,
		    is_gateway = $7, base_path = $8, service_meta = $9
		WHERE id = $1`

	result, err := q.Exec(ctx, query,
		svc.ID, svc.Name, svc.Host, svc.Port, svc.Protocol, svc.HealthCheckPath,
		svc.IsGateway, svc.BasePath, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("serviceRepo.Update(%s): %w", svc.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("serviceRepo.Update(%s): service not found", svc.ID)
	}

	return nil
}

// Delete removes a service by id. FK cascade drops owned dependencies and
// routes. Returns whether a row was removed.
func (r *ServiceRepository) Delete(ctx context.Context, id string) (bool, error) {
	q := r.db.Querier(ctx)

	query := `DELETE FROM services WHERE id = $1`

	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("serviceRepo.Delete(%s): %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// UpdateHeartbeat sets last_heartbeat = now, status = healthy,
// consecutive_failures = 0 unconditionally, and returns the updated row.
func (r *ServiceRepository) UpdateHeartbeat(ctx context.Context, id string) (*domain.Service, error) {
	q := r.db.Querier(ctx)

	query := `
		UPDATE services
		SET last_heartbeat = now(), status = $2, consecutive_failures = 0
		WHERE id = $1
		RETURNING ` + serviceColumns

	svc, err := scanService(q.QueryRow(ctx, query, id, domain.ServiceStatusHealthy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("serviceRepo.UpdateHeartbeat(%s): %w", id, err)
	}

	return svc, nil
}

// UpdateStatus sets status and consecutive_failures without touching
// last_heartbeat, used by the Health Engine's probe and sweep jobs.
func (r *ServiceRepository) UpdateStatus(ctx context.Context, id string, status domain.ServiceStatus, consecutiveFailures int) error {
	q := r.db.Querier(ctx)

	query := `UPDATE services SET status = $2, consecutive_failures = $3 WHERE id = $1`

	_, err := q.Exec(ctx, query, id, status, consecutiveFailures)
	if err != nil {
		return fmt.Errorf("serviceRepo.UpdateStatus(%s): %w", id, err)
	}

	return nil
}

// FirstGateway returns the lexicographically-smallest-id service with
// is_gateway = true, or nil if none exists — the deterministic tie-break
// for the default-route injector.
func (r *ServiceRepository) FirstGateway(ctx context.Context) (*domain.Service, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + serviceColumns + ` FROM services WHERE is_gateway = true ORDER BY id ASC LIMIT 1`

	svc, err := scanService(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("serviceRepo.FirstGateway: %w", err)
	}

	return svc, nil
}

// Stats returns aggregate service counts by status and gateway role in a
// single query.
func (r *ServiceRepository) Stats(ctx context.Context) (ports.ServiceStats, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'healthy'),
			COUNT(*) FILTER (WHERE status = 'unhealthy'),
			COUNT(*) FILTER (WHERE is_gateway = true)
		FROM services`

	var stats ports.ServiceStats
	err := q.QueryRow(ctx, query).Scan(&stats.Total, &stats.Healthy, &stats.Unhealthy, &stats.Gateways)
	if err != nil {
		return ports.ServiceStats{}, fmt.Errorf("serviceRepo.Stats: %w", err)
	}
	stats.Unknown = stats.Total - stats.Healthy - stats.Unhealthy

	return stats, nil
}
