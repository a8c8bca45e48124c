package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
)

const dependencyColumns = "id, source_service_id, target_service_id, description, created_at"

// DependencyRepository implements ports.DependencyStore using PostgreSQL.
type DependencyRepository struct {
	db *DB
}

// NewDependencyRepository creates a new DependencyRepository.
func NewDependencyRepository(db *DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

func scanDependency(scanner interface{ Scan(dest ...any) error }) (*domain.Dependency, error) {
	d := &domain.Dependency{}
	err := scanner.Scan(&d.ID, &d.SourceServiceID, &d.TargetServiceID, &d.Description, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func scanDependencies(rows pgx.Rows) ([]*domain.Dependency, error) {
	defer rows.Close()
	var deps []*domain.Dependency
	for rows.Next() {
		d, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// Create inserts a new dependency edge.
func (r *DependencyRepository) Create(ctx context.Context, dep *domain.Dependency) error {
	q := r.db.Querier(ctx)

	query := `
		INSERT INTO dependencies (source_service_id, target_service_id, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := q.QueryRow(ctx, query, dep.SourceServiceID, dep.TargetServiceID, dep.Description, dep.CreatedAt).Scan(&dep.ID)
	if err != nil {
		return fmt.Errorf("dependencyRepo.Create(%s->%s): %w", dep.SourceServiceID, dep.TargetServiceID, err)
	}

	return nil
}

// GetByEdge returns the dependency row for (sourceID, targetID), or nil if
// no such edge exists — backs Create's idempotent-on-duplicate contract.
func (r *DependencyRepository) GetByEdge(ctx context.Context, sourceID, targetID string) (*domain.Dependency, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE source_service_id = $1 AND target_service_id = $2`

	dep, err := scanDependency(q.QueryRow(ctx, query, sourceID, targetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("dependencyRepo.GetByEdge(%s, %s): %w", sourceID, targetID, err)
	}

	return dep, nil
}

// GetByID retrieves a dependency by its surrogate id.
func (r *DependencyRepository) GetByID(ctx context.Context, id int64) (*domain.Dependency, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE id = $1`

	dep, err := scanDependency(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("dependencyRepo.GetByID(%d): %w", id, err)
	}

	return dep, nil
}

// Delete removes a dependency by surrogate id.
func (r *DependencyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	q := r.db.Querier(ctx)

	query := `DELETE FROM dependencies WHERE id = $1`

	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("dependencyRepo.Delete(%d): %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// ListAll returns every dependency edge.
func (r *DependencyRepository) ListAll(ctx context.Context) ([]*domain.Dependency, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + dependencyColumns + ` FROM dependencies ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dependencyRepo.ListAll: %w", err)
	}

	deps, err := scanDependencies(rows)
	if err != nil {
		return nil, fmt.Errorf("dependencyRepo.ListAll: %w", err)
	}

	return deps, nil
}

// ListForService returns the outgoing or incoming edges for serviceID.
func (r *DependencyRepository) ListForService(ctx context.Context, serviceID string, direction ports.DependencyDirection) ([]*domain.Dependency, error) {
	q := r.db.Querier(ctx)

	column := "source_service_id"
	if direction == ports.DirectionIncoming {
		column = "target_service_id"
	}
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE ` + column + ` = $1 ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("dependencyRepo.ListForService(%s, %s): %w", serviceID, direction, err)
	}

	deps, err := scanDependencies(rows)
	if err != nil {
		return nil, fmt.Errorf("dependencyRepo.ListForService(%s, %s): %w", serviceID, direction, err)
	}

	return deps, nil
}
