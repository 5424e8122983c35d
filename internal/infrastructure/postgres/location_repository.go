package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	var loc entity.Location
	err := r.q.QueryRow(ctx,
		`SELECT id, tenant_id, name, address, created_at, updated_at FROM locations WHERE id = $1`, id,
	).Scan(&loc.ID, &loc.TenantID, &loc.Name, &loc.Address, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, mapError("get location", err)
	}
	return &loc, nil
}

// ListByTenant ubicaciones del tenant ordenadas por nombre.
func (r *LocationRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, tenant_id, name, address, created_at, updated_at FROM locations WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var out []*entity.Location
	for rows.Next() {
		var loc entity.Location
		if err := rows.Scan(&loc.ID, &loc.TenantID, &loc.Name, &loc.Address, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}
