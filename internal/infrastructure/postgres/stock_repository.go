package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `tenant_id, location_id, merchandise_id, spare_part_id, quantity, COALESCE(last_movement_id, 0), updated_at`

// StockRepo proyección location_stock sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo actual del par; sin fila devuelve cantidad 0.
func (r *StockRepo) Get(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error) {
	merchandiseID, sparePartID := item.Columns()
	query := "SELECT " + stockColumns + ` FROM location_stock
		WHERE tenant_id = $1 AND location_id = $2 AND ` + itemMatch(3, 4)
	s, err := scanStock(r.q.QueryRow(ctx, query, tenantID, locationID, merchandiseID, sparePartID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{TenantID: tenantID, LocationID: locationID, Item: item}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate crea la fila si no existe y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
// El INSERT ... ON CONFLICT DO NOTHING evita que dos primeras entradas concurrentes creen el par dos veces.
func (r *StockRepo) GetForUpdate(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error) {
	merchandiseID, sparePartID := item.Columns()
	insert := `
		INSERT INTO location_stock (tenant_id, location_id, merchandise_id, spare_part_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT ON CONSTRAINT location_stock_pair_key DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, tenantID, locationID, merchandiseID, sparePartID); err != nil {
		return nil, mapError("ensure stock row", err)
	}
	query := "SELECT " + stockColumns + ` FROM location_stock
		WHERE tenant_id = $1 AND location_id = $2 AND ` + itemMatch(3, 4) + `
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, tenantID, locationID, merchandiseID, sparePartID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Update persiste cantidad y último movimiento del par (fila ya bloqueada por GetForUpdate).
func (r *StockRepo) Update(ctx context.Context, s *entity.Stock) error {
	if s.Quantity < 0 {
		return domain.NewValidationError("quantity", "el saldo no puede ser negativo")
	}
	merchandiseID, sparePartID := s.Item.Columns()
	var lastMovementID *int64
	if s.LastMovementID != 0 {
		lastMovementID = &s.LastMovementID
	}
	query := `
		UPDATE location_stock SET quantity = $5, last_movement_id = $6, updated_at = COALESCE($7, now())
		WHERE tenant_id = $1 AND location_id = $2 AND ` + itemMatch(3, 4)
	var updatedAt any
	if !s.UpdatedAt.IsZero() {
		updatedAt = s.UpdatedAt
	}
	tag, err := r.q.Exec(ctx, query, s.TenantID, s.LocationID, merchandiseID, sparePartID, s.Quantity, lastMovementID, updatedAt)
	if err != nil {
		return mapError("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByItem saldos del ítem en todas las ubicaciones del tenant.
func (r *StockRepo) ListByItem(ctx context.Context, tenantID string, item entity.ItemRef) ([]*entity.Stock, error) {
	merchandiseID, sparePartID := item.Columns()
	query := "SELECT " + stockColumns + ` FROM location_stock
		WHERE tenant_id = $1 AND ` + itemMatch(2, 3) + `
		ORDER BY location_id`
	return r.list(ctx, "list stock by item", query, tenantID, merchandiseID, sparePartID)
}

// ListByLocation saldos de una ubicación ordenados por (tipo, ID) de ítem.
func (r *StockRepo) ListByLocation(ctx context.Context, tenantID, locationID string, limit, offset int) ([]*entity.Stock, error) {
	query := "SELECT " + stockColumns + ` FROM location_stock
		WHERE tenant_id = $1 AND location_id = $2
		ORDER BY (merchandise_id IS NULL), COALESCE(merchandise_id, spare_part_id)
		OFFSET $3`
	args := []any{tenantID, locationID, offset}
	if limit > 0 {
		query += " LIMIT $4"
		args = append(args, limit)
	}
	return r.list(ctx, "list stock by location", query, args...)
}

func (r *StockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Stock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var (
		s                          entity.Stock
		merchandiseID, sparePartID *string
	)
	if err := row.Scan(&s.TenantID, &s.LocationID, &merchandiseID, &sparePartID, &s.Quantity, &s.LastMovementID, &s.UpdatedAt); err != nil {
		return nil, err
	}
	item, err := entity.ItemRefFromColumns(merchandiseID, sparePartID)
	if err != nil {
		return nil, err
	}
	s.Item = item
	return &s, nil
}
