package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, tenant_id, location_id, target_location_id, merchandise_id, spare_part_id, kind,
	quantity_delta, balance_before, balance_after, unit_cost, unit_price,
	reference_kind, reference_id, reference_number, actor_id, reason, notes, created_at`

// itemMatch filtra por la referencia tipada; $a y $b son (merchandise_id, spare_part_id).
func itemMatch(a, b int) string {
	return fmt.Sprintf("merchandise_id IS NOT DISTINCT FROM $%d AND spare_part_id IS NOT DISTINCT FROM $%d", a, b)
}

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx). Solo inserta y lee.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; la base asigna el ID de la secuencia.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	merchandiseID, sparePartID := m.Item.Columns()
	query := `
		INSERT INTO stock_movements (tenant_id, location_id, target_location_id, merchandise_id, spare_part_id, kind,
			quantity_delta, balance_before, balance_after, unit_cost, unit_price,
			reference_kind, reference_id, reference_number, actor_id, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, COALESCE($18, now()))
		RETURNING id, created_at`
	var createdAt any
	if !m.CreatedAt.IsZero() {
		createdAt = m.CreatedAt
	}
	err := r.q.QueryRow(ctx, query,
		m.TenantID, m.LocationID, nullString(m.TargetLocationID), merchandiseID, sparePartID, string(m.Kind),
		m.QuantityDelta, m.BalanceBefore, m.BalanceAfter, nullDecimal(m.UnitCost), nullDecimal(m.UnitPrice),
		nullString(m.Reference.Kind), nullString(m.Reference.ID), nullString(m.Reference.Number),
		m.ActorID, nullString(m.Reason), nullString(m.Notes), createdAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapError("create stock movement", err)
	}
	return nil
}

// ListByItem historial del ítem en orden de ID (orden de creación).
func (r *StockMovementRepo) ListByItem(ctx context.Context, tenantID string, item entity.ItemRef, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	merchandiseID, sparePartID := item.Columns()
	var b strings.Builder
	b.WriteString("SELECT " + movementColumns + " FROM stock_movements WHERE tenant_id = $1 AND " + itemMatch(2, 3))
	args := []any{tenantID, merchandiseID, sparePartID}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		fmt.Fprintf(&b, " AND location_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&b, " AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&b, " AND created_at <= $%d", len(args))
	}
	b.WriteString(" ORDER BY id")
	return r.list(ctx, "list movements by item", b.String(), args...)
}

// LastForPair último movimiento del par o nil si no hay.
func (r *StockMovementRepo) LastForPair(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.StockMovement, error) {
	merchandiseID, sparePartID := item.Columns()
	query := "SELECT " + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND location_id = $2 AND ` + itemMatch(3, 4) + `
		ORDER BY id DESC LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, locationID, merchandiseID, sparePartID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last movement for pair: %w", err)
	}
	return m, nil
}

// ListByReference movimientos generados por un documento de negocio.
func (r *StockMovementRepo) ListByReference(ctx context.Context, tenantID, refKind, refID string) ([]*entity.StockMovement, error) {
	query := "SELECT " + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND reference_kind = $2 AND reference_id = $3
		ORDER BY id`
	return r.list(ctx, "list movements by reference", query, tenantID, refKind, refID)
}

// ExistsForPair indica si el par ya tiene un movimiento del tipo dado.
func (r *StockMovementRepo) ExistsForPair(ctx context.Context, tenantID, locationID string, item entity.ItemRef, kind entity.MovementKind) (bool, error) {
	merchandiseID, sparePartID := item.Columns()
	query := `SELECT EXISTS (SELECT 1 FROM stock_movements
		WHERE tenant_id = $1 AND location_id = $2 AND ` + itemMatch(3, 4) + ` AND kind = $5)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, tenantID, locationID, merchandiseID, sparePartID, string(kind)).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists movement for pair: %w", err)
	}
	return exists, nil
}

func (r *StockMovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m                                        entity.StockMovement
		kind                                     string
		target, merchandiseID, sparePartID       *string
		refKind, refID, refNumber, reason, notes *string
		unitCost, unitPrice                      decimal.NullDecimal
	)
	err := row.Scan(
		&m.ID, &m.TenantID, &m.LocationID, &target, &merchandiseID, &sparePartID, &kind,
		&m.QuantityDelta, &m.BalanceBefore, &m.BalanceAfter, &unitCost, &unitPrice,
		&refKind, &refID, &refNumber, &m.ActorID, &reason, &notes, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item, err := entity.ItemRefFromColumns(merchandiseID, sparePartID)
	if err != nil {
		return nil, fmt.Errorf("movement %d: %w", m.ID, err)
	}
	m.Item = item
	m.Kind = entity.MovementKind(kind)
	m.TargetLocationID = derefString(target)
	m.UnitCost = decimalPtr(unitCost)
	m.UnitPrice = decimalPtr(unitPrice)
	m.Reference = entity.DocumentRef{Kind: derefString(refKind), ID: derefString(refID), Number: derefString(refNumber)}
	m.Reason = derefString(reason)
	m.Notes = derefString(notes)
	return &m, nil
}
