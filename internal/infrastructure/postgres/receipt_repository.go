package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

const receiptColumns = `id, tenant_id, location_id, number, customer_name, status, net_total, created_by, void_reason, created_at, updated_at`

// ReceiptRepo recibos POS (cabecera y líneas) sobre PostgreSQL. Usable con pool o tx.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create persiste cabecera y líneas. Debe correr dentro de la tx de la venta.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	query := `
		INSERT INTO pos_receipts (id, tenant_id, location_id, number, customer_name, status, net_total, created_by, void_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rc.ID, rc.TenantID, rc.LocationID, rc.Number, rc.CustomerName, string(rc.Status),
		rc.NetTotal, rc.CreatedBy, rc.VoidReason, rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		return mapError("insert receipt "+rc.Number, err)
	}
	line := `
		INSERT INTO pos_receipt_lines (id, receipt_id, line_no, kind, merchandise_id, spare_part_id, description,
			quantity, unit_price, unit_cost, subtotal, refunded_qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, l := range rc.Lines {
		merchandiseID, sparePartID := l.Item.Columns()
		_, err := r.q.Exec(ctx, line,
			l.ID, rc.ID, l.LineNo, l.Kind, merchandiseID, sparePartID, l.Description,
			l.Quantity, l.UnitPrice, l.UnitCost, l.Subtotal, l.RefundedQty,
		)
		if err != nil {
			return mapError("insert receipt line", err)
		}
	}
	return nil
}

// GetByID obtiene el recibo completo.
func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, "SELECT "+receiptColumns+" FROM pos_receipts WHERE id = $1", id)
}

// GetForUpdate bloquea la cabecera; las líneas solo se modifican con la cabecera bloqueada.
func (r *ReceiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, "SELECT "+receiptColumns+" FROM pos_receipts WHERE id = $1 FOR UPDATE", id)
}

func (r *ReceiptRepo) get(ctx context.Context, query, id string) (*entity.Receipt, error) {
	var (
		rc     entity.Receipt
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rc.ID, &rc.TenantID, &rc.LocationID, &rc.Number, &rc.CustomerName, &status,
		&rc.NetTotal, &rc.CreatedBy, &rc.VoidReason, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("get receipt", err)
	}
	rc.Status = entity.ReceiptStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, receipt_id, line_no, kind, merchandise_id, spare_part_id, description,
			quantity, unit_price, unit_cost, subtotal, refunded_qty
		FROM pos_receipt_lines WHERE receipt_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                          entity.ReceiptLine
			merchandiseID, sparePartID *string
		)
		if err := rows.Scan(&l.ID, &l.ReceiptID, &l.LineNo, &l.Kind, &merchandiseID, &sparePartID, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.UnitCost, &l.Subtotal, &l.RefundedQty); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		if l.Kind != entity.LineService {
			item, err := entity.ItemRefFromColumns(merchandiseID, sparePartID)
			if err != nil {
				return nil, err
			}
			l.Item = item
		}
		rc.Lines = append(rc.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	return &rc, nil
}

// Update persiste estado, motivo de anulación y cantidades devueltas.
func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE pos_receipts SET status = $2, void_reason = $3, updated_at = $4
		WHERE id = $1`, rc.ID, string(rc.Status), rc.VoidReason, rc.UpdatedAt)
	if err != nil {
		return mapError("update receipt", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, l := range rc.Lines {
		if _, err := r.q.Exec(ctx, `UPDATE pos_receipt_lines SET refunded_qty = $2 WHERE id = $1`, l.ID, l.RefundedQty); err != nil {
			return mapError("update receipt line", err)
		}
	}
	return nil
}
