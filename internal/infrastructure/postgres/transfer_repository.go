package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

const transferColumns = `id, tenant_id, number, from_location_id, to_location_id, status, notes, reject_reason,
	requested_by, approved_by, shipped_by, received_by, closed_by,
	created_at, approved_at, shipped_at, received_at, updated_at`

// TransferRepo solicitudes de traslado sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste la solicitud y sus líneas.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRequest) error {
	query := `
		INSERT INTO transfer_requests (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.Number, t.FromLocationID, t.ToLocationID, string(t.Status), t.Notes, t.RejectReason,
		t.RequestedBy, t.ApprovedBy, t.ShippedBy, t.ReceivedBy, t.ClosedBy,
		t.CreatedAt, t.ApprovedAt, t.ShippedAt, t.ReceivedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError("insert transfer "+t.Number, err)
	}
	line := `
		INSERT INTO transfer_lines (id, transfer_id, merchandise_id, spare_part_id,
			requested_qty, approved_qty, shipped_qty, received_qty, shortage_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, l := range t.Lines {
		merchandiseID, sparePartID := l.Item.Columns()
		if _, err := r.q.Exec(ctx, line, l.ID, t.ID, merchandiseID, sparePartID,
			l.RequestedQty, l.ApprovedQty, l.ShippedQty, l.ReceivedQty, l.ShortageReason); err != nil {
			return mapError("insert transfer line", err)
		}
	}
	return nil
}

// GetByID obtiene la solicitud con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, "SELECT "+transferColumns+" FROM transfer_requests WHERE id = $1", id)
}

// GetForUpdate bloquea la solicitud para la transición en curso.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, "SELECT "+transferColumns+" FROM transfer_requests WHERE id = $1 FOR UPDATE", id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.TransferRequest, error) {
	var (
		t      entity.TransferRequest
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.TenantID, &t.Number, &t.FromLocationID, &t.ToLocationID, &status, &t.Notes, &t.RejectReason,
		&t.RequestedBy, &t.ApprovedBy, &t.ShippedBy, &t.ReceivedBy, &t.ClosedBy,
		&t.CreatedAt, &t.ApprovedAt, &t.ShippedAt, &t.ReceivedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("get transfer", err)
	}
	t.Status = entity.TransferStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_id, merchandise_id, spare_part_id,
			requested_qty, approved_qty, shipped_qty, received_qty, shortage_reason
		FROM transfer_lines WHERE transfer_id = $1
		ORDER BY (merchandise_id IS NULL), COALESCE(merchandise_id, spare_part_id)`, id)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                          entity.TransferLine
			merchandiseID, sparePartID *string
		)
		if err := rows.Scan(&l.ID, &l.TransferID, &merchandiseID, &sparePartID,
			&l.RequestedQty, &l.ApprovedQty, &l.ShippedQty, &l.ReceivedQty, &l.ShortageReason); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		item, err := entity.ItemRefFromColumns(merchandiseID, sparePartID)
		if err != nil {
			return nil, err
		}
		l.Item = item
		t.Lines = append(t.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	return &t, nil
}

// Update persiste estado, actores, fechas y cantidades por línea.
func (r *TransferRepo) Update(ctx context.Context, t *entity.TransferRequest) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transfer_requests
		SET status        = $2,
		    reject_reason = $3,
		    approved_by   = $4,
		    shipped_by    = $5,
		    received_by   = $6,
		    closed_by     = $7,
		    approved_at   = $8,
		    shipped_at    = $9,
		    received_at   = $10,
		    updated_at    = $11
		WHERE id = $1`,
		t.ID, string(t.Status), t.RejectReason, t.ApprovedBy, t.ShippedBy, t.ReceivedBy, t.ClosedBy,
		t.ApprovedAt, t.ShippedAt, t.ReceivedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError("update transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, l := range t.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE transfer_lines
			SET approved_qty = $2, shipped_qty = $3, received_qty = $4, shortage_reason = $5
			WHERE id = $1`, l.ID, l.ApprovedQty, l.ShippedQty, l.ReceivedQty, l.ShortageReason)
		if err != nil {
			return mapError("update transfer line", err)
		}
	}
	return nil
}
