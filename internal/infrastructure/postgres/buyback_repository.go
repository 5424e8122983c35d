package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.BuybackRepository = (*BuybackRepo)(nil)

const buybackColumns = `id, tenant_id, location_id, number, seller_name, seller_doc, status,
	created_by, signed_by, created_at, signed_at, updated_at`

// BuybackRepo contratos de recompra sobre PostgreSQL.
type BuybackRepo struct {
	q Querier
}

// NewBuybackRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBuybackRepository(q Querier) *BuybackRepo {
	return &BuybackRepo{q: q}
}

// Create persiste el contrato en borrador con sus líneas.
func (r *BuybackRepo) Create(ctx context.Context, c *entity.BuybackContract) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO buyback_contracts (`+buybackColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.TenantID, c.LocationID, c.Number, c.SellerName, c.SellerDoc, c.Status,
		c.CreatedBy, c.SignedBy, c.CreatedAt, c.SignedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapError("insert buyback "+c.Number, err)
	}
	for i, l := range c.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO buyback_lines (id, contract_id, line_no, item_kind, item_id, sku, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, c.ID, i+1, string(l.ItemKind), l.ItemID, l.SKU, l.Name, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return mapError("insert buyback line", err)
		}
	}
	return nil
}

// GetByID obtiene el contrato con sus líneas.
func (r *BuybackRepo) GetByID(ctx context.Context, id string) (*entity.BuybackContract, error) {
	return r.get(ctx, "SELECT "+buybackColumns+" FROM buyback_contracts WHERE id = $1", id)
}

// GetForUpdate bloquea el contrato durante la firma.
func (r *BuybackRepo) GetForUpdate(ctx context.Context, id string) (*entity.BuybackContract, error) {
	return r.get(ctx, "SELECT "+buybackColumns+" FROM buyback_contracts WHERE id = $1 FOR UPDATE", id)
}

func (r *BuybackRepo) get(ctx context.Context, query, id string) (*entity.BuybackContract, error) {
	var c entity.BuybackContract
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.TenantID, &c.LocationID, &c.Number, &c.SellerName, &c.SellerDoc, &c.Status,
		&c.CreatedBy, &c.SignedBy, &c.CreatedAt, &c.SignedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("get buyback", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, contract_id, item_kind, item_id, sku, name, quantity, unit_price
		FROM buyback_lines WHERE contract_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list buyback lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l    entity.BuybackLine
			kind string
		)
		if err := rows.Scan(&l.ID, &l.ContractID, &kind, &l.ItemID, &l.SKU, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan buyback line: %w", err)
		}
		l.ItemKind = entity.ItemKind(kind)
		c.Lines = append(c.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list buyback lines: %w", err)
	}
	return &c, nil
}

// Update persiste la firma y el ítem resuelto de cada línea.
func (r *BuybackRepo) Update(ctx context.Context, c *entity.BuybackContract) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE buyback_contracts SET status = $2, signed_by = $3, signed_at = $4, updated_at = $5
		WHERE id = $1`, c.ID, c.Status, c.SignedBy, c.SignedAt, c.UpdatedAt)
	if err != nil {
		return mapError("update buyback", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, l := range c.Lines {
		if _, err := r.q.Exec(ctx, `UPDATE buyback_lines SET item_id = $2 WHERE id = $1`, l.ID, l.ItemID); err != nil {
			return mapError("update buyback line", err)
		}
	}
	return nil
}
