package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, tenant_id, kind, sku, name, cost, price, reorder_point, created_at, updated_at`

// ItemRepo catálogo de mercancía y repuestos sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create inserta el ítem; SKU repetido en el mismo tenant y tipo devuelve ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (id, tenant_id, kind, sku, name, cost, price, reorder_point, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.TenantID, string(item.Kind), item.SKU, item.Name,
		item.Cost, item.Price, item.ReorderPoint, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return mapError("create item "+item.SKU, err)
	}
	return nil
}

// GetByRef busca el ítem por ID exigiendo que el tipo coincida con la referencia.
func (r *ItemRepo) GetByRef(ctx context.Context, tenantID string, ref entity.ItemRef) (*entity.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE tenant_id = $1 AND id = $2 AND kind = $3"
	item, err := scanItem(r.q.QueryRow(ctx, query, tenantID, ref.ID(), string(ref.Kind())))
	if err != nil {
		return nil, mapError("get item", err)
	}
	return item, nil
}

// GetBySKU busca por código de barras, IMEI o código interno.
func (r *ItemRepo) GetBySKU(ctx context.Context, tenantID string, kind entity.ItemKind, sku string) (*entity.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE tenant_id = $1 AND kind = $2 AND sku = $3"
	item, err := scanItem(r.q.QueryRow(ctx, query, tenantID, string(kind), sku))
	if err != nil {
		return nil, mapError("get item by sku", err)
	}
	return item, nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ItemRepo) UpdateCost(ctx context.Context, ref entity.ItemRef, cost decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE items SET cost = $3, updated_at = now() WHERE id = $1 AND kind = $2`,
		ref.ID(), string(ref.Kind()), cost)
	if err != nil {
		return mapError("update item cost", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBelowReorderPoint ítems con punto de reorden cuyo saldo en la ubicación es menor a él.
// Un ítem sin fila en location_stock cuenta con saldo 0.
func (r *ItemRepo) ListBelowReorderPoint(ctx context.Context, tenantID, locationID string) ([]repository.LowStockRow, error) {
	query := `
		SELECT i.id, i.kind, i.sku, i.name, COALESCE(ls.quantity, 0), i.reorder_point, i.cost
		FROM items i
		LEFT JOIN location_stock ls
			ON ls.tenant_id = i.tenant_id AND ls.location_id = $2
			AND (ls.merchandise_id = i.id OR ls.spare_part_id = i.id)
		WHERE i.tenant_id = $1 AND i.reorder_point > 0
			AND COALESCE(ls.quantity, 0) < i.reorder_point
		ORDER BY i.sku`
	rows, err := r.q.Query(ctx, query, tenantID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	defer rows.Close()
	var out []repository.LowStockRow
	for rows.Next() {
		var (
			row      repository.LowStockRow
			id, kind string
		)
		if err := rows.Scan(&id, &kind, &row.SKU, &row.Name, &row.CurrentStock, &row.ReorderPoint, &row.UnitCost); err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		ref, err := entity.NewItemRef(entity.ItemKind(kind), id)
		if err != nil {
			return nil, err
		}
		row.Item = ref
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	return out, nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var (
		item entity.Item
		kind string
	)
	err := row.Scan(&item.ID, &item.TenantID, &kind, &item.SKU, &item.Name,
		&item.Cost, &item.Price, &item.ReorderPoint, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = entity.ItemKind(kind)
	return &item, nil
}
