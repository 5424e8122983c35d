package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LowStockRow resultado crudo para un ítem bajo su punto de reorden en una ubicación.
type LowStockRow struct {
	Item         entity.ItemRef
	SKU          string
	Name         string
	CurrentStock int
	ReorderPoint int
	UnitCost     decimal.Decimal
}

// ItemRepository puerto de lectura del catálogo (mercancía y repuestos).
// Create y UpdateCost existen para los flujos de importación, recompra y entradas.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByRef(ctx context.Context, tenantID string, ref entity.ItemRef) (*entity.Item, error)
	GetBySKU(ctx context.Context, tenantID string, kind entity.ItemKind, sku string) (*entity.Item, error)
	UpdateCost(ctx context.Context, ref entity.ItemRef, cost decimal.Decimal) error
	ListBelowReorderPoint(ctx context.Context, tenantID, locationID string) ([]LowStockRow, error)
}
