package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// StockRepository puerto de la proyección de saldos por (ubicación, ítem).
// Update solo lo invoca el MovementWriter, en la misma transacción que inserta el movimiento.
type StockRepository interface {
	// Get devuelve el saldo actual; si el par no existe devuelve cantidad 0.
	Get(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error)
	// GetForUpdate crea la fila con cantidad 0 si no existe y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error)
	Update(ctx context.Context, stock *entity.Stock) error
	ListByItem(ctx context.Context, tenantID string, item entity.ItemRef) ([]*entity.Stock, error)
	ListByLocation(ctx context.Context, tenantID, locationID string, limit, offset int) ([]*entity.Stock, error)
}
