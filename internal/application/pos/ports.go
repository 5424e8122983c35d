package pos

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// SaleTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y recibos.
// El recibo y todos sus movimientos se confirman juntos o no se confirma nada.
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		receiptRepo repository.ReceiptRepository,
	) error) error
}
