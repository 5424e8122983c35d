package buyback

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// BuybackTxRunner ejecuta la firma del contrato y sus entradas de inventario en una sola transacción.
type BuybackTxRunner interface {
	RunBuyback(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		buybackRepo repository.BuybackRepository,
	) error) error
}
