package transfer

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// TransferTxRunner ejecuta una transición de traslado y sus movimientos en una sola transacción.
type TransferTxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		transferRepo repository.TransferRepository,
	) error) error
}
