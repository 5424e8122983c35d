package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// ReceiptRepository puerto de persistencia de recibos POS (cabecera y líneas).
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id string) (*entity.Receipt, error)
	// GetForUpdate bloquea la cabecera del recibo hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Receipt, error)
	// Update persiste estado, motivo de anulación y cantidades devueltas por línea.
	Update(ctx context.Context, receipt *entity.Receipt) error
}
