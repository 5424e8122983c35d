package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// TransferRepository puerto de persistencia de solicitudes de traslado.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.TransferRequest) error
	GetByID(ctx context.Context, id string) (*entity.TransferRequest, error)
	GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error)
	// Update persiste estado, actores, fechas y cantidades de las líneas.
	Update(ctx context.Context, transfer *entity.TransferRequest) error
}
