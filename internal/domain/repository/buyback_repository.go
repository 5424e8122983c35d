package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// BuybackRepository puerto de persistencia de contratos de recompra.
type BuybackRepository interface {
	Create(ctx context.Context, contract *entity.BuybackContract) error
	GetByID(ctx context.Context, id string) (*entity.BuybackContract, error)
	GetForUpdate(ctx context.Context, id string) (*entity.BuybackContract, error)
	Update(ctx context.Context, contract *entity.BuybackContract) error
}
