package repository

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// LocationRepository puerto de lectura de ubicaciones (sucursales/bodegas).
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Location, error)
}
