package repository

import (
	"context"
	"time"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// MovementFilter filtros opcionales del kardex.
type MovementFilter struct {
	LocationID string
	From       *time.Time
	To         *time.Time
}

// StockMovementRepository puerto de persistencia del kardex (solo inserción; no hay Update ni Delete).
type StockMovementRepository interface {
	// Create inserta el movimiento y asigna ID y CreatedAt.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByItem devuelve el historial del ítem en orden de creación ascendente.
	ListByItem(ctx context.Context, tenantID string, item entity.ItemRef, filter MovementFilter) ([]*entity.StockMovement, error)
	// LastForPair devuelve el último movimiento del par (ubicación, ítem) o nil.
	LastForPair(ctx context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.StockMovement, error)
	ListByReference(ctx context.Context, tenantID, refKind, refID string) ([]*entity.StockMovement, error)
	ExistsForPair(ctx context.Context, tenantID, locationID string, item entity.ItemRef, kind entity.MovementKind) (bool, error)
}
