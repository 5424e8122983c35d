package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// AdjustInput corrección manual (ADJUST, cualquier signo) o baja por daño (DAMAGE, negativa).
type AdjustInput struct {
	LocationID    string
	Item          entity.ItemRef
	Kind          entity.MovementKind
	QuantityDelta int
	Reason        string
}

// Adjust registra un ajuste o una baja por daño. Solo roles privilegiados; el motivo es obligatorio.
func (uc *WorkflowUseCase) Adjust(ctx context.Context, actor entity.Actor, in AdjustInput) (*entity.StockMovement, error) {
	if in.Kind != entity.MovementAdjust && in.Kind != entity.MovementDamage {
		return nil, domain.NewValidationError("kind", "solo ADJUST o DAMAGE")
	}
	if err := Authorize(uc.access, actor, domaininv.OperationForKind(in.Kind)); err != nil {
		return nil, err
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	var created *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error {
		item, err := EnsureItem(ctx, itemRepo, actor.TenantID, in.Item)
		if err != nil {
			return err
		}
		cost := item.Cost
		created, err = uc.writer.RecordInTx(ctx, movRepo, stockRepo, RecordMovementInput{
			TenantID:      actor.TenantID,
			LocationID:    in.LocationID,
			Item:          in.Item,
			Kind:          in.Kind,
			QuantityDelta: in.QuantityDelta,
			UnitCost:      &cost,
			Reference:     entity.DocumentRef{Kind: entity.RefAdjustment, ID: uuid.New().String()},
			ActorID:       actor.ID,
			Reason:        in.Reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created)
	uc.log.Info().
		Str("actor_id", actor.ID).
		Str("kind", string(in.Kind)).
		Str("reason", in.Reason).
		Int64("movement_id", created.ID).
		Msg("stock adjusted")
	return created, nil
}
