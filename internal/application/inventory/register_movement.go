package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// RegisterMovementUseCase expone record_movement como operación independiente:
// permiso según el tipo, una transacción, un movimiento.
type RegisterMovementUseCase struct {
	txRunner     TxRunner
	writer       *MovementWriter
	access       domaininv.AccessChecker
	locationRepo repository.LocationRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	writer *MovementWriter,
	access domaininv.AccessChecker,
	locationRepo repository.LocationRepository,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:     txRunner,
		writer:       writer,
		access:       access,
		locationRepo: locationRepo,
	}
}

// RecordMovement valida permisos y ubicaciones, abre la transacción y delega en el MovementWriter.
// Tenant y actor del movimiento se toman siempre del actor autenticado.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, actor entity.Actor, input RecordMovementInput) (*entity.StockMovement, error) {
	if err := Authorize(uc.access, actor, domaininv.OperationForKind(input.Kind)); err != nil {
		return nil, err
	}
	if input.TenantID != "" && input.TenantID != actor.TenantID {
		return nil, &domain.PermissionError{ActorID: actor.ID, Role: actor.Role, Operation: "tenant " + input.TenantID}
	}
	input.TenantID = actor.TenantID
	input.ActorID = actor.ID

	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, input.LocationID); err != nil {
		return nil, err
	}
	if input.Kind.IsTransfer() && input.TargetLocationID != "" {
		if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, input.TargetLocationID); err != nil {
			return nil, err
		}
	}

	var created *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error {
		if _, err := EnsureItem(ctx, itemRepo, actor.TenantID, input.Item); err != nil {
			return err
		}
		mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, input)
		if err != nil {
			return err
		}
		created = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created)
	return created, nil
}

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement.
func (uc *RegisterMovementUseCase) RecordMovementFromRequest(ctx context.Context, actor entity.Actor, in dto.RecordMovementRequest) (*entity.StockMovement, error) {
	item, err := entity.ParseItemRef(in.MerchandiseID, in.SparePartID)
	if err != nil {
		return nil, err
	}
	kind := entity.MovementKind(strings.ToUpper(strings.TrimSpace(in.Kind)))
	if !kind.Valid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("tipo de movimiento desconocido: %q", in.Kind))
	}
	return uc.RecordMovement(ctx, actor, RecordMovementInput{
		LocationID:       in.LocationID,
		TargetLocationID: in.TargetLocationID,
		Item:             item,
		Kind:             kind,
		QuantityDelta:    in.QuantityDelta,
		UnitCost:         in.UnitCost,
		UnitPrice:        in.UnitPrice,
		Reference: entity.DocumentRef{
			Kind:   in.ReferenceKind,
			ID:     in.ReferenceID,
			Number: in.ReferenceNumber,
		},
		Reason: in.Reason,
		Notes:  in.Notes,
	})
}
