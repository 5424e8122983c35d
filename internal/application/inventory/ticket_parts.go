package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// TicketPartInput repuesto usado (o devuelto) en una orden de servicio.
type TicketPartInput struct {
	LocationID   string
	Part         entity.ItemRef
	TicketID     string
	TicketNumber string
	Quantity     int
	Notes        string
}

func (in TicketPartInput) validate() error {
	if in.Part.Kind() != entity.ItemKindSparePart {
		return domain.NewValidationError("spare_part_id", "solo se usan repuestos en órdenes de servicio")
	}
	if strings.TrimSpace(in.TicketID) == "" {
		return domain.NewValidationError("ticket_id", "requerido")
	}
	if in.Quantity <= 0 {
		return domain.NewValidationError("quantity", "debe ser positiva")
	}
	return nil
}

func (in TicketPartInput) reference() entity.DocumentRef {
	return entity.DocumentRef{Kind: entity.RefServiceTicket, ID: in.TicketID, Number: in.TicketNumber}
}

// UseTicketPart descuenta un repuesto consumido en una reparación (USE_TICKET) al costo vigente.
func (uc *WorkflowUseCase) UseTicketPart(ctx context.Context, actor entity.Actor, in TicketPartInput) (*entity.StockMovement, error) {
	if err := Authorize(uc.access, actor, domaininv.OpUseTicket); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
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
		item, err := EnsureItem(ctx, itemRepo, actor.TenantID, in.Part)
		if err != nil {
			return err
		}
		cost := item.Cost
		created, err = uc.writer.RecordInTx(ctx, movRepo, stockRepo, RecordMovementInput{
			TenantID:      actor.TenantID,
			LocationID:    in.LocationID,
			Item:          in.Part,
			Kind:          entity.MovementUseTicket,
			QuantityDelta: -in.Quantity,
			UnitCost:      &cost,
			Reference:     in.reference(),
			ActorID:       actor.ID,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created)
	return created, nil
}

// ReturnTicketPart devuelve al stock un repuesto que se retiró de la orden (RETURN).
// No se puede devolver más de lo consumido neto por la orden en esa ubicación.
func (uc *WorkflowUseCase) ReturnTicketPart(ctx context.Context, actor entity.Actor, in TicketPartInput) (*entity.StockMovement, error) {
	// misma capacidad que usar el repuesto: el técnico deshace su propio consumo
	if err := Authorize(uc.access, actor, domaininv.OpUseTicket); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
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
		item, err := EnsureItem(ctx, itemRepo, actor.TenantID, in.Part)
		if err != nil {
			return err
		}
		// Bloquear el par antes de leer el historial de la orden serializa devoluciones concurrentes
		if _, err := stockRepo.GetForUpdate(ctx, actor.TenantID, in.LocationID, in.Part); err != nil {
			return err
		}
		history, err := movRepo.ListByReference(ctx, actor.TenantID, entity.RefServiceTicket, in.TicketID)
		if err != nil {
			return err
		}
		consumed := 0
		for _, m := range history {
			if m.LocationID != in.LocationID || m.Item != in.Part {
				continue
			}
			switch m.Kind {
			case entity.MovementUseTicket, entity.MovementReturn:
				consumed -= m.QuantityDelta
			}
		}
		if in.Quantity > consumed {
			return domain.NewValidationError("quantity",
				fmt.Sprintf("la orden %s solo tiene %d unidades consumidas de %s", in.TicketID, consumed, in.Part))
		}
		cost := item.Cost
		created, err = uc.writer.RecordInTx(ctx, movRepo, stockRepo, RecordMovementInput{
			TenantID:      actor.TenantID,
			LocationID:    in.LocationID,
			Item:          in.Part,
			Kind:          entity.MovementReturn,
			QuantityDelta: in.Quantity,
			UnitCost:      &cost,
			Reference:     in.reference(),
			ActorID:       actor.ID,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created)
	return created, nil
}

// InternalUseInput consumo interno del taller (herramientas, demostración, cortesías).
type InternalUseInput struct {
	LocationID string
	Item       entity.ItemRef
	Quantity   int
	Notes      string
}

// UseInternal registra un USE_INTERNAL. La nota de justificación es obligatoria.
func (uc *WorkflowUseCase) UseInternal(ctx context.Context, actor entity.Actor, in InternalUseInput) (*entity.StockMovement, error) {
	if err := Authorize(uc.access, actor, domaininv.OpUseInternal); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	if strings.TrimSpace(in.Notes) == "" {
		return nil, domain.NewValidationError("notes", "indique el destino del consumo interno")
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
			Kind:          entity.MovementUseInternal,
			QuantityDelta: -in.Quantity,
			UnitCost:      &cost,
			Reference:     entity.DocumentRef{Kind: entity.RefInternalUse, ID: uuid.New().String()},
			ActorID:       actor.ID,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created)
	return created, nil
}
