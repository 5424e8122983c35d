package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// ReceiveLine ítem recibido de un proveedor.
type ReceiveLine struct {
	Item     entity.ItemRef
	Quantity int
	UnitCost decimal.Decimal
}

// ReceiveGoodsInput entrada de mercancía o repuestos contra una factura de compra.
type ReceiveGoodsInput struct {
	LocationID string
	Reference  entity.DocumentRef // Kind por defecto purchase_invoice
	Notes      string
	Lines      []ReceiveLine
}

// ReceiveGoods registra un RECEIVE por línea y recalcula el costo promedio ponderado de cada ítem.
// Todas las líneas se confirman juntas o ninguna.
func (uc *WorkflowUseCase) ReceiveGoods(ctx context.Context, actor entity.Actor, in ReceiveGoodsInput) ([]*entity.StockMovement, error) {
	if err := Authorize(uc.access, actor, domaininv.OpReceive); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "la entrada no tiene líneas")
	}
	refs := make([]entity.ItemRef, len(in.Lines))
	for i, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "la cantidad recibida debe ser positiva")
		}
		if l.UnitCost.IsNegative() {
			return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
		}
		refs[i] = l.Item
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	ref := in.Reference
	if ref.Kind == "" {
		ref.Kind = entity.RefPurchaseInvoice
	}
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	if strings.TrimSpace(ref.Number) == "" {
		return nil, domain.NewValidationError("reference_number", "número de factura de compra requerido")
	}

	var created []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error {
		created = created[:0]
		for _, i := range LockOrder(refs) {
			line := in.Lines[i]
			if _, err := EnsureItem(ctx, itemRepo, actor.TenantID, line.Item); err != nil {
				return err
			}
			cost := line.UnitCost
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, RecordMovementInput{
				TenantID:      actor.TenantID,
				LocationID:    in.LocationID,
				Item:          line.Item,
				Kind:          entity.MovementReceive,
				QuantityDelta: line.Quantity,
				UnitCost:      &cost,
				Reference:     ref,
				ActorID:       actor.ID,
				Notes:         in.Notes,
			})
			if err != nil {
				return err
			}
			if _, err := ApplyWeightedCost(ctx, stockRepo, itemRepo, actor.TenantID, line.Item, line.Quantity, cost); err != nil {
				return err
			}
			created = append(created, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created...)
	return created, nil
}
