package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// ImportRow fila de saldo inicial identificada por SKU (código de barras / IMEI).
type ImportRow struct {
	Kind     entity.ItemKind
	SKU      string
	Name     string
	Quantity int
	UnitCost decimal.Decimal
}

// ImportInput lote de saldos iniciales para una ubicación.
type ImportInput struct {
	LocationID string
	BatchID    string // opcional; se genera si viene vacío
	Reason     string
	Rows       []ImportRow
}

// ImportResult resumen del lote confirmado.
type ImportResult struct {
	BatchID      string
	Movements    []*entity.StockMovement
	CreatedItems int
}

// ImportInitialBalance crea los ítems que no existan y registra un INITIAL_BALANCE por fila.
// Un par (ubicación, ítem) solo admite un saldo inicial; el lote completo se confirma o se descarta.
func (uc *WorkflowUseCase) ImportInitialBalance(ctx context.Context, actor entity.Actor, in ImportInput) (*ImportResult, error) {
	if err := Authorize(uc.access, actor, domaininv.OpInitialBalance); err != nil {
		return nil, err
	}
	if err := validateImport(in); err != nil {
		return nil, err
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	batchID := in.BatchID
	if batchID == "" {
		batchID = uuid.New().String()
	}
	ref := entity.DocumentRef{Kind: entity.RefImportBatch, ID: batchID}
	result := &ImportResult{BatchID: batchID}

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error {
		result.Movements = nil
		result.CreatedItems = 0

		// 1. Resolver (o crear) los ítems por SKU
		refs := make([]entity.ItemRef, len(in.Rows))
		for i, row := range in.Rows {
			item, created, err := ResolveItemBySKU(ctx, itemRepo, actor.TenantID, row.Kind, row.SKU, row.Name)
			if err != nil {
				return err
			}
			if created {
				result.CreatedItems++
			}
			refs[i] = item.Ref()
		}

		// 2. Registrar saldos en orden estable de bloqueo
		for _, i := range LockOrder(refs) {
			row := in.Rows[i]
			exists, err := movRepo.ExistsForPair(ctx, actor.TenantID, in.LocationID, refs[i], entity.MovementInitialBalance)
			if err != nil {
				return err
			}
			if exists {
				return domain.NewValidationError("sku",
					fmt.Sprintf("%s ya tiene saldo inicial en la ubicación %s", row.SKU, in.LocationID))
			}
			cost := row.UnitCost
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, RecordMovementInput{
				TenantID:      actor.TenantID,
				LocationID:    in.LocationID,
				Item:          refs[i],
				Kind:          entity.MovementInitialBalance,
				QuantityDelta: row.Quantity,
				UnitCost:      &cost,
				Reference:     ref,
				ActorID:       actor.ID,
				Reason:        in.Reason,
			})
			if err != nil {
				return err
			}
			if _, err := ApplyWeightedCost(ctx, stockRepo, itemRepo, actor.TenantID, refs[i], row.Quantity, cost); err != nil {
				return err
			}
			result.Movements = append(result.Movements, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(result.Movements...)
	uc.log.Info().
		Str("batch_id", batchID).
		Str("location_id", in.LocationID).
		Int("rows", len(result.Movements)).
		Int("created_items", result.CreatedItems).
		Msg("initial balance imported")
	return result, nil
}

func validateImport(in ImportInput) error {
	if strings.TrimSpace(in.Reason) == "" {
		return domain.NewValidationError("reason", "obligatorio para INITIAL_BALANCE")
	}
	if len(in.Rows) == 0 {
		return domain.NewValidationError("rows", "el lote está vacío")
	}
	seen := make(map[string]int, len(in.Rows))
	for i, row := range in.Rows {
		line := i + 1
		if !row.Kind.Valid() {
			return domain.NewValidationError("item_kind", fmt.Sprintf("fila %d: tipo de ítem desconocido %q", line, row.Kind))
		}
		sku := strings.TrimSpace(row.SKU)
		if sku == "" {
			return domain.NewValidationError("sku", fmt.Sprintf("fila %d: SKU requerido", line))
		}
		if row.Quantity <= 0 {
			return domain.NewValidationError("quantity", fmt.Sprintf("fila %d: la cantidad debe ser positiva", line))
		}
		if row.UnitCost.IsNegative() {
			return domain.NewValidationError("unit_cost", fmt.Sprintf("fila %d: costo negativo", line))
		}
		key := string(row.Kind) + ":" + sku
		if prev, dup := seen[key]; dup {
			return domain.NewValidationError("sku", fmt.Sprintf("fila %d: SKU %s repetido (fila %d)", line, sku, prev))
		}
		seen[key] = line
	}
	return nil
}

// ResolveItemBySKU busca el ítem por SKU y lo crea (costo 0) si no existe.
// Lo usan la importación de saldos iniciales y la firma de recompras.
func ResolveItemBySKU(
	ctx context.Context,
	itemRepo repository.ItemRepository,
	tenantID string,
	kind entity.ItemKind,
	sku, name string,
) (*entity.Item, bool, error) {
	sku = strings.TrimSpace(sku)
	item, err := itemRepo.GetBySKU(ctx, tenantID, kind, sku)
	if err == nil && item != nil {
		return item, false, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = sku
	}
	now := time.Now().UTC()
	item = &entity.Item{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Kind:      kind,
		SKU:       sku,
		Name:      name,
		Cost:      decimal.Zero,
		Price:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := itemRepo.Create(ctx, item); err != nil {
		return nil, false, err
	}
	return item, true, nil
}
