package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición de una ubicación.
// Para cada ítem bajo su punto de reorden indica cuánto hay en otras sucursales,
// de modo que se pueda pedir un traslado antes de comprar.
type ReplenishmentUseCase struct {
	itemRepo     repository.ItemRepository
	stockRepo    repository.StockRepository
	locationRepo repository.LocationRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	itemRepo repository.ItemRepository,
	stockRepo repository.StockRepository,
	locationRepo repository.LocationRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		itemRepo:     itemRepo,
		stockRepo:    stockRepo,
		locationRepo: locationRepo,
	}
}

// GenerateReplenishmentList devuelve los ítems bajo punto de reorden con la cantidad sugerida
// (hasta 1.5 veces el punto de reorden) y un ranking de prioridad.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, actor entity.Actor, locationID string) ([]dto.LowStockDTO, error) {
	if actor.ID == "" || actor.TenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, locationID); err != nil {
		return nil, err
	}

	// 1. Ítems por debajo del punto de reorden
	rows, err := uc.itemRepo.ListBelowReorderPoint(ctx, actor.TenantID, locationID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []dto.LowStockDTO{}, nil
	}

	// 2. Construir sugerencias con stock disponible en otras ubicaciones
	suggestions := make([]dto.LowStockDTO, 0, len(rows))
	for _, row := range rows {
		ideal := (row.ReorderPoint*3 + 1) / 2
		suggested := ideal - row.CurrentStock
		if suggested < 0 {
			suggested = 0
		}

		elsewhere := 0
		stocks, err := uc.stockRepo.ListByItem(ctx, actor.TenantID, row.Item)
		if err != nil {
			return nil, err
		}
		for _, s := range stocks {
			if s.LocationID != locationID {
				elsewhere += s.Quantity
			}
		}

		suggestions = append(suggestions, dto.LowStockDTO{
			ItemKind:           string(row.Item.Kind()),
			ItemID:             row.Item.ID(),
			SKU:                row.SKU,
			Name:               row.Name,
			CurrentStock:       row.CurrentStock,
			ReorderPoint:       row.ReorderPoint,
			SuggestedQty:       suggested,
			UnitCost:           row.UnitCost,
			EstimatedCost:      row.UnitCost.Mul(decimal.NewFromInt(int64(suggested))),
			AvailableElsewhere: elsewhere,
		})
	}

	// 3. Ordenar: primero agotados, luego mayor déficit relativo, luego mayor costo estimado
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if (a.CurrentStock == 0) != (b.CurrentStock == 0) {
			return a.CurrentStock == 0
		}
		// déficit relativo a/b comparado sin división: (rpA-curA)/rpA > (rpB-curB)/rpB
		da := (a.ReorderPoint - a.CurrentStock) * b.ReorderPoint
		db := (b.ReorderPoint - b.CurrentStock) * a.ReorderPoint
		if da != db {
			return da > db
		}
		return a.EstimatedCost.GreaterThan(b.EstimatedCost)
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
