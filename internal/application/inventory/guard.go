package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// Authorize verifica identidad y capacidad del actor una sola vez por operación,
// antes de abrir la transacción.
func Authorize(access domaininv.AccessChecker, actor entity.Actor, op domaininv.Operation) error {
	if strings.TrimSpace(actor.ID) == "" || strings.TrimSpace(actor.TenantID) == "" {
		return fmt.Errorf("%w: actor sin identidad o tenant", domain.ErrUnauthorized)
	}
	return access.Check(actor, op)
}

// EnsureLocation comprueba que la ubicación exista y pertenezca al tenant.
// Una ubicación de otro tenant se reporta como inexistente.
func EnsureLocation(ctx context.Context, repo repository.LocationRepository, tenantID, locationID string) (*entity.Location, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, domain.NewValidationError("location_id", "requerido")
	}
	loc, err := repo.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
		}
		return nil, err
	}
	if loc == nil || loc.TenantID != tenantID {
		return nil, fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	return loc, nil
}

// EnsureItem comprueba que el ítem exista en el catálogo del tenant.
func EnsureItem(ctx context.Context, repo repository.ItemRepository, tenantID string, ref entity.ItemRef) (*entity.Item, error) {
	if ref.IsZero() {
		return nil, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	item, err := repo.GetByRef(ctx, tenantID, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ítem %s: %w", ref, domain.ErrNotFound)
		}
		return nil, err
	}
	if item == nil || item.TenantID != tenantID {
		return nil, fmt.Errorf("ítem %s: %w", ref, domain.ErrNotFound)
	}
	return item, nil
}

// ApplyWeightedCost recalcula el costo promedio del ítem tras una entrada ya registrada en la tx.
// El costo es único por tenant, así que se pondera con el saldo de todas sus ubicaciones.
func ApplyWeightedCost(
	ctx context.Context,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	tenantID string,
	ref entity.ItemRef,
	quantity int,
	unitCost decimal.Decimal,
) (decimal.Decimal, error) {
	item, err := itemRepo.GetByRef(ctx, tenantID, ref)
	if err != nil {
		return decimal.Zero, err
	}
	stocks, err := stockRepo.ListByItem(ctx, tenantID, ref)
	if err != nil {
		return decimal.Zero, err
	}
	onHand := 0
	for _, s := range stocks {
		onHand += s.Quantity
	}
	// saldo del tenant antes de la entrada
	before := onHand - quantity
	if before < 0 {
		before = 0
	}
	cost := domaininv.CostCalculator(before, item.Cost, quantity, unitCost)
	if err := itemRepo.UpdateCost(ctx, ref, cost); err != nil {
		return decimal.Zero, err
	}
	return cost, nil
}
