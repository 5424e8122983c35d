package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// StockQueryUseCase lecturas del kardex y de la proyección de saldos. No modifica nada.
type StockQueryUseCase struct {
	movRepo      repository.StockMovementRepository
	stockRepo    repository.StockRepository
	locationRepo repository.LocationRepository
	access       domaininv.AccessChecker
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	locationRepo repository.LocationRepository,
	access domaininv.AccessChecker,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		movRepo:      movRepo,
		stockRepo:    stockRepo,
		locationRepo: locationRepo,
		access:       access,
	}
}

// StockOverview saldo de un ítem en cada ubicación del tenant.
type StockOverview struct {
	Item      entity.ItemRef
	Total     int
	Locations []*entity.Stock
}

// BalanceCheck resultado de comparar la proyección con el último movimiento del par.
type BalanceCheck struct {
	LocationID      string
	Item            entity.ItemRef
	SnapshotBalance int
	LedgerBalance   int
}

// Consistent indica si la proyección coincide con el kardex.
func (c BalanceCheck) Consistent() bool { return c.SnapshotBalance == c.LedgerBalance }

// GetStockCard devuelve el historial del ítem en orden de creación, opcionalmente filtrado
// por ubicación y rango de fechas.
func (uc *StockQueryUseCase) GetStockCard(ctx context.Context, actor entity.Actor, item entity.ItemRef, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if err := uc.authorizeRead(actor); err != nil {
		return nil, err
	}
	if item.IsZero() {
		return nil, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewValidationError("to", "el rango de fechas está invertido")
	}
	if strings.TrimSpace(filter.LocationID) != "" {
		if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, filter.LocationID); err != nil {
			return nil, err
		}
	}
	return uc.movRepo.ListByItem(ctx, actor.TenantID, item, filter)
}

// GetStockOverview devuelve los saldos actuales del ítem por ubicación y el total.
func (uc *StockQueryUseCase) GetStockOverview(ctx context.Context, actor entity.Actor, item entity.ItemRef) (*StockOverview, error) {
	if err := uc.authorizeRead(actor); err != nil {
		return nil, err
	}
	if item.IsZero() {
		return nil, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	stocks, err := uc.stockRepo.ListByItem(ctx, actor.TenantID, item)
	if err != nil {
		return nil, err
	}
	out := &StockOverview{Item: item, Locations: stocks}
	for _, s := range stocks {
		out.Total += s.Quantity
	}
	return out, nil
}

// ValidateBalance compara el saldo de la proyección con el BalanceAfter del último movimiento
// del par. Un par sin movimientos debe tener saldo 0. Solo roles privilegiados.
func (uc *StockQueryUseCase) ValidateBalance(ctx context.Context, actor entity.Actor, locationID string, item entity.ItemRef) (bool, error) {
	check, err := uc.CheckBalance(ctx, actor, locationID, item)
	if err != nil {
		return false, err
	}
	return check.Consistent(), nil
}

// ValidateItemBalance aplica ValidateBalance a todas las ubicaciones donde el ítem tiene saldo.
func (uc *StockQueryUseCase) ValidateItemBalance(ctx context.Context, actor entity.Actor, item entity.ItemRef) (bool, error) {
	if err := Authorize(uc.access, actor, domaininv.OpValidateBalance); err != nil {
		return false, err
	}
	if item.IsZero() {
		return false, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	stocks, err := uc.stockRepo.ListByItem(ctx, actor.TenantID, item)
	if err != nil {
		return false, err
	}
	for _, s := range stocks {
		check, err := uc.compare(ctx, actor.TenantID, s)
		if err != nil {
			return false, err
		}
		if !check.Consistent() {
			return false, nil
		}
	}
	return true, nil
}

// CheckBalance igual que ValidateBalance pero devuelve ambos valores para diagnóstico.
func (uc *StockQueryUseCase) CheckBalance(ctx context.Context, actor entity.Actor, locationID string, item entity.ItemRef) (*BalanceCheck, error) {
	if err := Authorize(uc.access, actor, domaininv.OpValidateBalance); err != nil {
		return nil, err
	}
	if item.IsZero() {
		return nil, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, locationID); err != nil {
		return nil, err
	}
	stock, err := uc.stockRepo.Get(ctx, actor.TenantID, locationID, item)
	if err != nil {
		return nil, err
	}
	return uc.compare(ctx, actor.TenantID, stock)
}

// CheckBalances revisa todos los pares de una ubicación y devuelve solo los inconsistentes.
func (uc *StockQueryUseCase) CheckBalances(ctx context.Context, actor entity.Actor, locationID string) ([]BalanceCheck, error) {
	if err := Authorize(uc.access, actor, domaininv.OpValidateBalance); err != nil {
		return nil, err
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, locationID); err != nil {
		return nil, err
	}
	const pageSize = 200
	var out []BalanceCheck
	for offset := 0; ; offset += pageSize {
		page, err := uc.stockRepo.ListByLocation(ctx, actor.TenantID, locationID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, s := range page {
			check, err := uc.compare(ctx, actor.TenantID, s)
			if err != nil {
				return nil, err
			}
			if !check.Consistent() {
				out = append(out, *check)
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	return out, nil
}

// MovementsByReference lista los movimientos generados por un documento de negocio.
func (uc *StockQueryUseCase) MovementsByReference(ctx context.Context, actor entity.Actor, refKind, refID string) ([]*entity.StockMovement, error) {
	if err := uc.authorizeRead(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(refKind) == "" || strings.TrimSpace(refID) == "" {
		return nil, domain.NewValidationError("reference", "tipo e ID de documento requeridos")
	}
	return uc.movRepo.ListByReference(ctx, actor.TenantID, refKind, refID)
}

// ListLocationStock saldos de una ubicación (paginado).
func (uc *StockQueryUseCase) ListLocationStock(ctx context.Context, actor entity.Actor, locationID string, limit, offset int) ([]*entity.Stock, error) {
	if err := uc.authorizeRead(actor); err != nil {
		return nil, err
	}
	if _, err := EnsureLocation(ctx, uc.locationRepo, actor.TenantID, locationID); err != nil {
		return nil, err
	}
	return uc.stockRepo.ListByLocation(ctx, actor.TenantID, locationID, limit, offset)
}

func (uc *StockQueryUseCase) compare(ctx context.Context, tenantID string, stock *entity.Stock) (*BalanceCheck, error) {
	last, err := uc.movRepo.LastForPair(ctx, tenantID, stock.LocationID, stock.Item)
	if err != nil {
		return nil, err
	}
	check := &BalanceCheck{LocationID: stock.LocationID, Item: stock.Item, SnapshotBalance: stock.Quantity}
	if last != nil {
		check.LedgerBalance = last.BalanceAfter
	}
	return check, nil
}

// authorizeRead las consultas solo exigen un actor identificado; el tenant filtra los datos.
func (uc *StockQueryUseCase) authorizeRead(actor entity.Actor) error {
	if strings.TrimSpace(actor.ID) == "" || strings.TrimSpace(actor.TenantID) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}
