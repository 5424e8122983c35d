package buyback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

// LineInput equipo o parte comprada al cliente. ItemID vacío: se busca o crea por SKU al firmar.
type LineInput struct {
	ItemKind  entity.ItemKind
	ItemID    string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateInput contrato de recompra en borrador.
type CreateInput struct {
	LocationID string
	SellerName string
	SellerDoc  string
	Lines      []LineInput
}

// BuybackUseCase contratos de recompra: el borrador no mueve stock; al firmar cada línea
// ingresa con RECEIVE al precio pagado.
type BuybackUseCase struct {
	txRunner     BuybackTxRunner
	writer       *inventory.MovementWriter
	access       domaininv.AccessChecker
	locationRepo repository.LocationRepository
	buybackRepo  repository.BuybackRepository
	metrics      inventory.Metrics
	log          *logger.Logger
	prefix       string
	now          func() time.Time
}

// NewBuybackUseCase construye el caso de uso.
func NewBuybackUseCase(
	txRunner BuybackTxRunner,
	writer *inventory.MovementWriter,
	access domaininv.AccessChecker,
	locationRepo repository.LocationRepository,
	buybackRepo repository.BuybackRepository,
	metrics inventory.Metrics,
	log *logger.Logger,
	prefix string,
) *BuybackUseCase {
	if metrics == nil {
		metrics = inventory.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if prefix == "" {
		prefix = "BUY"
	}
	return &BuybackUseCase{
		txRunner:     txRunner,
		writer:       writer,
		access:       access,
		locationRepo: locationRepo,
		buybackRepo:  buybackRepo,
		metrics:      metrics,
		log:          log.Component("buyback"),
		prefix:       prefix,
		now:          time.Now,
	}
}

// CreateContract registra el contrato en DRAFT.
func (uc *BuybackUseCase) CreateContract(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.BuybackContract, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpReceive); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := inventory.EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	id := uuid.New().String()
	c := &entity.BuybackContract{
		ID:         id,
		TenantID:   actor.TenantID,
		LocationID: in.LocationID,
		Number:     fmt.Sprintf("%s-%d-%s", uc.prefix, now.Unix(), id[:8]),
		SellerName: strings.TrimSpace(in.SellerName),
		SellerDoc:  strings.TrimSpace(in.SellerDoc),
		Status:     entity.BuybackDraft,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, l := range in.Lines {
		c.Lines = append(c.Lines, entity.BuybackLine{
			ID:         uuid.New().String(),
			ContractID: id,
			ItemKind:   l.ItemKind,
			ItemID:     strings.TrimSpace(l.ItemID),
			SKU:        strings.TrimSpace(l.SKU),
			Name:       strings.TrimSpace(l.Name),
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	if err := uc.buybackRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.metrics.DocumentTransition(entity.RefBuybackContract, "create")
	return c, nil
}

// Sign firma el contrato: resuelve o crea cada ítem, registra un RECEIVE al precio pagado
// y actualiza el costo promedio. Un contrato ya firmado no se vuelve a firmar.
func (uc *BuybackUseCase) Sign(ctx context.Context, actor entity.Actor, contractID string) (*entity.BuybackContract, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpBuybackSign); err != nil {
		return nil, err
	}

	var contract *entity.BuybackContract
	var created []*entity.StockMovement
	err := uc.txRunner.RunBuyback(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		buybackRepo repository.BuybackRepository,
	) error {
		created = created[:0]
		c, err := buybackRepo.GetForUpdate(ctx, contractID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("recompra %s: %w", contractID, domain.ErrNotFound)
			}
			return err
		}
		if c.TenantID != actor.TenantID {
			return fmt.Errorf("recompra %s: %w", contractID, domain.ErrNotFound)
		}
		if c.Status != entity.BuybackDraft {
			return &domain.TransitionError{Document: entity.RefBuybackContract, ID: c.ID, Status: c.Status, Action: "sign"}
		}

		// 1) Resolver ítems
		refs := make([]entity.ItemRef, len(c.Lines))
		for i := range c.Lines {
			l := &c.Lines[i]
			item, err := uc.resolveItem(ctx, itemRepo, actor.TenantID, l)
			if err != nil {
				return err
			}
			l.ItemID = item.ID
			refs[i] = item.Ref()
		}

		// 2) Entradas en orden de bloqueo estable
		for _, i := range inventory.LockOrder(refs) {
			l := c.Lines[i]
			cost := l.UnitPrice
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, inventory.RecordMovementInput{
				TenantID:      actor.TenantID,
				LocationID:    c.LocationID,
				Item:          refs[i],
				Kind:          entity.MovementReceive,
				QuantityDelta: l.Quantity,
				UnitCost:      &cost,
				Reference:     c.Reference(),
				ActorID:       actor.ID,
				Notes:         "recompra a " + c.SellerName,
			})
			if err != nil {
				return err
			}
			if _, err := inventory.ApplyWeightedCost(ctx, stockRepo, itemRepo, actor.TenantID, refs[i], l.Quantity, cost); err != nil {
				return err
			}
			created = append(created, mov)
		}

		now := uc.now().UTC()
		c.Status = entity.BuybackSigned
		c.SignedBy = actor.ID
		c.SignedAt = &now
		c.UpdatedAt = now
		contract = c
		return buybackRepo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	uc.writer.Committed(created...)
	uc.metrics.DocumentTransition(entity.RefBuybackContract, "sign")
	uc.log.Info().
		Str("contract_id", contract.ID).
		Str("number", contract.Number).
		Int("movements", len(created)).
		Msg("buyback signed")
	return contract, nil
}

// Get devuelve el contrato si pertenece al tenant del actor.
func (uc *BuybackUseCase) Get(ctx context.Context, actor entity.Actor, contractID string) (*entity.BuybackContract, error) {
	if actor.ID == "" || actor.TenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	c, err := uc.buybackRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.TenantID != actor.TenantID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *BuybackUseCase) resolveItem(ctx context.Context, itemRepo repository.ItemRepository, tenantID string, l *entity.BuybackLine) (*entity.Item, error) {
	if l.ItemID != "" {
		ref, err := entity.NewItemRef(l.ItemKind, l.ItemID)
		if err != nil {
			return nil, err
		}
		return inventory.EnsureItem(ctx, itemRepo, tenantID, ref)
	}
	item, _, err := inventory.ResolveItemBySKU(ctx, itemRepo, tenantID, l.ItemKind, l.SKU, l.Name)
	return item, err
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.SellerName) == "" {
		return domain.NewValidationError("seller_name", "requerido")
	}
	if strings.TrimSpace(in.SellerDoc) == "" {
		return domain.NewValidationError("seller_doc", "documento del vendedor requerido")
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", "el contrato no tiene líneas")
	}
	for i, l := range in.Lines {
		n := i + 1
		if !l.ItemKind.Valid() {
			return domain.NewValidationError("item_kind", fmt.Sprintf("línea %d: tipo de ítem desconocido", n))
		}
		if strings.TrimSpace(l.ItemID) == "" && strings.TrimSpace(l.SKU) == "" {
			return domain.NewValidationError("sku", fmt.Sprintf("línea %d: indique el ítem o su SKU/IMEI", n))
		}
		if l.Quantity <= 0 {
			return domain.NewValidationError("quantity", fmt.Sprintf("línea %d: la cantidad debe ser positiva", n))
		}
		if l.UnitPrice.IsNegative() {
			return domain.NewValidationError("unit_price", fmt.Sprintf("línea %d: precio negativo", n))
		}
	}
	return nil
}
