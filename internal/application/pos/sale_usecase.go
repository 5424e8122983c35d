package pos

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

// SaleLine línea de venta. Item vacío solo para servicios.
type SaleLine struct {
	Kind        string // product, part, service
	Item        entity.ItemRef
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal // cero = precio de catálogo
}

// SaleInput venta de mostrador en una ubicación.
type SaleInput struct {
	LocationID   string
	CustomerName string
	Lines        []SaleLine
}

// RefundLine cantidad a devolver de una línea del recibo.
type RefundLine struct {
	LineID   string
	Quantity int
}

// SaleUseCase ventas POS: crea el recibo y descuenta el inventario en una sola transacción;
// anula o reembolsa devolviendo el stock con movimientos RETURN que referencian el recibo.
type SaleUseCase struct {
	txRunner     SaleTxRunner
	writer       *inventory.MovementWriter
	access       domaininv.AccessChecker
	locationRepo repository.LocationRepository
	receiptRepo  repository.ReceiptRepository
	metrics      inventory.Metrics
	log          *logger.Logger
	prefix       string
	now          func() time.Time
}

// NewSaleUseCase construye el caso de uso. prefix es el prefijo de numeración de recibos.
func NewSaleUseCase(
	txRunner SaleTxRunner,
	writer *inventory.MovementWriter,
	access domaininv.AccessChecker,
	locationRepo repository.LocationRepository,
	receiptRepo repository.ReceiptRepository,
	metrics inventory.Metrics,
	log *logger.Logger,
	prefix string,
) *SaleUseCase {
	if metrics == nil {
		metrics = inventory.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if prefix == "" {
		prefix = "POS"
	}
	return &SaleUseCase{
		txRunner:     txRunner,
		writer:       writer,
		access:       access,
		locationRepo: locationRepo,
		receiptRepo:  receiptRepo,
		metrics:      metrics,
		log:          log.Component("pos"),
		prefix:       prefix,
		now:          time.Now,
	}
}

// CreateSale emite el recibo y registra un SALE por cada línea de producto o repuesto.
// Si cualquier línea no tiene stock suficiente, no se emite el recibo ni se mueve nada.
func (uc *SaleUseCase) CreateSale(ctx context.Context, actor entity.Actor, in SaleInput) (*entity.Receipt, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpSale); err != nil {
		return nil, err
	}
	if err := validateSale(in); err != nil {
		return nil, err
	}
	if _, err := inventory.EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	receiptID := uuid.New().String()
	receipt := &entity.Receipt{
		ID:           receiptID,
		TenantID:     actor.TenantID,
		LocationID:   in.LocationID,
		Number:       fmt.Sprintf("%s-%d-%s", uc.prefix, now.Unix(), receiptID[:8]),
		CustomerName: strings.TrimSpace(in.CustomerName),
		Status:       entity.ReceiptIssued,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var created []*entity.StockMovement
	err := uc.txRunner.RunSale(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		receiptRepo repository.ReceiptRepository,
	) error {
		created = created[:0]
		lines := make([]entity.ReceiptLine, len(in.Lines))
		refs := make([]entity.ItemRef, len(in.Lines))
		for i, l := range in.Lines {
			lines[i] = entity.ReceiptLine{
				ID:          uuid.New().String(),
				ReceiptID:   receiptID,
				LineNo:      i + 1,
				Kind:        l.Kind,
				Item:        l.Item,
				Description: strings.TrimSpace(l.Description),
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			}
			refs[i] = l.Item
		}

		// 1) Salidas de inventario en orden de bloqueo estable; un error revierte todo
		for _, i := range inventory.LockOrder(refs) {
			line := &lines[i]
			if !line.IsStocked() {
				continue
			}
			item, err := inventory.EnsureItem(ctx, itemRepo, actor.TenantID, line.Item)
			if err != nil {
				return err
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = item.Price
			}
			if line.Description == "" {
				line.Description = item.Name
			}
			line.UnitCost = item.Cost
			cost, price := item.Cost, line.UnitPrice
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, inventory.RecordMovementInput{
				TenantID:      actor.TenantID,
				LocationID:    in.LocationID,
				Item:          line.Item,
				Kind:          entity.MovementSale,
				QuantityDelta: -line.Quantity,
				UnitCost:      &cost,
				UnitPrice:     &price,
				Reference:     receipt.Reference(),
				ActorID:       actor.ID,
			})
			if err != nil {
				return err
			}
			created = append(created, mov)
		}

		// 2) Totales y cabecera
		total := decimal.Zero
		for i := range lines {
			lines[i].Subtotal = lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
			total = total.Add(lines[i].Subtotal)
		}
		receipt.Lines = lines
		receipt.NetTotal = total
		return receiptRepo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	uc.writer.Committed(created...)
	uc.metrics.DocumentTransition(entity.RefPOSReceipt, "issue")
	uc.log.Info().
		Str("receipt_id", receipt.ID).
		Str("number", receipt.Number).
		Str("location_id", receipt.LocationID).
		Str("total", receipt.NetTotal.String()).
		Int("movements", len(created)).
		Msg("sale completed")
	return receipt, nil
}

// VoidReceipt anula un recibo emitido: devuelve al stock todas las unidades con RETURN.
func (uc *SaleUseCase) VoidReceipt(ctx context.Context, actor entity.Actor, receiptID, reason string) (*entity.Receipt, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpReceiptVoid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewValidationError("reason", "el motivo de anulación es obligatorio")
	}

	var receipt *entity.Receipt
	var created []*entity.StockMovement
	err := uc.txRunner.RunSale(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ItemRepository,
		receiptRepo repository.ReceiptRepository,
	) error {
		created = created[:0]
		rc, err := lockReceipt(ctx, receiptRepo, actor.TenantID, receiptID)
		if err != nil {
			return err
		}
		if rc.Status != entity.ReceiptIssued {
			return transitionError(rc, "void")
		}
		qty := make(map[string]int, len(rc.Lines))
		for _, l := range rc.Lines {
			qty[l.ID] = l.Remaining()
		}
		created, err = uc.returnLines(ctx, movRepo, stockRepo, actor, rc, qty, reason)
		if err != nil {
			return err
		}
		rc.Status = entity.ReceiptVoided
		rc.VoidReason = reason
		rc.UpdatedAt = uc.now().UTC()
		receipt = rc
		return receiptRepo.Update(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	uc.writer.Committed(created...)
	uc.metrics.DocumentTransition(entity.RefPOSReceipt, "void")
	uc.log.Info().Str("receipt_id", receipt.ID).Str("actor_id", actor.ID).Str("reason", reason).Msg("receipt voided")
	return receipt, nil
}

// RefundLines reembolsa cantidades parciales. Nunca se devuelve más de lo vendido por línea.
func (uc *SaleUseCase) RefundLines(ctx context.Context, actor entity.Actor, receiptID, reason string, lines []RefundLine) (*entity.Receipt, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpReceiptVoid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewValidationError("reason", "el motivo del reembolso es obligatorio")
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", "indique las líneas a reembolsar")
	}
	requested := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "la cantidad a reembolsar debe ser positiva")
		}
		requested[l.LineID] += l.Quantity
	}

	var receipt *entity.Receipt
	var created []*entity.StockMovement
	err := uc.txRunner.RunSale(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ItemRepository,
		receiptRepo repository.ReceiptRepository,
	) error {
		created = created[:0]
		rc, err := lockReceipt(ctx, receiptRepo, actor.TenantID, receiptID)
		if err != nil {
			return err
		}
		if rc.Status != entity.ReceiptIssued && rc.Status != entity.ReceiptPartiallyRefunded {
			return transitionError(rc, "refund")
		}
		for lineID, q := range requested {
			line := findLine(rc, lineID)
			if line == nil {
				return domain.NewValidationError("line_id", "la línea "+lineID+" no pertenece al recibo")
			}
			if q > line.Remaining() {
				return domain.NewValidationError("quantity",
					fmt.Sprintf("línea %d: se pidió reembolsar %d y quedan %d", line.LineNo, q, line.Remaining()))
			}
		}
		created, err = uc.returnLines(ctx, movRepo, stockRepo, actor, rc, requested, reason)
		if err != nil {
			return err
		}
		rc.Status = entity.ReceiptRefunded
		for _, l := range rc.Lines {
			if l.Remaining() > 0 {
				rc.Status = entity.ReceiptPartiallyRefunded
				break
			}
		}
		rc.UpdatedAt = uc.now().UTC()
		receipt = rc
		return receiptRepo.Update(ctx, rc)
	})
	if err != nil {
		return nil, err
	}

	uc.writer.Committed(created...)
	uc.metrics.DocumentTransition(entity.RefPOSReceipt, "refund")
	uc.log.Info().
		Str("receipt_id", receipt.ID).
		Str("status", string(receipt.Status)).
		Int("movements", len(created)).
		Msg("receipt refunded")
	return receipt, nil
}

// GetReceipt devuelve un recibo del tenant del actor.
func (uc *SaleUseCase) GetReceipt(ctx context.Context, actor entity.Actor, receiptID string) (*entity.Receipt, error) {
	if actor.ID == "" || actor.TenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	rc, err := uc.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if rc.TenantID != actor.TenantID {
		return nil, domain.ErrNotFound
	}
	return rc, nil
}

// returnLines registra un RETURN por cada línea con inventario y cantidad a devolver,
// y acumula RefundedQty en todas las líneas afectadas (también servicios).
func (uc *SaleUseCase) returnLines(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	actor entity.Actor,
	rc *entity.Receipt,
	qty map[string]int,
	reason string,
) ([]*entity.StockMovement, error) {
	refs := make([]entity.ItemRef, len(rc.Lines))
	for i, l := range rc.Lines {
		refs[i] = l.Item
	}
	var created []*entity.StockMovement
	for _, i := range inventory.LockOrder(refs) {
		line := &rc.Lines[i]
		q := qty[line.ID]
		if q <= 0 {
			continue
		}
		if line.IsStocked() {
			cost, price := line.UnitCost, line.UnitPrice
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, inventory.RecordMovementInput{
				TenantID:      actor.TenantID,
				LocationID:    rc.LocationID,
				Item:          line.Item,
				Kind:          entity.MovementReturn,
				QuantityDelta: q,
				UnitCost:      &cost,
				UnitPrice:     &price,
				Reference:     rc.Reference(),
				ActorID:       actor.ID,
				Reason:        reason,
			})
			if err != nil {
				return nil, err
			}
			created = append(created, mov)
		}
		line.RefundedQty += q
	}
	return created, nil
}

func lockReceipt(ctx context.Context, repo repository.ReceiptRepository, tenantID, id string) (*entity.Receipt, error) {
	rc, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("recibo %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if rc.TenantID != tenantID {
		return nil, fmt.Errorf("recibo %s: %w", id, domain.ErrNotFound)
	}
	return rc, nil
}

func findLine(rc *entity.Receipt, lineID string) *entity.ReceiptLine {
	for i := range rc.Lines {
		if rc.Lines[i].ID == lineID {
			return &rc.Lines[i]
		}
	}
	return nil
}

func transitionError(rc *entity.Receipt, action string) error {
	return &domain.TransitionError{
		Document: entity.RefPOSReceipt,
		ID:       rc.ID,
		Status:   string(rc.Status),
		Action:   action,
	}
}

func validateSale(in SaleInput) error {
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", "la venta no tiene líneas")
	}
	for i, l := range in.Lines {
		n := i + 1
		if l.Quantity <= 0 {
			return domain.NewValidationError("quantity", fmt.Sprintf("línea %d: la cantidad debe ser positiva", n))
		}
		if l.UnitPrice.IsNegative() {
			return domain.NewValidationError("unit_price", fmt.Sprintf("línea %d: precio negativo", n))
		}
		switch l.Kind {
		case entity.LineProduct:
			if l.Item.Kind() != entity.ItemKindMerchandise {
				return domain.NewValidationError("item", fmt.Sprintf("línea %d: un producto debe referenciar mercancía", n))
			}
		case entity.LinePart:
			if l.Item.Kind() != entity.ItemKindSparePart {
				return domain.NewValidationError("item", fmt.Sprintf("línea %d: un repuesto debe referenciar un repuesto", n))
			}
		case entity.LineService:
			if !l.Item.IsZero() {
				return domain.NewValidationError("item", fmt.Sprintf("línea %d: un servicio no referencia inventario", n))
			}
			if strings.TrimSpace(l.Description) == "" {
				return domain.NewValidationError("description", fmt.Sprintf("línea %d: descripción del servicio requerida", n))
			}
		default:
			return domain.NewValidationError("kind", fmt.Sprintf("línea %d: tipo de línea desconocido %q", n, l.Kind))
		}
	}
	return nil
}
