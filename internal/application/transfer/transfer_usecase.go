package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

// ItemQty ítem y cantidad solicitados.
type ItemQty struct {
	Item     entity.ItemRef
	Quantity int
}

// CreateInput nueva solicitud de traslado entre dos ubicaciones del mismo tenant.
type CreateInput struct {
	FromLocationID string
	ToLocationID   string
	Notes          string
	Lines          []ItemQty
}

// LineQty cantidad aprobada o recibida para una línea. ShortageReason solo aplica al recibir menos
// de lo enviado.
type LineQty struct {
	LineID         string
	Quantity       int
	ShortageReason string
}

// TransferUseCase máquina de estados PENDING → APPROVED → SHIPPED → RECEIVED (o REJECTED / CANCELLED).
// Ship registra TRANSFER_OUT en origen; Receive registra TRANSFER_IN en destino por lo efectivamente recibido.
type TransferUseCase struct {
	txRunner     TransferTxRunner
	writer       *inventory.MovementWriter
	access       domaininv.AccessChecker
	locationRepo repository.LocationRepository
	transferRepo repository.TransferRepository
	metrics      inventory.Metrics
	log          *logger.Logger
	prefix       string
	now          func() time.Time
}

// NewTransferUseCase construye el caso de uso. prefix es el prefijo de numeración de traslados.
func NewTransferUseCase(
	txRunner TransferTxRunner,
	writer *inventory.MovementWriter,
	access domaininv.AccessChecker,
	locationRepo repository.LocationRepository,
	transferRepo repository.TransferRepository,
	metrics inventory.Metrics,
	log *logger.Logger,
	prefix string,
) *TransferUseCase {
	if metrics == nil {
		metrics = inventory.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if prefix == "" {
		prefix = "TRF"
	}
	return &TransferUseCase{
		txRunner:     txRunner,
		writer:       writer,
		access:       access,
		locationRepo: locationRepo,
		transferRepo: transferRepo,
		metrics:      metrics,
		log:          log.Component("transfer"),
		prefix:       prefix,
		now:          time.Now,
	}
}

// Create registra la solicitud en estado PENDING. No mueve stock.
func (uc *TransferUseCase) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferRequest); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := inventory.EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.FromLocationID); err != nil {
		return nil, err
	}
	if _, err := inventory.EnsureLocation(ctx, uc.locationRepo, actor.TenantID, in.ToLocationID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	id := uuid.New().String()
	t := &entity.TransferRequest{
		ID:             id,
		TenantID:       actor.TenantID,
		Number:         fmt.Sprintf("%s-%d-%s", uc.prefix, now.Unix(), id[:8]),
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Status:         entity.TransferPending,
		Notes:          strings.TrimSpace(in.Notes),
		RequestedBy:    actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, l := range in.Lines {
		t.Lines = append(t.Lines, entity.TransferLine{
			ID:           uuid.New().String(),
			TransferID:   id,
			Item:         l.Item,
			RequestedQty: l.Quantity,
		})
	}

	err := uc.txRunner.RunTransfer(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		itemRepo repository.ItemRepository,
		transferRepo repository.TransferRepository,
	) error {
		for _, l := range t.Lines {
			if _, err := inventory.EnsureItem(ctx, itemRepo, actor.TenantID, l.Item); err != nil {
				return err
			}
		}
		return transferRepo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.transitioned(t, "request", actor)
	return t, nil
}

// Approve aprueba la solicitud. lines permite reducir cantidades (0 excluye la línea);
// las líneas no mencionadas se aprueban por lo solicitado.
func (uc *TransferUseCase) Approve(ctx context.Context, actor entity.Actor, transferID string, lines []LineQty) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferApprove); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, transferID, domaininv.ActionApprove, func(
		t *entity.TransferRequest, _ repository.StockMovementRepository, _ repository.StockRepository, _ repository.ItemRepository,
	) ([]*entity.StockMovement, error) {
		overrides, err := indexLines(t, lines)
		if err != nil {
			return nil, err
		}
		total := 0
		for i := range t.Lines {
			l := &t.Lines[i]
			l.ApprovedQty = l.RequestedQty
			if o, ok := overrides[l.ID]; ok {
				if o.Quantity < 0 || o.Quantity > l.RequestedQty {
					return nil, domain.NewValidationError("quantity",
						fmt.Sprintf("la cantidad aprobada de %s debe estar entre 0 y %d", l.Item, l.RequestedQty))
				}
				l.ApprovedQty = o.Quantity
			}
			total += l.ApprovedQty
		}
		if total == 0 {
			return nil, domain.NewValidationError("lines", "no hay cantidades aprobadas; use rechazar")
		}
		now := uc.now().UTC()
		t.ApprovedBy = actor.ID
		t.ApprovedAt = &now
		return nil, nil
	})
}

// Reject cierra una solicitud pendiente sin mover stock.
func (uc *TransferUseCase) Reject(ctx context.Context, actor entity.Actor, transferID, reason string) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferApprove); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewValidationError("reason", "el motivo del rechazo es obligatorio")
	}
	return uc.transition(ctx, actor, transferID, domaininv.ActionReject, func(
		t *entity.TransferRequest, _ repository.StockMovementRepository, _ repository.StockRepository, _ repository.ItemRepository,
	) ([]*entity.StockMovement, error) {
		t.RejectReason = reason
		t.ClosedBy = actor.ID
		return nil, nil
	})
}

// Cancel cierra una solicitud PENDING o APPROVED. Un rol no privilegiado solo cancela sus propias solicitudes.
func (uc *TransferUseCase) Cancel(ctx context.Context, actor entity.Actor, transferID, reason string) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferCancel); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, transferID, domaininv.ActionCancel, func(
		t *entity.TransferRequest, _ repository.StockMovementRepository, _ repository.StockRepository, _ repository.ItemRepository,
	) ([]*entity.StockMovement, error) {
		if !actor.IsPrivileged() && t.RequestedBy != actor.ID {
			return nil, &domain.PermissionError{ActorID: actor.ID, Role: actor.Role, Operation: string(domaininv.OpTransferCancel)}
		}
		t.RejectReason = strings.TrimSpace(reason)
		t.ClosedBy = actor.ID
		return nil, nil
	})
}

// Ship descuenta del origen lo aprobado (TRANSFER_OUT por línea). Si falta stock en cualquier
// línea la solicitud sigue APPROVED y no se mueve nada.
func (uc *TransferUseCase) Ship(ctx context.Context, actor entity.Actor, transferID string) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferShip); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, transferID, domaininv.ActionShip, func(
		t *entity.TransferRequest, movRepo repository.StockMovementRepository, stockRepo repository.StockRepository, itemRepo repository.ItemRepository,
	) ([]*entity.StockMovement, error) {
		var created []*entity.StockMovement
		for _, i := range lockOrder(t) {
			l := &t.Lines[i]
			if l.ApprovedQty == 0 {
				continue
			}
			item, err := inventory.EnsureItem(ctx, itemRepo, actor.TenantID, l.Item)
			if err != nil {
				return nil, err
			}
			cost := item.Cost
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, inventory.RecordMovementInput{
				TenantID:         actor.TenantID,
				LocationID:       t.FromLocationID,
				TargetLocationID: t.ToLocationID,
				Item:             l.Item,
				Kind:             entity.MovementTransferOut,
				QuantityDelta:    -l.ApprovedQty,
				UnitCost:         &cost,
				Reference:        t.Reference(),
				ActorID:          actor.ID,
			})
			if err != nil {
				return nil, err
			}
			l.ShippedQty = l.ApprovedQty
			created = append(created, mov)
		}
		now := uc.now().UTC()
		t.ShippedBy = actor.ID
		t.ShippedAt = &now
		return created, nil
	})
}

// Receive ingresa en destino lo efectivamente recibido (TRANSFER_IN por línea). Las líneas no
// mencionadas se reciben completas; recibir menos de lo enviado exige ShortageReason, que queda
// en la línea y en las notas del movimiento. La diferencia no vuelve al origen.
func (uc *TransferUseCase) Receive(ctx context.Context, actor entity.Actor, transferID string, lines []LineQty) (*entity.TransferRequest, error) {
	if err := inventory.Authorize(uc.access, actor, domaininv.OpTransferReceive); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, transferID, domaininv.ActionReceive, func(
		t *entity.TransferRequest, movRepo repository.StockMovementRepository, stockRepo repository.StockRepository, itemRepo repository.ItemRepository,
	) ([]*entity.StockMovement, error) {
		confirmed, err := indexLines(t, lines)
		if err != nil {
			return nil, err
		}
		for i := range t.Lines {
			l := &t.Lines[i]
			l.ReceivedQty = l.ShippedQty
			c, ok := confirmed[l.ID]
			if !ok {
				continue
			}
			if c.Quantity < 0 || c.Quantity > l.ShippedQty {
				return nil, domain.NewValidationError("quantity",
					fmt.Sprintf("la cantidad recibida de %s debe estar entre 0 y %d", l.Item, l.ShippedQty))
			}
			l.ReceivedQty = c.Quantity
			if l.ReceivedQty < l.ShippedQty {
				if strings.TrimSpace(c.ShortageReason) == "" {
					return nil, domain.NewValidationError("shortage_reason",
						fmt.Sprintf("faltan %d unidades de %s: indique el motivo", l.ShippedQty-l.ReceivedQty, l.Item))
				}
				l.ShortageReason = strings.TrimSpace(c.ShortageReason)
			}
		}

		var created []*entity.StockMovement
		for _, i := range lockOrder(t) {
			l := &t.Lines[i]
			if l.ReceivedQty == 0 {
				continue
			}
			item, err := inventory.EnsureItem(ctx, itemRepo, actor.TenantID, l.Item)
			if err != nil {
				return nil, err
			}
			cost := item.Cost
			notes := ""
			if l.ShortageReason != "" {
				notes = fmt.Sprintf("faltante %d de %d: %s", l.ShippedQty-l.ReceivedQty, l.ShippedQty, l.ShortageReason)
			}
			mov, err := uc.writer.RecordInTx(ctx, movRepo, stockRepo, inventory.RecordMovementInput{
				TenantID:         actor.TenantID,
				LocationID:       t.ToLocationID,
				TargetLocationID: t.FromLocationID,
				Item:             l.Item,
				Kind:             entity.MovementTransferIn,
				QuantityDelta:    l.ReceivedQty,
				UnitCost:         &cost,
				Reference:        t.Reference(),
				ActorID:          actor.ID,
				Notes:            notes,
			})
			if err != nil {
				return nil, err
			}
			created = append(created, mov)
		}
		now := uc.now().UTC()
		t.ReceivedBy = actor.ID
		t.ReceivedAt = &now
		return created, nil
	})
}

// Get devuelve la solicitud si pertenece al tenant del actor.
func (uc *TransferUseCase) Get(ctx context.Context, actor entity.Actor, transferID string) (*entity.TransferRequest, error) {
	if actor.ID == "" || actor.TenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	t, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.TenantID != actor.TenantID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type applyFunc func(
	t *entity.TransferRequest,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
) ([]*entity.StockMovement, error)

// transition bloquea la solicitud, valida la transición, aplica los cambios y persiste.
func (uc *TransferUseCase) transition(
	ctx context.Context,
	actor entity.Actor,
	transferID string,
	action domaininv.TransferAction,
	apply applyFunc,
) (*entity.TransferRequest, error) {
	var result *entity.TransferRequest
	var created []*entity.StockMovement
	err := uc.txRunner.RunTransfer(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, transferID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
			}
			return err
		}
		if t.TenantID != actor.TenantID {
			return fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
		}
		next, err := domaininv.NextTransferStatus(t, action)
		if err != nil {
			return err
		}
		created, err = apply(t, movRepo, stockRepo, itemRepo)
		if err != nil {
			return err
		}
		t.Status = next
		t.UpdatedAt = uc.now().UTC()
		result = t
		return transferRepo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.writer.Committed(created...)
	uc.transitioned(result, string(action), actor)
	return result, nil
}

func (uc *TransferUseCase) transitioned(t *entity.TransferRequest, action string, actor entity.Actor) {
	uc.metrics.DocumentTransition(entity.RefTransferRequest, action)
	uc.log.Info().
		Str("transfer_id", t.ID).
		Str("number", t.Number).
		Str("status", string(t.Status)).
		Str("action", action).
		Str("actor_id", actor.ID).
		Msg("transfer updated")
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.FromLocationID) == "" || strings.TrimSpace(in.ToLocationID) == "" {
		return domain.NewValidationError("location_id", "origen y destino requeridos")
	}
	if in.FromLocationID == in.ToLocationID {
		return domain.NewValidationError("to_location_id", "origen y destino deben ser distintos")
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", "la solicitud no tiene líneas")
	}
	seen := make(map[entity.ItemRef]bool, len(in.Lines))
	for _, l := range in.Lines {
		if l.Item.IsZero() {
			return domain.NewValidationError("item", "se requiere mercancía o repuesto")
		}
		if l.Quantity <= 0 {
			return domain.NewValidationError("quantity", "la cantidad solicitada debe ser positiva")
		}
		if seen[l.Item] {
			return domain.NewValidationError("item", fmt.Sprintf("%s repetido en la solicitud", l.Item))
		}
		seen[l.Item] = true
	}
	return nil
}

// indexLines indexa cantidades por línea y rechaza líneas que no pertenecen a la solicitud.
func indexLines(t *entity.TransferRequest, lines []LineQty) (map[string]LineQty, error) {
	known := make(map[string]bool, len(t.Lines))
	for _, l := range t.Lines {
		known[l.ID] = true
	}
	out := make(map[string]LineQty, len(lines))
	for _, l := range lines {
		if !known[l.LineID] {
			return nil, domain.NewValidationError("line_id", "la línea "+l.LineID+" no pertenece al traslado")
		}
		if _, dup := out[l.LineID]; dup {
			return nil, domain.NewValidationError("line_id", "línea "+l.LineID+" repetida")
		}
		out[l.LineID] = l
	}
	return out, nil
}

func lockOrder(t *entity.TransferRequest) []int {
	refs := make([]entity.ItemRef, len(t.Lines))
	for i, l := range t.Lines {
		refs[i] = l.Item
	}
	return inventory.LockOrder(refs)
}
