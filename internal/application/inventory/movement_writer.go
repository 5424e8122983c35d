package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

// RecordMovementInput datos de un movimiento. Tenant, ubicación y actor siempre explícitos.
type RecordMovementInput struct {
	TenantID         string
	LocationID       string
	TargetLocationID string
	Item             entity.ItemRef
	Kind             entity.MovementKind
	QuantityDelta    int
	UnitCost         *decimal.Decimal
	UnitPrice        *decimal.Decimal
	Reference        entity.DocumentRef
	ActorID          string
	Reason           string
	Notes            string
}

// MovementWriter es el único camino que modifica saldos: por cada movimiento bloquea el par
// (ubicación, ítem), calcula el saldo resultante, inserta el registro del kardex y actualiza
// la proyección, todo con los repositorios de la transacción del llamador.
type MovementWriter struct {
	log     *logger.Logger
	metrics Metrics
	now     func() time.Time
}

// NewMovementWriter construye el escritor. metrics puede ser nil.
func NewMovementWriter(log *logger.Logger, metrics Metrics) *MovementWriter {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &MovementWriter{log: log.Component("movement_writer"), metrics: metrics, now: time.Now}
}

// WithClock reemplaza el reloj (pruebas).
func (w *MovementWriter) WithClock(now func() time.Time) *MovementWriter {
	w.now = now
	return w
}

// RecordInTx registra un movimiento dentro de la transacción del llamador.
// Devuelve *domain.ValidationError si el movimiento está mal formado (no se toca el almacenamiento)
// o *domain.InsufficientStockError si el saldo resultante sería negativo.
func (w *MovementWriter) RecordInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	in RecordMovementInput,
) (*entity.StockMovement, error) {
	mov := &entity.StockMovement{
		TenantID:         in.TenantID,
		LocationID:       in.LocationID,
		TargetLocationID: in.TargetLocationID,
		Item:             in.Item,
		Kind:             in.Kind,
		QuantityDelta:    in.QuantityDelta,
		UnitCost:         in.UnitCost,
		UnitPrice:        in.UnitPrice,
		Reference:        in.Reference,
		ActorID:          in.ActorID,
		Reason:           in.Reason,
		Notes:            in.Notes,
	}
	if err := domaininv.ValidateMovement(mov); err != nil {
		w.rejected(mov, err)
		return nil, err
	}

	// Bloquea la fila del par (la crea en 0 si no existe) hasta el fin de la transacción
	stock, err := stockRepo.GetForUpdate(ctx, in.TenantID, in.LocationID, in.Item)
	if err != nil {
		return nil, err
	}

	after := stock.Quantity + in.QuantityDelta
	if after < 0 {
		err := &domain.InsufficientStockError{
			LocationID: in.LocationID,
			Item:       in.Item.String(),
			Before:     stock.Quantity,
			Delta:      in.QuantityDelta,
			After:      after,
		}
		w.rejected(mov, err)
		return nil, err
	}

	now := w.now().UTC()
	mov.BalanceBefore = stock.Quantity
	mov.BalanceAfter = after
	mov.CreatedAt = now
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}

	stock.Quantity = after
	stock.LastMovementID = mov.ID
	stock.UpdatedAt = now
	if err := stockRepo.Update(ctx, stock); err != nil {
		return nil, err
	}
	return mov, nil
}

// Committed registra log y métricas de movimientos ya confirmados.
// Se llama después de que TxRunner.Run devuelve nil.
func (w *MovementWriter) Committed(movements ...*entity.StockMovement) {
	for _, m := range movements {
		w.metrics.MovementRecorded(string(m.Kind), m.QuantityDelta)
		w.log.Info().
			Int64("movement_id", m.ID).
			Str("tenant_id", m.TenantID).
			Str("location_id", m.LocationID).
			Str("item", m.Item.String()).
			Str("kind", string(m.Kind)).
			Int("delta", m.QuantityDelta).
			Int("balance_after", m.BalanceAfter).
			Str("reference", m.Reference.Kind+":"+m.Reference.ID).
			Msg("movement recorded")
	}
}

func (w *MovementWriter) rejected(mov *entity.StockMovement, err error) {
	reason := RejectionReason(err)
	w.metrics.MovementRejected(string(mov.Kind), reason)
	w.log.Debug().
		Err(err).
		Str("tenant_id", mov.TenantID).
		Str("location_id", mov.LocationID).
		Str("item", mov.Item.String()).
		Str("kind", string(mov.Kind)).
		Int("delta", mov.QuantityDelta).
		Str("reason", reason).
		Msg("movement rejected")
}

// RejectionReason clasifica un error para etiquetas de métricas y logs.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
