package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// Escenarios 1 a 3: entrada sobre un par sin historial, venta y venta que dejaría saldo negativo.
func TestRecordMovement_EntradaVentaYRechazo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mov := f.receive(t, "loc-a", screen, 10)
	assert.Equal(t, 0, mov.BalanceBefore)
	assert.Equal(t, 10, mov.BalanceAfter)
	assert.Equal(t, 10, f.balance(t, "loc-a", screen))
	assert.Equal(t, "t1", mov.TenantID)
	assert.Equal(t, cashier.ID, mov.ActorID)

	sale := f.record(t, cashier, inventory.RecordMovementInput{
		LocationID:    "loc-a",
		Item:          screen,
		Kind:          entity.MovementSale,
		QuantityDelta: -3,
	})
	assert.Equal(t, 10, sale.BalanceBefore)
	assert.Equal(t, 7, sale.BalanceAfter)
	assert.Equal(t, 7, f.balance(t, "loc-a", screen))

	_, err := f.register.RecordMovement(ctx, cashier, inventory.RecordMovementInput{
		LocationID:    "loc-a",
		Item:          screen,
		Kind:          entity.MovementSale,
		QuantityDelta: -10,
	})
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "se esperaba InsufficientStockError, llegó %v", err)
	assert.Equal(t, 7, stockErr.Before)
	assert.Equal(t, -10, stockErr.Delta)
	assert.Equal(t, -3, stockErr.After)

	assert.Equal(t, 7, f.balance(t, "loc-a", screen))
	assert.Len(t, f.store.Ledger(), 2)
	assert.Equal(t, 1, f.metrics.rejected["SALE/insufficient_stock"])
	assert.Equal(t, 1, f.metrics.recorded["SALE"])
}

// Escenario 4: ADJUST sin motivo.
func TestRecordMovement_AjusteSinMotivo(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "loc-a", screen, 5)

	_, err := f.register.RecordMovement(context.Background(), manager, inventory.RecordMovementInput{
		LocationID:    "loc-a",
		Item:          screen,
		Kind:          entity.MovementAdjust,
		QuantityDelta: -2,
	})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "reason", vErr.Field)
	assert.Equal(t, 5, f.balance(t, "loc-a", screen))
	assert.Len(t, f.store.Ledger(), 1)
}

// Escenario 5: mercancía y repuesto a la vez.
func TestRecordMovementFromRequest_AmbosItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.register.RecordMovementFromRequest(context.Background(), cashier, dto.RecordMovementRequest{
		ItemRefRequest: dto.ItemRefRequest{MerchandiseID: phone.ID(), SparePartID: screen.ID()},
		LocationID:     "loc-a",
		Kind:           "RECEIVE",
		QuantityDelta:  5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.store.Ledger())
	assert.Equal(t, 0, f.balance(t, "loc-a", screen))
}

func TestRecordMovementFromRequest_ResuelveItem(t *testing.T) {
	f := newFixture(t)

	mov, err := f.register.RecordMovementFromRequest(context.Background(), cashier, dto.RecordMovementRequest{
		ItemRefRequest:  dto.ItemRefRequest{MerchandiseID: phone.ID()},
		LocationID:      "loc-a",
		Kind:            "receive",
		QuantityDelta:   2,
		ReferenceKind:   entity.RefPurchaseInvoice,
		ReferenceID:     "inv-1",
		ReferenceNumber: "FC-100",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementReceive, mov.Kind)
	assert.Equal(t, phone, mov.Item)
	assert.Equal(t, "FC-100", mov.Reference.Number)

	_, err = f.register.RecordMovementFromRequest(context.Background(), cashier, dto.RecordMovementRequest{
		ItemRefRequest: dto.ItemRefRequest{MerchandiseID: phone.ID()},
		LocationID:     "loc-a",
		Kind:           "LOST",
		QuantityDelta:  -1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_Rechazos(t *testing.T) {
	tests := []struct {
		name   string
		actor  entity.Actor
		input  inventory.RecordMovementInput
		target error
	}{
		{
			name:   "cajero no puede ajustar",
			actor:  cashier,
			input:  inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementAdjust, QuantityDelta: 1, Reason: "conteo"},
			target: domain.ErrForbidden,
		},
		{
			name:   "técnico no puede registrar saldo inicial",
			actor:  technician,
			input:  inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementInitialBalance, QuantityDelta: 1, Reason: "carga"},
			target: domain.ErrForbidden,
		},
		{
			name:   "actor sin identidad",
			actor:  entity.Actor{Role: entity.RoleAdmin},
			input:  inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementReceive, QuantityDelta: 1},
			target: domain.ErrUnauthorized,
		},
		{
			name:   "tenant distinto al del actor",
			actor:  cashier,
			input:  inventory.RecordMovementInput{TenantID: "t2", LocationID: "loc-a", Item: screen, Kind: entity.MovementReceive, QuantityDelta: 1},
			target: domain.ErrForbidden,
		},
		{
			name:   "ubicación de otro tenant",
			actor:  cashier,
			input:  inventory.RecordMovementInput{LocationID: "loc-x", Item: screen, Kind: entity.MovementReceive, QuantityDelta: 1},
			target: domain.ErrNotFound,
		},
		{
			name:   "ítem de otro tenant",
			actor:  cashier,
			input:  inventory.RecordMovementInput{LocationID: "loc-a", Item: entity.SparePart("p-foreign"), Kind: entity.MovementReceive, QuantityDelta: 1},
			target: domain.ErrNotFound,
		},
		{
			name:   "delta cero",
			actor:  cashier,
			input:  inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementReceive},
			target: domain.ErrInvalidInput,
		},
		{
			name:   "traslado hacia la misma ubicación",
			actor:  manager,
			input:  inventory.RecordMovementInput{LocationID: "loc-a", TargetLocationID: "loc-a", Item: screen, Kind: entity.MovementTransferIn, QuantityDelta: 1},
			target: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.register.RecordMovement(context.Background(), tt.actor, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, f.store.Ledger(), "un rechazo no deja movimientos")
		})
	}
}

func TestRecordMovement_ContinuidadDeSaldos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, "loc-a", screen, 8)
	f.record(t, cashier, inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementSale, QuantityDelta: -2})
	f.record(t, manager, inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementAdjust, QuantityDelta: 3, Reason: "conteo físico"})
	f.record(t, manager, inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementDamage, QuantityDelta: -1, Reason: "pantalla rota"})
	f.receive(t, "loc-b", screen, 4)
	f.record(t, technician, inventory.RecordMovementInput{LocationID: "loc-a", Item: screen, Kind: entity.MovementUseTicket, QuantityDelta: -5})

	card, err := f.query.GetStockCard(ctx, cashier, screen, repository.MovementFilter{LocationID: "loc-a"})
	require.NoError(t, err)
	require.Len(t, card, 5)

	prev := 0
	for i, m := range card {
		assert.Equal(t, prev, m.BalanceBefore, "movimiento %d", i)
		assert.Equal(t, m.BalanceBefore+m.QuantityDelta, m.BalanceAfter)
		assert.GreaterOrEqual(t, m.BalanceAfter, 0)
		if i > 0 {
			assert.Greater(t, m.ID, card[i-1].ID)
		}
		prev = m.BalanceAfter
	}
	assert.Equal(t, prev, f.balance(t, "loc-a", screen))
	assert.Equal(t, 3, prev)

	ok, err := f.query.ValidateItemBalance(ctx, manager, screen)
	require.NoError(t, err)
	assert.True(t, ok)
}

// Dos cajeros venden la última unidad al mismo tiempo: exactamente uno lo logra.
func TestRecordMovement_UltimaUnidadConcurrente(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "loc-a", phone, 1)

	const sellers = 8
	var wg sync.WaitGroup
	errs := make(chan error, sellers)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.register.RecordMovement(context.Background(), cashier, inventory.RecordMovementInput{
				LocationID:    "loc-a",
				Item:          phone,
				Kind:          entity.MovementSale,
				QuantityDelta: -1,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, insufficient := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, sellers-1, insufficient)
	assert.Equal(t, 0, f.balance(t, "loc-a", phone))
	assert.Len(t, f.store.Ledger(), 2)
}

func TestRecordMovement_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.register.RecordMovement(ctx, cashier, inventory.RecordMovementInput{
		LocationID:    "loc-a",
		Item:          screen,
		Kind:          entity.MovementReceive,
		QuantityDelta: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.Ledger())
}

func TestRejectionReason_ClasificaErrores(t *testing.T) {
	assert.Equal(t, "validation", inventory.RejectionReason(domain.NewValidationError("x", "y")))
	assert.Equal(t, "insufficient_stock", inventory.RejectionReason(&domain.InsufficientStockError{}))
	assert.Equal(t, "forbidden", inventory.RejectionReason(&domain.PermissionError{}))
	assert.Equal(t, "conflict", inventory.RejectionReason(&domain.TransitionError{}))
	assert.Equal(t, "not_found", inventory.RejectionReason(domain.ErrNotFound))
	assert.Equal(t, "internal", inventory.RejectionReason(errors.New("boom")))
}
