package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
)

func validMovement() *entity.StockMovement {
	return &entity.StockMovement{
		TenantID:      "t1",
		LocationID:    "loc-a",
		ActorID:       "u1",
		Item:          entity.SparePart("p1"),
		Kind:          entity.MovementReceive,
		QuantityDelta: 10,
	}
}

func TestValidateMovement_ReglasPorTipo(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	tests := []struct {
		name   string
		mutate func(m *entity.StockMovement)
		field  string
	}{
		{name: "ok", mutate: func(m *entity.StockMovement) {}},
		{name: "sin tenant", mutate: func(m *entity.StockMovement) { m.TenantID = "" }, field: "tenant_id"},
		{name: "sin ubicación", mutate: func(m *entity.StockMovement) { m.LocationID = " " }, field: "location_id"},
		{name: "sin actor", mutate: func(m *entity.StockMovement) { m.ActorID = "" }, field: "actor_id"},
		{name: "tipo desconocido", mutate: func(m *entity.StockMovement) { m.Kind = "LOST" }, field: "movement_kind"},
		{name: "sin ítem", mutate: func(m *entity.StockMovement) { m.Item = entity.ItemRef{} }, field: "item"},
		{name: "delta cero", mutate: func(m *entity.StockMovement) { m.QuantityDelta = 0 }, field: "quantity_delta"},
		{name: "RECEIVE negativo", mutate: func(m *entity.StockMovement) { m.QuantityDelta = -1 }, field: "quantity_delta"},
		{name: "SALE positivo", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementSale
		}, field: "quantity_delta"},
		{name: "ADJUST sin motivo", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementAdjust
			m.QuantityDelta = -2
			m.Reason = "   "
		}, field: "reason"},
		{name: "ADJUST negativo con motivo", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementAdjust
			m.QuantityDelta = -2
			m.Reason = "conteo físico"
		}},
		{name: "DAMAGE sin motivo", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementDamage
			m.QuantityDelta = -1
		}, field: "reason"},
		{name: "INITIAL_BALANCE sin motivo", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementInitialBalance
		}, field: "reason"},
		{name: "traslado sin destino", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementTransferOut
			m.QuantityDelta = -1
		}, field: "target_location_id"},
		{name: "traslado a la misma ubicación", mutate: func(m *entity.StockMovement) {
			m.Kind = entity.MovementTransferIn
			m.TargetLocationID = "loc-a"
		}, field: "target_location_id"},
		{name: "destino en movimiento no traslado", mutate: func(m *entity.StockMovement) {
			m.TargetLocationID = "loc-b"
		}, field: "target_location_id"},
		{name: "costo negativo", mutate: func(m *entity.StockMovement) { m.UnitCost = &neg }, field: "unit_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMovement()
			tt.mutate(m)
			err := inventory.ValidateMovement(m)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRolePolicy_OperacionesPorRol(t *testing.T) {
	policy := inventory.NewRolePolicy()
	cashier := entity.Actor{ID: "u1", TenantID: "t1", Role: entity.RoleCashier}
	manager := entity.Actor{ID: "u2", TenantID: "t1", Role: entity.RoleManager}

	for _, op := range []inventory.Operation{inventory.OpReceive, inventory.OpSale, inventory.OpUseTicket, inventory.OpTransferRequest} {
		assert.NoError(t, policy.Check(cashier, op), op)
	}
	for _, op := range []inventory.Operation{inventory.OpAdjust, inventory.OpDamage, inventory.OpInitialBalance, inventory.OpTransferApprove, inventory.OpTransferShip, inventory.OpTransferReceive} {
		err := policy.Check(cashier, op)
		assert.ErrorIs(t, err, domain.ErrForbidden, op)
		assert.NoError(t, policy.Check(manager, op), op)
	}

	err := policy.Check(entity.Actor{ID: "x", Role: "guest"}, inventory.OpSale)
	var pErr *domain.PermissionError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "guest", pErr.Role)
}

func TestNextTransferStatus_Transiciones(t *testing.T) {
	tr := &entity.TransferRequest{ID: "tr1", Status: entity.TransferPending}

	next, err := inventory.NextTransferStatus(tr, inventory.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, next)

	_, err = inventory.NextTransferStatus(tr, inventory.ActionShip)
	var tErr *domain.TransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "PENDING", tErr.Status)
	assert.ErrorIs(t, err, domain.ErrConflict)

	tr.Status = entity.TransferApproved
	next, err = inventory.NextTransferStatus(tr, inventory.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, next)

	tr.Status = entity.TransferShipped
	_, err = inventory.NextTransferStatus(tr, inventory.ActionCancel)
	assert.ErrorIs(t, err, domain.ErrConflict)

	tr.Status = entity.TransferReceived
	for _, a := range []inventory.TransferAction{inventory.ActionApprove, inventory.ActionReject, inventory.ActionShip, inventory.ActionReceive, inventory.ActionCancel} {
		_, err = inventory.NextTransferStatus(tr, a)
		assert.ErrorIs(t, err, domain.ErrConflict, a)
	}
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// 10 u a 100 + 10 u a 200 = 150
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), got.String())

	// sin stock previo: toma el costo de entrada
	got = inventory.CostCalculator(0, decimal.Zero, 5, decimal.RequireFromString("12.5"))
	assert.True(t, got.Equal(decimal.RequireFromString("12.5")), got.String())

	assert.True(t, inventory.CostCalculator(0, decimal.Zero, 0, decimal.NewFromInt(1)).IsZero())
}
