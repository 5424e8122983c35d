package pos_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/application/pos"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
)

var (
	manager = entity.Actor{ID: "u-manager", TenantID: "t1", Role: entity.RoleManager}
	cashier = entity.Actor{ID: "u-cashier", TenantID: "t1", Role: entity.RoleCashier}

	screen = entity.SparePart("p-screen")
	phone  = entity.Merchandise("m-phone")
	case1  = entity.Merchandise("m-case")
)

func setup(t *testing.T) (*memory.Store, *pos.SaleUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.AddLocation(entity.Location{ID: "loc-a", TenantID: "t1", Name: "Centro"})
	store.AddLocation(entity.Location{ID: "loc-x", TenantID: "t2", Name: "Otra"})
	store.AddItem(entity.Item{ID: screen.ID(), TenantID: "t1", Kind: entity.ItemKindSparePart, SKU: "SCR-1", Name: "Pantalla",
		Cost: decimal.NewFromInt(100), Price: decimal.NewFromInt(250)})
	store.AddItem(entity.Item{ID: phone.ID(), TenantID: "t1", Kind: entity.ItemKindMerchandise, SKU: "IMEI-1", Name: "Teléfono",
		Cost: decimal.NewFromInt(500), Price: decimal.NewFromInt(800)})
	store.AddItem(entity.Item{ID: case1.ID(), TenantID: "t1", Kind: entity.ItemKindMerchandise, SKU: "CASE-1", Name: "Funda",
		Cost: decimal.NewFromInt(5), Price: decimal.NewFromInt(20)})

	writer := inventory.NewMovementWriter(nil, nil)
	access := domaininv.NewRolePolicy()
	register := inventory.NewRegisterMovementUseCase(store, writer, access, store.Locations())
	for _, seed := range []struct {
		item entity.ItemRef
		qty  int
	}{{screen, 3}, {phone, 1}, {case1, 10}} {
		_, err := register.RecordMovement(context.Background(), manager, inventory.RecordMovementInput{
			LocationID: "loc-a", Item: seed.item, Kind: entity.MovementReceive, QuantityDelta: seed.qty,
		})
		require.NoError(t, err)
	}

	uc := pos.NewSaleUseCase(store, writer, access, store.Locations(), store.Receipts(), nil, nil, "POS")
	return store, uc
}

func balance(t *testing.T, store *memory.Store, item entity.ItemRef) int {
	t.Helper()
	s, err := store.Stock().Get(context.Background(), "t1", "loc-a", item)
	require.NoError(t, err)
	return s.Quantity
}

func saleInput() pos.SaleInput {
	return pos.SaleInput{
		LocationID:   "loc-a",
		CustomerName: "Ana",
		Lines: []pos.SaleLine{
			{Kind: entity.LineProduct, Item: phone, Quantity: 1, UnitPrice: decimal.NewFromInt(750)},
			{Kind: entity.LinePart, Item: screen, Quantity: 2},
			{Kind: entity.LineService, Description: "Cambio de pantalla", Quantity: 1, UnitPrice: decimal.NewFromInt(60)},
		},
	}
}

func TestCreateSale_VentaConLineasMixtas(t *testing.T) {
	store, uc := setup(t)
	before := len(store.Ledger())

	rc, err := uc.CreateSale(context.Background(), cashier, saleInput())
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptIssued, rc.Status)
	assert.True(t, strings.HasPrefix(rc.Number, "POS-"), rc.Number)
	require.Len(t, rc.Lines, 3)

	// precio cero toma el precio de catálogo; el costo queda como snapshot
	assert.True(t, decimal.NewFromInt(250).Equal(rc.Lines[1].UnitPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(rc.Lines[1].UnitCost))
	assert.Equal(t, "Pantalla", rc.Lines[1].Description)
	// 750 + 2*250 + 60
	assert.True(t, decimal.NewFromInt(1310).Equal(rc.NetTotal), rc.NetTotal.String())

	assert.Equal(t, 0, balance(t, store, phone))
	assert.Equal(t, 1, balance(t, store, screen))

	// el servicio no genera movimiento
	movs := store.Ledger()[before:]
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementSale, m.Kind)
		assert.Equal(t, entity.RefPOSReceipt, m.Reference.Kind)
		assert.Equal(t, rc.ID, m.Reference.ID)
		assert.Equal(t, rc.Number, m.Reference.Number)
		require.NotNil(t, m.UnitPrice)
		require.NotNil(t, m.UnitCost)
	}

	got, err := uc.GetReceipt(context.Background(), cashier, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, rc.Number, got.Number)

	_, err = uc.GetReceipt(context.Background(), entity.Actor{ID: "u", TenantID: "t2", Role: entity.RoleAdmin}, rc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Una línea sin stock revierte el recibo completo.
func TestCreateSale_StockInsuficienteRevierte(t *testing.T) {
	store, uc := setup(t)
	before := len(store.Ledger())

	in := saleInput()
	in.Lines = append(in.Lines, pos.SaleLine{Kind: entity.LineProduct, Item: case1, Quantity: 1})
	in.Lines[1].Quantity = 4 // solo hay 3 pantallas

	_, err := uc.CreateSale(context.Background(), cashier, in)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "llegó %v", err)
	assert.Equal(t, 3, stockErr.Before)

	assert.Len(t, store.Ledger(), before)
	assert.Equal(t, 1, balance(t, store, phone))
	assert.Equal(t, 3, balance(t, store, screen))
	assert.Equal(t, 10, balance(t, store, case1))
}

func TestCreateSale_Validacion(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		lines []pos.SaleLine
	}{
		{name: "sin líneas"},
		{name: "producto con repuesto", lines: []pos.SaleLine{{Kind: entity.LineProduct, Item: screen, Quantity: 1}}},
		{name: "repuesto con mercancía", lines: []pos.SaleLine{{Kind: entity.LinePart, Item: phone, Quantity: 1}}},
		{name: "servicio con ítem", lines: []pos.SaleLine{{Kind: entity.LineService, Item: phone, Description: "x", Quantity: 1}}},
		{name: "servicio sin descripción", lines: []pos.SaleLine{{Kind: entity.LineService, Quantity: 1}}},
		{name: "cantidad cero", lines: []pos.SaleLine{{Kind: entity.LineProduct, Item: phone}}},
		{name: "precio negativo", lines: []pos.SaleLine{{Kind: entity.LineProduct, Item: phone, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}},
		{name: "tipo desconocido", lines: []pos.SaleLine{{Kind: "gift", Item: phone, Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateSale(ctx, cashier, pos.SaleInput{LocationID: "loc-a", Lines: tt.lines})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.CreateSale(ctx, cashier, pos.SaleInput{LocationID: "loc-x", Lines: saleInput().Lines})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVoidReceipt_AnulaYDevuelveStock(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()
	rc, err := uc.CreateSale(ctx, cashier, saleInput())
	require.NoError(t, err)

	_, err = uc.VoidReceipt(ctx, cashier, rc.ID, "error de cobro")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.VoidReceipt(ctx, manager, rc.ID, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	voided, err := uc.VoidReceipt(ctx, manager, rc.ID, "error de cobro")
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptVoided, voided.Status)
	assert.Equal(t, "error de cobro", voided.VoidReason)
	for _, l := range voided.Lines {
		assert.Equal(t, 0, l.Remaining())
	}
	assert.Equal(t, 1, balance(t, store, phone))
	assert.Equal(t, 3, balance(t, store, screen))

	returns := 0
	for _, m := range store.Ledger() {
		if m.Kind == entity.MovementReturn {
			returns++
			assert.Equal(t, rc.ID, m.Reference.ID)
			assert.Equal(t, "error de cobro", m.Reason)
		}
	}
	assert.Equal(t, 2, returns)

	_, err = uc.VoidReceipt(ctx, manager, rc.ID, "otra vez")
	var trErr *domain.TransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, string(entity.ReceiptVoided), trErr.Status)

	_, err = uc.VoidReceipt(ctx, manager, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefundLines_ReembolsoParcial(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()
	rc, err := uc.CreateSale(ctx, cashier, saleInput())
	require.NoError(t, err)
	phoneLine, screenLine, serviceLine := rc.Lines[0].ID, rc.Lines[1].ID, rc.Lines[2].ID

	partial, err := uc.RefundLines(ctx, manager, rc.ID, "pantalla defectuosa", []pos.RefundLine{{LineID: screenLine, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptPartiallyRefunded, partial.Status)
	assert.Equal(t, 1, partial.Lines[1].RefundedQty)
	assert.Equal(t, 2, balance(t, store, screen))

	_, err = uc.RefundLines(ctx, manager, rc.ID, "x", []pos.RefundLine{{LineID: screenLine, Quantity: 2}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se devuelve más de lo vendido")

	_, err = uc.RefundLines(ctx, manager, rc.ID, "x", []pos.RefundLine{{LineID: "other", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// anular ya no aplica a un recibo parcialmente reembolsado
	_, err = uc.VoidReceipt(ctx, manager, rc.ID, "x")
	assert.ErrorIs(t, err, domain.ErrConflict)

	full, err := uc.RefundLines(ctx, manager, rc.ID, "cliente desiste", []pos.RefundLine{
		{LineID: phoneLine, Quantity: 1},
		{LineID: screenLine, Quantity: 1},
		{LineID: serviceLine, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptRefunded, full.Status)
	assert.Equal(t, 1, balance(t, store, phone))
	assert.Equal(t, 3, balance(t, store, screen))

	_, err = uc.RefundLines(ctx, manager, rc.ID, "x", []pos.RefundLine{{LineID: phoneLine, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
