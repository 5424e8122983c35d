package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
)

var screen = entity.SparePart("p-screen")

func TestRun_RollbackRestauraEstado(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository, itemRepo repository.ItemRepository) error {
		s, err := stockRepo.GetForUpdate(ctx, "t1", "loc-a", screen)
		require.NoError(t, err)
		s.Quantity = 5
		require.NoError(t, stockRepo.Update(ctx, s))
		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{TenantID: "t1", LocationID: "loc-a", Item: screen, Kind: entity.MovementReceive, QuantityDelta: 5, BalanceAfter: 5}))
		require.NoError(t, itemRepo.Create(ctx, &entity.Item{ID: "p-new", TenantID: "t1", Kind: entity.ItemKindSparePart, SKU: "NEW"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, store.Ledger())
	stocks, err := store.Stock().ListByLocation(ctx, "t1", "loc-a", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, stocks, "la fila creada por GetForUpdate también se revierte")
	_, err = store.Items().GetBySKU(ctx, "t1", entity.ItemKindSparePart, "NEW")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// la secuencia de IDs tampoco avanza
	require.NoError(t, store.Run(ctx, func(movRepo repository.StockMovementRepository, _ repository.StockRepository, _ repository.ItemRepository) error {
		m := &entity.StockMovement{TenantID: "t1", LocationID: "loc-a", Item: screen, Kind: entity.MovementReceive, QuantityDelta: 1, BalanceAfter: 1}
		require.NoError(t, movRepo.Create(ctx, m))
		assert.Equal(t, int64(1), m.ID)
		return nil
	}))
}

func TestStockRepo_RechazaNegativo(t *testing.T) {
	store := memory.NewStore()
	err := store.Stock().Update(context.Background(), &entity.Stock{TenantID: "t1", LocationID: "loc-a", Item: screen, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestItemRepo_SKUDuplicado(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	items := store.Items()

	require.NoError(t, items.Create(ctx, &entity.Item{ID: "a", TenantID: "t1", Kind: entity.ItemKindSparePart, SKU: "X"}))
	err := items.Create(ctx, &entity.Item{ID: "b", TenantID: "t1", Kind: entity.ItemKindSparePart, SKU: "X"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	// mismo SKU en el otro catálogo o en otro tenant es válido
	require.NoError(t, items.Create(ctx, &entity.Item{ID: "c", TenantID: "t1", Kind: entity.ItemKindMerchandise, SKU: "X"}))
	require.NoError(t, items.Create(ctx, &entity.Item{ID: "d", TenantID: "t2", Kind: entity.ItemKindSparePart, SKU: "X"}))

	_, err = items.GetByRef(ctx, "t1", entity.Merchandise("a"))
	assert.ErrorIs(t, err, domain.ErrNotFound, "el tipo de la referencia debe coincidir")

	require.NoError(t, items.UpdateCost(ctx, entity.SparePart("a"), decimal.NewFromInt(7)))
	got, err := items.GetByRef(ctx, "t1", entity.SparePart("a"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(got.Cost))
}

func TestReceiptRepo_CopiaLineas(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	repo := store.Receipts()

	rc := &entity.Receipt{ID: "r1", TenantID: "t1", Number: "POS-1", Lines: []entity.ReceiptLine{{ID: "l1", Quantity: 2}}}
	require.NoError(t, repo.Create(ctx, rc))
	rc.Lines[0].RefundedQty = 2

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Lines[0].RefundedQty, "mutar el valor del llamador no altera lo guardado")

	err = repo.Create(ctx, &entity.Receipt{ID: "r2", TenantID: "t1", Number: "POS-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
