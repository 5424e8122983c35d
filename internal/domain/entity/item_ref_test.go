package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

func TestParseItemRef_Formatos(t *testing.T) {
	ref, err := entity.ParseItemRef("m1", "")
	require.NoError(t, err)
	assert.Equal(t, entity.ItemKindMerchandise, ref.Kind())
	assert.Equal(t, "m1", ref.ID())

	ref, err = entity.ParseItemRef("", " p1 ")
	require.NoError(t, err)
	assert.Equal(t, entity.SparePart("p1"), ref)

	_, err = entity.ParseItemRef("m1", "p1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ambos ítems deben rechazarse")

	_, err = entity.ParseItemRef("", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ningún ítem debe rechazarse")
}

func TestItemRef_Columnas(t *testing.T) {
	m, p := entity.SparePart("p1").Columns()
	assert.Nil(t, m)
	require.NotNil(t, p)
	assert.Equal(t, "p1", *p)

	back, err := entity.ItemRefFromColumns(m, p)
	require.NoError(t, err)
	assert.Equal(t, entity.SparePart("p1"), back)

	m, p = entity.ItemRef{}.Columns()
	assert.Nil(t, m)
	assert.Nil(t, p)
}

func TestItemRef_Orden(t *testing.T) {
	a := entity.Merchandise("b")
	b := entity.SparePart("a")
	c := entity.Merchandise("c")
	assert.True(t, a.Less(b))
	assert.True(t, a.Less(c))
	assert.False(t, b.Less(c))
}

func TestMovementKind_Signo(t *testing.T) {
	assert.Equal(t, 1, entity.MovementReceive.DeltaSign())
	assert.Equal(t, -1, entity.MovementSale.DeltaSign())
	assert.Equal(t, 0, entity.MovementAdjust.DeltaSign())
	assert.True(t, entity.MovementAdjust.RequiresReason())
	assert.False(t, entity.MovementSale.RequiresReason())
	assert.False(t, entity.MovementKind("LOST").Valid())
}
