package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
)

func TestParseRows_Valido(t *testing.T) {
	csv := "item_kind,sku,name,quantity,unit_cost\n" +
		"spare_part,SCR-1,Pantalla,3,100.50\n" +
		"merchandise, IMEI-1 ,Teléfono,1,\"1200,00\"\n"

	rows, err := parseRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, entity.ItemKindSparePart, rows[0].Kind)
	assert.Equal(t, "SCR-1", rows[0].SKU)
	assert.Equal(t, 3, rows[0].Quantity)
	assert.True(t, decimal.RequireFromString("100.50").Equal(rows[0].UnitCost))

	assert.Equal(t, entity.ItemKindMerchandise, rows[1].Kind)
	assert.Equal(t, "IMEI-1", rows[1].SKU)
	assert.True(t, decimal.NewFromInt(1200).Equal(rows[1].UnitCost))
}

func TestParseRows_Latin1(t *testing.T) {
	utf8 := "item_kind,sku,name,quantity,unit_cost\nspare_part,BAT-1,Batería,2,\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8)
	require.NoError(t, err)

	rows, err := parseRows(decodeReader(bytes.NewReader([]byte(latin1)), "latin1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Batería", rows[0].Name)
	assert.True(t, rows[0].UnitCost.IsZero())
}

func TestParseRows_Errores(t *testing.T) {
	cases := map[string]string{
		"vacío":            "",
		"encabezado":       "kind,sku,name,quantity,unit_cost\n",
		"sin filas":        "item_kind,sku,name,quantity,unit_cost\n",
		"tipo desconocido": "item_kind,sku,name,quantity,unit_cost\nservice,X,Y,1,0\n",
		"cantidad":         "item_kind,sku,name,quantity,unit_cost\nspare_part,X,Y,uno,0\n",
		"costo":            "item_kind,sku,name,quantity,unit_cost\nspare_part,X,Y,1,abc\n",
		"columnas":         "item_kind,sku,name,quantity,unit_cost\nspare_part,X,Y\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseRows(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseRows_IndicaLinea(t *testing.T) {
	csv := "item_kind,sku,name,quantity,unit_cost\nspare_part,A,A,1,0\nspare_part,B,B,x,0\n"
	_, err := parseRows(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 3")
}

func TestActorFor_Roles(t *testing.T) {
	opts := options{tenantID: "t1", actorID: "u-ops", role: " Manager "}
	actor, err := actorFor(opts)
	require.NoError(t, err)
	assert.Equal(t, entity.Actor{ID: "u-ops", TenantID: "t1", Role: entity.RoleManager}, actor)

	opts.role = "root"
	_, err = actorFor(opts)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportRows_AplicaPoliticaDePermisos(t *testing.T) {
	store := memory.NewStore()
	store.AddLocation(entity.Location{ID: "loc-a", TenantID: "t1", Name: "Centro"})
	workflow := inventory.NewWorkflowUseCase(store, inventory.NewMovementWriter(nil, nil),
		domaininv.NewRolePolicy(), store.Locations(), nil)
	rows := []inventory.ImportRow{{Kind: entity.ItemKindSparePart, SKU: "SCR-1", Name: "Pantalla", Quantity: 2}}
	opts := options{tenantID: "t1", locationID: "loc-a", actorID: "u-ops", reason: "apertura"}

	opts.role = entity.RoleTechnician
	tech, err := actorFor(opts)
	require.NoError(t, err)
	_, err = importRows(context.Background(), workflow, tech, opts, rows)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, store.Ledger())

	opts.role = entity.RoleManager
	mgr, err := actorFor(opts)
	require.NoError(t, err)
	res, err := importRows(context.Background(), workflow, mgr, opts, rows)
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementInitialBalance, res.Movements[0].Kind)
	assert.Equal(t, 2, res.Movements[0].BalanceAfter)
}

func TestRun_DevuelveErrorSinSalir(t *testing.T) {
	opts := options{tenantID: "t1", locationID: "loc-a", actorID: "u-ops", role: "root", path: "saldos.csv"}
	err := run(opts)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	opts.role = entity.RoleManager
	opts.path = t.TempDir() + "/no-existe.csv"
	err = run(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abrir CSV")
}
