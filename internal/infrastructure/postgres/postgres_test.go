package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/pkg/config"
)

func TestMapError_TraduceCodigosPostgres(t *testing.T) {
	assert.ErrorIs(t, mapError("get", pgx.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, mapError("get", fmt.Errorf("wrap: %w", pgx.ErrNoRows)), domain.ErrNotFound)

	dup := mapError("insert receipt", &pgconn.PgError{Code: "23505", ConstraintName: "pos_receipts_number_key"})
	assert.ErrorIs(t, dup, domain.ErrDuplicate)
	assert.Contains(t, dup.Error(), "insert receipt")

	check := mapError("update stock", &pgconn.PgError{Code: "23514", ConstraintName: "location_stock_quantity_nonnegative"})
	assert.ErrorIs(t, check, domain.ErrInvalidInput)
	var ve *domain.ValidationError
	require.True(t, errors.As(check, &ve))
	assert.Equal(t, "location_stock_quantity_nonnegative", ve.Field)

	other := errors.New("conexión perdida")
	assert.ErrorIs(t, mapError("list", other), other)
	assert.False(t, isUniqueViolation(other))
}

func TestNullHelpers_ValoresVacios(t *testing.T) {
	assert.Nil(t, nullString(""))
	require.NotNil(t, nullString("x"))
	assert.Equal(t, "x", derefString(nullString("x")))
	assert.Equal(t, "", derefString(nil))

	assert.False(t, nullDecimal(nil).Valid)
	d := decimal.NewFromInt(12)
	nd := nullDecimal(&d)
	require.True(t, nd.Valid)
	got := decimalPtr(nd)
	require.NotNil(t, got)
	assert.True(t, d.Equal(*got))
	assert.Nil(t, decimalPtr(decimal.NullDecimal{}))
}

func TestItemMatch_ColumnasPorTipo(t *testing.T) {
	assert.Equal(t, "merchandise_id IS NOT DISTINCT FROM $3 AND spare_part_id IS NOT DISTINCT FROM $4", itemMatch(3, 4))
}

func TestSchema_RestriccionesDelLedger(t *testing.T) {
	s := Schema()
	for _, want := range []string{
		"num_nonnulls(merchandise_id, spare_part_id) = 1",
		"CHECK (quantity_delta <> 0)",
		"CHECK (balance_after >= 0)",
		"CHECK (balance_after = balance_before + quantity_delta)",
		"CHECK (quantity >= 0)",
		"BEFORE UPDATE OR DELETE ON stock_movements",
		"CONSTRAINT location_stock_pair_key UNIQUE NULLS NOT DISTINCT",
	} {
		assert.True(t, strings.Contains(s, want), want)
	}
}

func TestPoolConfigFor_AplicaLimites(t *testing.T) {
	cfg := config.DBConfig{Host: "127.0.0.1", Port: 5432, User: "ledger", Password: "p@ss", DBName: "ledger", SSLMode: "disable", MaxConns: 8}
	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)

	cfg.MaxConns = 0
	pc, err = poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)

	cfg.MaxConns = 1
	pc, err = poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pc.MinConns)
}

func TestLookupIPv4_Literales(t *testing.T) {
	ctx := context.Background()
	ip, err := lookupIPv4(ctx, net.DefaultResolver, "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)

	_, err = lookupIPv4(ctx, net.DefaultResolver, "::1")
	assert.ErrorIs(t, err, errNoIPv4)
}
