package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_GenerateAndParse_ConRole(t *testing.T) {
	tok, err := Generate("secret", "u1", "t1", "manager", "repairshop-ledger", 5)
	require.NoError(t, err)

	claims, err := Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "repairshop-ledger", claims.Issuer)
}

func TestJWT_Parse_RechazaTokensInvalidos(t *testing.T) {
	tok, err := Generate("secret", "u1", "t1", "cashier", "x", 5)
	require.NoError(t, err)

	_, err = Parse("otro", tok)
	assert.Error(t, err, "firma incorrecta")

	expired, err := Generate("secret", "u1", "t1", "cashier", "x", -1)
	require.NoError(t, err)
	_, err = Parse("secret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noTenant, err := Generate("secret", "u1", "", "cashier", "x", 5)
	require.NoError(t, err)
	_, err = Parse("secret", noTenant)
	assert.ErrorIs(t, err, errMissingClaim)

	_, err = Generate("", "u1", "t1", "cashier", "x", 5)
	assert.ErrorIs(t, err, errNoSecret)
}

func TestJWT_Parse_RechazaOtrosAlgoritmos(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           "u1",
		TenantID:         "t1",
		Role:             "admin",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = Parse("secret", tok)
	assert.Error(t, err)
}

func TestJWT_Parse_RequiereExpiracion(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1", TenantID: "t1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = Parse("secret", tok)
	assert.Error(t, err)
}
