package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errNoSecret     = errors.New("jwt: secret vacío")
	errMissingClaim = errors.New("jwt: faltan user_id o tenant_id")
)

// Claims identidad que viaja en el token: usuario, tenant (taller) y rol.
// El middleware arma el actor con ellos sin consultar la base.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"` // admin | manager | technician | cashier
}

// Generate firma un token HS256 válido por ttlMinutes.
func Generate(secret, userID, tenantID, role, issuer string, ttlMinutes int) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
		},
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse verifica firma y expiración. Un token sin usuario o sin tenant no es utilizable.
// El rol puede venir vacío; decidir qué hacer con eso es del llamador.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, errNoSecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	if claims.UserID == "" || claims.TenantID == "" {
		return nil, errMissingClaim
	}
	return claims, nil
}
