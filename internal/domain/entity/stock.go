package entity

import "time"

// Stock es la proyección del saldo actual de un ítem en una ubicación (tabla location_stock).
// Quantity siempre coincide con el BalanceAfter del último movimiento del par.
type Stock struct {
	TenantID       string
	LocationID     string
	Item           ItemRef
	Quantity       int
	LastMovementID int64 // 0 si el par todavía no tiene movimientos
	UpdatedAt      time.Time
}
