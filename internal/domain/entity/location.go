package entity

import "time"

// Location representa una sucursal o bodega del tenant donde se almacena inventario.
type Location struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
