package entity

// Roles reconocidos por la política de permisos.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleCashier    = "cashier"
)

// Actor es el usuario que ejecuta la operación. Lo resuelve la capa de autenticación
// y se pasa explícitamente a cada caso de uso (no hay contexto implícito).
type Actor struct {
	ID       string
	TenantID string
	Role     string
}

// IsPrivileged indica si el rol puede ajustar stock o gestionar traslados.
func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}
