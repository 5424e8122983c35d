package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// ValidationError describe una llamada mal formada. Nunca llega al almacenamiento.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError para el campo indicado.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Message
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError lleva los valores intentados para diagnóstico.
type InsufficientStockError struct {
	LocationID string
	Item       string // forma textual del ItemRef (kind:id)
	Before     int
	Delta      int
	After      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s para %s: saldo %d, movimiento %d, resultado %d",
		e.LocationID, e.Item, e.Before, e.Delta, e.After)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PermissionError indica que el rol del actor no permite la operación.
type PermissionError struct {
	ActorID   string
	Role      string
	Operation string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("el rol %q del usuario %s no permite %s", e.Role, e.ActorID, e.Operation)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// TransitionError indica que un documento no está en el estado que exige la acción.
type TransitionError struct {
	Document string // transfer_request, pos_receipt, buyback_contract
	ID       string
	Status   string
	Action   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s en estado %s no admite la acción %s", e.Document, e.ID, e.Status, e.Action)
}

func (e *TransitionError) Unwrap() error { return ErrConflict }

// IsClientError indica si el error se debe a la entrada o al estado de negocio (4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate)
}
