package inventory

import (
	"strings"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// ValidateMovement revisa las restricciones estructurales de un movimiento antes de tocar
// el almacenamiento. Devuelve *domain.ValidationError en la primera falla.
func ValidateMovement(m *entity.StockMovement) error {
	if strings.TrimSpace(m.TenantID) == "" {
		return domain.NewValidationError("tenant_id", "requerido")
	}
	if strings.TrimSpace(m.LocationID) == "" {
		return domain.NewValidationError("location_id", "requerido")
	}
	if strings.TrimSpace(m.ActorID) == "" {
		return domain.NewValidationError("actor_id", "requerido")
	}
	if !m.Kind.Valid() {
		return domain.NewValidationError("movement_kind", "tipo de movimiento desconocido: "+string(m.Kind))
	}
	if m.Item.IsZero() || !m.Item.Kind().Valid() {
		return domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
	if m.QuantityDelta == 0 {
		return domain.NewValidationError("quantity_delta", "no puede ser cero")
	}
	switch sign := m.Kind.DeltaSign(); {
	case sign > 0 && m.QuantityDelta < 0:
		return domain.NewValidationError("quantity_delta", string(m.Kind)+" exige cantidad positiva")
	case sign < 0 && m.QuantityDelta > 0:
		return domain.NewValidationError("quantity_delta", string(m.Kind)+" exige cantidad negativa")
	}
	if m.Kind.RequiresReason() && strings.TrimSpace(m.Reason) == "" {
		return domain.NewValidationError("reason", "obligatorio para "+string(m.Kind))
	}
	if m.Kind.IsTransfer() {
		if strings.TrimSpace(m.TargetLocationID) == "" {
			return domain.NewValidationError("target_location_id", "requerido en traslados")
		}
		if m.TargetLocationID == m.LocationID {
			return domain.NewValidationError("target_location_id", "debe ser distinta de la ubicación del movimiento")
		}
	} else if m.TargetLocationID != "" {
		return domain.NewValidationError("target_location_id", "solo aplica a traslados")
	}
	if m.UnitCost != nil && m.UnitCost.IsNegative() {
		return domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	if m.UnitPrice != nil && m.UnitPrice.IsNegative() {
		return domain.NewValidationError("unit_price", "no puede ser negativo")
	}
	return nil
}
