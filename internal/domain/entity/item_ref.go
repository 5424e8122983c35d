package entity

import (
	"strings"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
)

// ItemKind distingue los dos catálogos que maneja el inventario.
type ItemKind string

const (
	ItemKindMerchandise ItemKind = "merchandise" // mercancía de venta (equipos, accesorios)
	ItemKindSparePart   ItemKind = "spare_part"  // repuesto para reparaciones
)

// Valid indica si el tipo de ítem es conocido.
func (k ItemKind) Valid() bool {
	return k == ItemKindMerchandise || k == ItemKindSparePart
}

// ItemRef referencia exactamente un ítem: mercancía o repuesto, nunca ambos.
// Los campos no son exportados; solo se construye con Merchandise o SparePart.
type ItemRef struct {
	kind ItemKind
	id   string
}

// Merchandise referencia un ítem de mercancía.
func Merchandise(id string) ItemRef { return ItemRef{kind: ItemKindMerchandise, id: id} }

// SparePart referencia un repuesto.
func SparePart(id string) ItemRef { return ItemRef{kind: ItemKindSparePart, id: id} }

// NewItemRef construye la referencia a partir del tipo y el ID.
func NewItemRef(kind ItemKind, id string) (ItemRef, error) {
	if !kind.Valid() {
		return ItemRef{}, domain.NewValidationError("item_kind", "tipo de ítem desconocido")
	}
	if strings.TrimSpace(id) == "" {
		return ItemRef{}, domain.NewValidationError("item_id", "ID de ítem requerido")
	}
	return ItemRef{kind: kind, id: id}, nil
}

// ParseItemRef convierte las dos columnas/campos anulables en un ItemRef.
// Falla si vienen ambos o ninguno.
func ParseItemRef(merchandiseID, sparePartID string) (ItemRef, error) {
	merchandiseID = strings.TrimSpace(merchandiseID)
	sparePartID = strings.TrimSpace(sparePartID)
	switch {
	case merchandiseID != "" && sparePartID != "":
		return ItemRef{}, domain.NewValidationError("item", "indicar mercancía o repuesto, no ambos")
	case merchandiseID != "":
		return Merchandise(merchandiseID), nil
	case sparePartID != "":
		return SparePart(sparePartID), nil
	default:
		return ItemRef{}, domain.NewValidationError("item", "se requiere mercancía o repuesto")
	}
}

func (r ItemRef) Kind() ItemKind { return r.kind }
func (r ItemRef) ID() string     { return r.id }

// IsZero indica que la referencia no fue construida.
func (r ItemRef) IsZero() bool { return r.id == "" }

// Columns devuelve (merchandise_id, spare_part_id) para persistencia; exactamente uno no es nil.
func (r ItemRef) Columns() (merchandiseID, sparePartID *string) {
	if r.IsZero() {
		return nil, nil
	}
	id := r.id
	if r.kind == ItemKindMerchandise {
		return &id, nil
	}
	return nil, &id
}

// ItemRefFromColumns reconstruye la referencia leída de la base de datos.
func ItemRefFromColumns(merchandiseID, sparePartID *string) (ItemRef, error) {
	var m, p string
	if merchandiseID != nil {
		m = *merchandiseID
	}
	if sparePartID != nil {
		p = *sparePartID
	}
	return ParseItemRef(m, p)
}

// Less define el orden estable de adquisición de bloqueos (tipo, luego ID).
func (r ItemRef) Less(o ItemRef) bool {
	if r.kind != o.kind {
		return r.kind < o.kind
	}
	return r.id < o.id
}

func (r ItemRef) String() string {
	if r.IsZero() {
		return "<none>"
	}
	return string(r.kind) + ":" + r.id
}
