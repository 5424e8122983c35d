package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un ítem del catálogo (mercancía o repuesto) visto desde el inventario.
// El maestro de ítems pertenece al catálogo; el kardex solo guarda referencias.
// Cost es promedio ponderado actualizado en cada entrada (RECEIVE).
type Item struct {
	ID           string
	TenantID     string
	Kind         ItemKind
	SKU          string // código de barras, IMEI o código interno; único por tenant y tipo
	Name         string
	Cost         decimal.Decimal // costo promedio ponderado (inicia en 0)
	Price        decimal.Decimal // precio de venta sugerido
	ReorderPoint int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref devuelve la referencia tipada del ítem.
func (i *Item) Ref() ItemRef {
	if i.Kind == ItemKindSparePart {
		return SparePart(i.ID)
	}
	return Merchandise(i.ID)
}
