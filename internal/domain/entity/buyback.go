package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del contrato de recompra.
const (
	BuybackDraft  = "DRAFT"
	BuybackSigned = "SIGNED"
)

// BuybackContract contrato de recompra de equipos o partes a un cliente.
// Al firmarse, los ítems ingresan al inventario (RECEIVE) al precio pagado.
type BuybackContract struct {
	ID         string
	TenantID   string
	LocationID string
	Number     string
	SellerName string
	SellerDoc  string
	Status     string
	CreatedBy  string
	SignedBy   string
	Lines      []BuybackLine
	CreatedAt  time.Time
	SignedAt   *time.Time
	UpdatedAt  time.Time
}

// BuybackLine ítem recomprado. Si ItemID está vacío se crea el ítem por SKU al firmar.
type BuybackLine struct {
	ID         string
	ContractID string
	ItemKind   ItemKind
	ItemID     string
	SKU        string // IMEI / serie / código
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal // precio pagado al vendedor = costo de entrada
}

// Reference devuelve el documento de referencia para los movimientos del contrato.
func (c *BuybackContract) Reference() DocumentRef {
	return DocumentRef{Kind: RefBuybackContract, ID: c.ID, Number: c.Number}
}
