package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptStatus estado del recibo POS.
type ReceiptStatus string

const (
	ReceiptIssued            ReceiptStatus = "ISSUED"
	ReceiptPartiallyRefunded ReceiptStatus = "PARTIALLY_REFUNDED"
	ReceiptRefunded          ReceiptStatus = "REFUNDED"
	ReceiptVoided            ReceiptStatus = "VOIDED"
)

// Tipos de línea del recibo. Las líneas de servicio no mueven stock.
const (
	LineProduct = "product"
	LinePart    = "part"
	LineService = "service"
)

// Receipt cabecera de un recibo de venta POS.
type Receipt struct {
	ID           string
	TenantID     string
	LocationID   string
	Number       string
	CustomerName string
	Status       ReceiptStatus
	NetTotal     decimal.Decimal
	CreatedBy    string
	VoidReason   string
	Lines        []ReceiptLine
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReceiptLine línea del recibo. Item es cero para líneas de servicio.
type ReceiptLine struct {
	ID          string
	ReceiptID   string
	LineNo      int
	Kind        string // product, part, service
	Item        ItemRef
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal // costo snapshot al momento de la venta
	Subtotal    decimal.Decimal
	RefundedQty int
}

// IsStocked indica si la línea descuenta inventario.
func (l *ReceiptLine) IsStocked() bool {
	return l.Kind != LineService && !l.Item.IsZero()
}

// Remaining cantidad vendida aún no devuelta.
func (l *ReceiptLine) Remaining() int {
	return l.Quantity - l.RefundedQty
}

// Reference devuelve el documento de referencia para los movimientos del recibo.
func (r *Receipt) Reference() DocumentRef {
	return DocumentRef{Kind: RefPOSReceipt, ID: r.ID, Number: r.Number}
}
