package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// CreateSaleRequest body para POST /api/pos/receipts.
type CreateSaleRequest struct {
	LocationID   string            `json:"location_id" validate:"required"`
	CustomerName string            `json:"customer_name,omitempty" validate:"max=200"`
	Lines        []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SaleLineRequest línea de venta. Kind service no lleva ítem.
type SaleLineRequest struct {
	ItemRefRequest
	Kind        string          `json:"kind" validate:"required,oneof=product part service"`
	Description string          `json:"description,omitempty" validate:"max=300"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // 0 = precio de catálogo
}

// VoidReceiptRequest body para POST /api/pos/receipts/:id/void.
type VoidReceiptRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RefundRequest body para POST /api/pos/receipts/:id/refunds.
type RefundRequest struct {
	Reason string              `json:"reason" validate:"required,max=500"`
	Lines  []RefundLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RefundLineRequest cantidad a reembolsar de una línea del recibo.
type RefundLineRequest struct {
	LineID   string `json:"line_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// ReceiptResponse recibo POS con sus líneas.
type ReceiptResponse struct {
	ID           string                `json:"id"`
	LocationID   string                `json:"location_id"`
	Number       string                `json:"number"`
	CustomerName string                `json:"customer_name,omitempty"`
	Status       string                `json:"status"`
	NetTotal     decimal.Decimal       `json:"net_total"`
	VoidReason   string                `json:"void_reason,omitempty"`
	CreatedBy    string                `json:"created_by"`
	Lines        []ReceiptLineResponse `json:"lines"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ReceiptLineResponse línea del recibo.
type ReceiptLineResponse struct {
	ID          string          `json:"id"`
	LineNo      int             `json:"line_no"`
	Kind        string          `json:"kind"`
	ItemKind    string          `json:"item_kind,omitempty"`
	ItemID      string          `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	RefundedQty int             `json:"refunded_qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ReceiptFromEntity mapea un recibo. El costo snapshot no se expone.
func ReceiptFromEntity(r *entity.Receipt) ReceiptResponse {
	out := ReceiptResponse{
		ID:           r.ID,
		LocationID:   r.LocationID,
		Number:       r.Number,
		CustomerName: r.CustomerName,
		Status:       string(r.Status),
		NetTotal:     r.NetTotal,
		VoidReason:   r.VoidReason,
		CreatedBy:    r.CreatedBy,
		Lines:        make([]ReceiptLineResponse, 0, len(r.Lines)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, l := range r.Lines {
		line := ReceiptLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			Kind:        l.Kind,
			Description: l.Description,
			Quantity:    l.Quantity,
			RefundedQty: l.RefundedQty,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
		if !l.Item.IsZero() {
			line.ItemKind = string(l.Item.Kind())
			line.ItemID = l.Item.ID()
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
