package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// CreateBuybackRequest body para POST /api/buybacks.
type CreateBuybackRequest struct {
	LocationID string               `json:"location_id" validate:"required"`
	SellerName string               `json:"seller_name" validate:"required,max=200"`
	SellerDoc  string               `json:"seller_doc" validate:"required,max=50"`
	Lines      []BuybackLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// BuybackLineRequest equipo o parte comprada. Sin item_id se busca o crea por SKU/IMEI.
type BuybackLineRequest struct {
	ItemKind  string          `json:"item_kind" validate:"required,oneof=merchandise spare_part"`
	ItemID    string          `json:"item_id,omitempty"`
	SKU       string          `json:"sku,omitempty" validate:"required_without=ItemID,max=64"`
	Name      string          `json:"name,omitempty" validate:"max=200"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// BuybackResponse contrato de recompra.
type BuybackResponse struct {
	ID         string                `json:"id"`
	LocationID string                `json:"location_id"`
	Number     string                `json:"number"`
	SellerName string                `json:"seller_name"`
	SellerDoc  string                `json:"seller_doc"`
	Status     string                `json:"status"`
	CreatedBy  string                `json:"created_by"`
	SignedBy   string                `json:"signed_by,omitempty"`
	Lines      []BuybackLineResponse `json:"lines"`
	CreatedAt  time.Time             `json:"created_at"`
	SignedAt   *time.Time            `json:"signed_at,omitempty"`
}

// BuybackLineResponse línea del contrato.
type BuybackLineResponse struct {
	ID        string          `json:"id"`
	ItemKind  string          `json:"item_kind"`
	ItemID    string          `json:"item_id,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// BuybackFromEntity mapea un contrato de recompra.
func BuybackFromEntity(c *entity.BuybackContract) BuybackResponse {
	out := BuybackResponse{
		ID:         c.ID,
		LocationID: c.LocationID,
		Number:     c.Number,
		SellerName: c.SellerName,
		SellerDoc:  c.SellerDoc,
		Status:     c.Status,
		CreatedBy:  c.CreatedBy,
		SignedBy:   c.SignedBy,
		Lines:      make([]BuybackLineResponse, 0, len(c.Lines)),
		CreatedAt:  c.CreatedAt,
		SignedAt:   c.SignedAt,
	}
	for _, l := range c.Lines {
		out.Lines = append(out.Lines, BuybackLineResponse{
			ID:        l.ID,
			ItemKind:  string(l.ItemKind),
			ItemID:    l.ItemID,
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}
