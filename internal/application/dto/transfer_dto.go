package dto

import (
	"time"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromLocationID string                `json:"from_location_id" validate:"required"`
	ToLocationID   string                `json:"to_location_id" validate:"required,nefield=FromLocationID"`
	Notes          string                `json:"notes,omitempty" validate:"max=1000"`
	Lines          []TransferItemRequest `json:"lines" validate:"required,min=1,dive"`
}

// TransferItemRequest ítem y cantidad solicitados.
type TransferItemRequest struct {
	ItemRefRequest
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// TransferLinesRequest body de aprobar y recibir. Lines vacío = cantidades completas.
type TransferLinesRequest struct {
	Lines []TransferLineQtyRequest `json:"lines,omitempty" validate:"dive"`
}

// TransferLineQtyRequest cantidad aprobada o recibida por línea.
type TransferLineQtyRequest struct {
	LineID         string `json:"line_id" validate:"required"`
	Quantity       int    `json:"quantity" validate:"gte=0"`
	ShortageReason string `json:"shortage_reason,omitempty" validate:"max=500"`
}

// TransferReasonRequest body de rechazar y cancelar.
type TransferReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// TransferResponse solicitud de traslado con sus líneas.
type TransferResponse struct {
	ID             string                 `json:"id"`
	Number         string                 `json:"number"`
	FromLocationID string                 `json:"from_location_id"`
	ToLocationID   string                 `json:"to_location_id"`
	Status         string                 `json:"status"`
	Notes          string                 `json:"notes,omitempty"`
	RejectReason   string                 `json:"reject_reason,omitempty"`
	RequestedBy    string                 `json:"requested_by"`
	ApprovedBy     string                 `json:"approved_by,omitempty"`
	ShippedBy      string                 `json:"shipped_by,omitempty"`
	ReceivedBy     string                 `json:"received_by,omitempty"`
	ClosedBy       string                 `json:"closed_by,omitempty"`
	Lines          []TransferLineResponse `json:"lines"`
	CreatedAt      time.Time              `json:"created_at"`
	ApprovedAt     *time.Time             `json:"approved_at,omitempty"`
	ShippedAt      *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt     *time.Time             `json:"received_at,omitempty"`
}

// TransferLineResponse cantidades de una línea a lo largo del flujo.
type TransferLineResponse struct {
	ID             string `json:"id"`
	ItemKind       string `json:"item_kind"`
	ItemID         string `json:"item_id"`
	RequestedQty   int    `json:"requested_qty"`
	ApprovedQty    int    `json:"approved_qty"`
	ShippedQty     int    `json:"shipped_qty"`
	ReceivedQty    int    `json:"received_qty"`
	ShortageReason string `json:"shortage_reason,omitempty"`
}

// TransferFromEntity mapea una solicitud de traslado.
func TransferFromEntity(t *entity.TransferRequest) TransferResponse {
	out := TransferResponse{
		ID:             t.ID,
		Number:         t.Number,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Status:         string(t.Status),
		Notes:          t.Notes,
		RejectReason:   t.RejectReason,
		RequestedBy:    t.RequestedBy,
		ApprovedBy:     t.ApprovedBy,
		ShippedBy:      t.ShippedBy,
		ReceivedBy:     t.ReceivedBy,
		ClosedBy:       t.ClosedBy,
		Lines:          make([]TransferLineResponse, 0, len(t.Lines)),
		CreatedAt:      t.CreatedAt,
		ApprovedAt:     t.ApprovedAt,
		ShippedAt:      t.ShippedAt,
		ReceivedAt:     t.ReceivedAt,
	}
	for _, l := range t.Lines {
		out.Lines = append(out.Lines, TransferLineResponse{
			ID:             l.ID,
			ItemKind:       string(l.Item.Kind()),
			ItemID:         l.Item.ID(),
			RequestedQty:   l.RequestedQty,
			ApprovedQty:    l.ApprovedQty,
			ShippedQty:     l.ShippedQty,
			ReceivedQty:    l.ReceivedQty,
			ShortageReason: l.ShortageReason,
		})
	}
	return out
}
