package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// ItemRefRequest exactamente uno de los dos IDs debe venir informado.
type ItemRefRequest struct {
	MerchandiseID string `json:"merchandise_id,omitempty" validate:"omitempty,max=64"`
	SparePartID   string `json:"spare_part_id,omitempty" validate:"omitempty,max=64"`
}

// RecordMovementRequest body para POST /api/inventory/movements (movimiento directo).
type RecordMovementRequest struct {
	ItemRefRequest
	LocationID       string           `json:"location_id" validate:"required"`
	TargetLocationID string           `json:"target_location_id,omitempty"`
	Kind             string           `json:"kind" validate:"required"`
	QuantityDelta    int              `json:"quantity_delta" validate:"required"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	ReferenceKind    string           `json:"reference_kind,omitempty"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	ReferenceNumber  string           `json:"reference_number,omitempty"`
	Reason           string           `json:"reason,omitempty" validate:"max=500"`
	Notes            string           `json:"notes,omitempty" validate:"max=1000"`
}

// ReceiveLineRequest línea de una entrada de mercancía.
type ReceiveLineRequest struct {
	ItemRefRequest
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ReceiveGoodsRequest body para POST /api/inventory/receipts.
type ReceiveGoodsRequest struct {
	LocationID      string               `json:"location_id" validate:"required"`
	ReferenceID     string               `json:"reference_id,omitempty"`
	ReferenceNumber string               `json:"reference_number" validate:"required,max=64"`
	Notes           string               `json:"notes,omitempty" validate:"max=1000"`
	Lines           []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// TicketPartRequest body para usar o devolver un repuesto de una orden de servicio.
type TicketPartRequest struct {
	LocationID   string `json:"location_id" validate:"required"`
	SparePartID  string `json:"spare_part_id" validate:"required"`
	TicketID     string `json:"ticket_id" validate:"required"`
	TicketNumber string `json:"ticket_number,omitempty"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
}

// InternalUseRequest body para POST /api/inventory/internal-use.
type InternalUseRequest struct {
	ItemRefRequest
	LocationID string `json:"location_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Notes      string `json:"notes" validate:"required,max=1000"`
}

// AdjustRequest body para POST /api/inventory/adjustments. Kind: ADJUST o DAMAGE.
type AdjustRequest struct {
	ItemRefRequest
	LocationID    string `json:"location_id" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=ADJUST DAMAGE"`
	QuantityDelta int    `json:"quantity_delta" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// InitialBalanceRowRequest fila de importación de saldo inicial.
type InitialBalanceRowRequest struct {
	ItemKind string          `json:"item_kind" validate:"required,oneof=merchandise spare_part"`
	SKU      string          `json:"sku" validate:"required,max=64"`
	Name     string          `json:"name" validate:"max=200"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// InitialBalanceRequest body para POST /api/inventory/initial-balance.
type InitialBalanceRequest struct {
	LocationID string                     `json:"location_id" validate:"required"`
	BatchID    string                     `json:"batch_id,omitempty"`
	Reason     string                     `json:"reason" validate:"required,max=500"`
	Rows       []InitialBalanceRowRequest `json:"rows" validate:"required,min=1,dive"`
}

// MovementResponse registro del kardex.
type MovementResponse struct {
	ID               int64            `json:"id"`
	LocationID       string           `json:"location_id"`
	TargetLocationID string           `json:"target_location_id,omitempty"`
	ItemKind         string           `json:"item_kind"`
	ItemID           string           `json:"item_id"`
	Kind             string           `json:"kind"`
	QuantityDelta    int              `json:"quantity_delta"`
	BalanceBefore    int              `json:"balance_before"`
	BalanceAfter     int              `json:"balance_after"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	ReferenceKind    string           `json:"reference_kind,omitempty"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	ReferenceNumber  string           `json:"reference_number,omitempty"`
	ActorID          string           `json:"actor_id"`
	Reason           string           `json:"reason,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// MovementFromEntity mapea un movimiento a su respuesta HTTP.
func MovementFromEntity(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		LocationID:       m.LocationID,
		TargetLocationID: m.TargetLocationID,
		ItemKind:         string(m.Item.Kind()),
		ItemID:           m.Item.ID(),
		Kind:             string(m.Kind),
		QuantityDelta:    m.QuantityDelta,
		BalanceBefore:    m.BalanceBefore,
		BalanceAfter:     m.BalanceAfter,
		UnitCost:         m.UnitCost,
		UnitPrice:        m.UnitPrice,
		ReferenceKind:    m.Reference.Kind,
		ReferenceID:      m.Reference.ID,
		ReferenceNumber:  m.Reference.Number,
		ActorID:          m.ActorID,
		Reason:           m.Reason,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}

// MovementsFromEntities mapea una lista de movimientos.
func MovementsFromEntities(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// StockLevelResponse saldo de un ítem en una ubicación.
type StockLevelResponse struct {
	LocationID     string    `json:"location_id"`
	ItemKind       string    `json:"item_kind"`
	ItemID         string    `json:"item_id"`
	Quantity       int       `json:"quantity"`
	LastMovementID int64     `json:"last_movement_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StockLevelFromEntity mapea un saldo a su respuesta.
func StockLevelFromEntity(s *entity.Stock) StockLevelResponse {
	return StockLevelResponse{
		LocationID:     s.LocationID,
		ItemKind:       string(s.Item.Kind()),
		ItemID:         s.Item.ID(),
		Quantity:       s.Quantity,
		LastMovementID: s.LastMovementID,
		UpdatedAt:      s.UpdatedAt,
	}
}

// StockOverviewResponse saldos de un ítem en todas las ubicaciones.
type StockOverviewResponse struct {
	ItemKind  string               `json:"item_kind"`
	ItemID    string               `json:"item_id"`
	Total     int                  `json:"total"`
	Locations []StockLevelResponse `json:"locations"`
}

// BalanceCheckResponse resultado de validar la proyección contra el kardex.
type BalanceCheckResponse struct {
	LocationID      string `json:"location_id"`
	ItemKind        string `json:"item_kind"`
	ItemID          string `json:"item_id"`
	Consistent      bool   `json:"consistent"`
	SnapshotBalance int    `json:"snapshot_balance"`
	LedgerBalance   int    `json:"ledger_balance"`
}

// LowStockDTO ítem bajo su punto de reorden en una ubicación, con el stock disponible
// en otras ubicaciones para solicitar un traslado antes de comprar.
type LowStockDTO struct {
	ItemKind           string          `json:"item_kind"`
	ItemID             string          `json:"item_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	CurrentStock       int             `json:"current_stock"`
	ReorderPoint       int             `json:"reorder_point"`
	SuggestedQty       int             `json:"suggested_qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedCost      decimal.Decimal `json:"estimated_cost"`
	AvailableElsewhere int             `json:"available_elsewhere"`
	Priority           int             `json:"priority"`
}

// InitialBalanceResponse resumen del lote de saldos iniciales confirmado.
type InitialBalanceResponse struct {
	BatchID      string             `json:"batch_id"`
	CreatedItems int                `json:"created_items"`
	Movements    []MovementResponse `json:"movements"`
}
