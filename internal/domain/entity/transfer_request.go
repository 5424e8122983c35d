package entity

import "time"

// TransferStatus estado del flujo de traslado entre ubicaciones.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferApproved  TransferStatus = "APPROVED"
	TransferShipped   TransferStatus = "SHIPPED"
	TransferReceived  TransferStatus = "RECEIVED"
	TransferRejected  TransferStatus = "REJECTED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// IsTerminal indica que el traslado ya no admite transiciones.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferReceived || s == TransferRejected || s == TransferCancelled
}

// TransferRequest solicitud de traslado de stock de FromLocationID a ToLocationID (mismo tenant).
type TransferRequest struct {
	ID             string
	TenantID       string
	Number         string
	FromLocationID string
	ToLocationID   string
	Status         TransferStatus
	Notes          string
	RejectReason   string
	RequestedBy    string
	ApprovedBy     string
	ShippedBy      string
	ReceivedBy     string
	ClosedBy       string // quien rechazó o canceló
	Lines          []TransferLine
	CreatedAt      time.Time
	ApprovedAt     *time.Time
	ShippedAt      *time.Time
	ReceivedAt     *time.Time
	UpdatedAt      time.Time
}

// TransferLine cantidades por ítem a lo largo del flujo.
type TransferLine struct {
	ID             string
	TransferID     string
	Item           ItemRef
	RequestedQty   int
	ApprovedQty    int
	ShippedQty     int
	ReceivedQty    int
	ShortageReason string // obligatorio cuando ReceivedQty < ShippedQty
}

// Reference devuelve el documento de referencia para los movimientos del traslado.
func (t *TransferRequest) Reference() DocumentRef {
	return DocumentRef{Kind: RefTransferRequest, ID: t.ID, Number: t.Number}
}
