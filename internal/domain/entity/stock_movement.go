package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind clasifica el motivo de un cambio de stock.
type MovementKind string

// Tipos de movimiento del kardex.
const (
	MovementInitialBalance MovementKind = "INITIAL_BALANCE" // saldo inicial (importación)
	MovementReceive        MovementKind = "RECEIVE"         // compra a proveedor o recompra
	MovementSale           MovementKind = "SALE"            // venta POS
	MovementUseTicket      MovementKind = "USE_TICKET"      // repuesto usado en una orden de servicio
	MovementUseInternal    MovementKind = "USE_INTERNAL"    // consumo interno
	MovementReturn         MovementKind = "RETURN"          // devolución (anulación/reembolso, repuesto devuelto)
	MovementAdjust         MovementKind = "ADJUST"          // ajuste manual
	MovementDamage         MovementKind = "DAMAGE"          // daño/merma
	MovementTransferOut    MovementKind = "TRANSFER_OUT"    // salida por traslado
	MovementTransferIn     MovementKind = "TRANSFER_IN"     // entrada por traslado
)

// MovementKinds lista todos los tipos válidos.
var MovementKinds = []MovementKind{
	MovementInitialBalance, MovementReceive, MovementSale, MovementUseTicket, MovementUseInternal,
	MovementReturn, MovementAdjust, MovementDamage, MovementTransferOut, MovementTransferIn,
}

// Valid indica si el tipo es uno de los enumerados.
func (k MovementKind) Valid() bool {
	for _, v := range MovementKinds {
		if v == k {
			return true
		}
	}
	return false
}

// RequiresReason: ajustes, daños y saldos iniciales siempre llevan justificación.
func (k MovementKind) RequiresReason() bool {
	return k == MovementAdjust || k == MovementDamage || k == MovementInitialBalance
}

// IsTransfer indica si el movimiento forma parte de un par de traslado.
func (k MovementKind) IsTransfer() bool {
	return k == MovementTransferOut || k == MovementTransferIn
}

// DeltaSign devuelve el signo exigido para la cantidad: 1, -1 o 0 (cualquiera).
func (k MovementKind) DeltaSign() int {
	switch k {
	case MovementInitialBalance, MovementReceive, MovementReturn, MovementTransferIn:
		return 1
	case MovementSale, MovementUseTicket, MovementUseInternal, MovementDamage, MovementTransferOut:
		return -1
	default:
		return 0
	}
}

// Tipos de documento de referencia.
const (
	RefPurchaseInvoice = "purchase_invoice"
	RefPOSReceipt      = "pos_receipt"
	RefServiceTicket   = "service_ticket"
	RefTransferRequest = "transfer_request"
	RefBuybackContract = "buyback_contract"
	RefAdjustment      = "adjustment"
	RefImportBatch     = "import_batch"
	RefInternalUse     = "internal_use"
)

// DocumentRef apunta al documento de negocio que originó el movimiento (informativo, sin FK).
type DocumentRef struct {
	Kind   string
	ID     string
	Number string
}

// IsZero indica que no hay documento de referencia.
func (d DocumentRef) IsZero() bool { return d.Kind == "" && d.ID == "" && d.Number == "" }

// StockMovement es un registro inmutable del kardex. Nunca se actualiza ni se elimina;
// las correcciones se hacen con un movimiento de signo contrario.
type StockMovement struct {
	ID               int64 // secuencia; el orden por ID es el orden de creación
	TenantID         string
	LocationID       string
	TargetLocationID string // solo TRANSFER_OUT / TRANSFER_IN
	Item             ItemRef
	Kind             MovementKind
	QuantityDelta    int // positivo entrada, negativo salida; nunca cero
	BalanceBefore    int
	BalanceAfter     int // = BalanceBefore + QuantityDelta, siempre >= 0
	UnitCost         *decimal.Decimal
	UnitPrice        *decimal.Decimal
	Reference        DocumentRef
	ActorID          string
	Reason           string
	Notes            string
	CreatedAt        time.Time
}
