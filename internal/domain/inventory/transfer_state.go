package inventory

import (
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// TransferAction acción sobre una solicitud de traslado.
type TransferAction string

const (
	ActionApprove TransferAction = "approve"
	ActionReject  TransferAction = "reject"
	ActionShip    TransferAction = "ship"
	ActionReceive TransferAction = "receive"
	ActionCancel  TransferAction = "cancel"
)

// transferTransitions PENDING → APPROVED → SHIPPED → RECEIVED; PENDING → REJECTED;
// PENDING/APPROVED → CANCELLED.
var transferTransitions = map[TransferAction]struct {
	from []entity.TransferStatus
	to   entity.TransferStatus
}{
	ActionApprove: {from: []entity.TransferStatus{entity.TransferPending}, to: entity.TransferApproved},
	ActionReject:  {from: []entity.TransferStatus{entity.TransferPending}, to: entity.TransferRejected},
	ActionShip:    {from: []entity.TransferStatus{entity.TransferApproved}, to: entity.TransferShipped},
	ActionReceive: {from: []entity.TransferStatus{entity.TransferShipped}, to: entity.TransferReceived},
	ActionCancel:  {from: []entity.TransferStatus{entity.TransferPending, entity.TransferApproved}, to: entity.TransferCancelled},
}

// NextTransferStatus devuelve el estado destino o *domain.TransitionError si la acción no aplica.
func NextTransferStatus(t *entity.TransferRequest, action TransferAction) (entity.TransferStatus, error) {
	tr, ok := transferTransitions[action]
	if ok {
		for _, s := range tr.from {
			if s == t.Status {
				return tr.to, nil
			}
		}
	}
	return "", &domain.TransitionError{
		Document: entity.RefTransferRequest,
		ID:       t.ID,
		Status:   string(t.Status),
		Action:   string(action),
	}
}
