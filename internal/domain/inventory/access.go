package inventory

import (
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// Operation capacidad que se verifica una vez por operación.
type Operation string

const (
	OpReceive         Operation = "inventory.receive"
	OpSale            Operation = "inventory.sale"
	OpUseTicket       Operation = "inventory.use_ticket"
	OpUseInternal     Operation = "inventory.use_internal"
	OpReturn          Operation = "inventory.return"
	OpAdjust          Operation = "inventory.adjust"
	OpDamage          Operation = "inventory.damage"
	OpInitialBalance  Operation = "inventory.initial_balance"
	OpValidateBalance Operation = "inventory.validate_balance"
	OpTransferRequest Operation = "transfer.request"
	OpTransferCancel  Operation = "transfer.cancel"
	OpTransferApprove Operation = "transfer.approve"
	OpTransferShip    Operation = "transfer.ship"
	OpTransferReceive Operation = "transfer.receive"
	OpReceiptVoid     Operation = "pos.void"
	OpBuybackSign     Operation = "buyback.sign"
)

// OperationForKind devuelve la capacidad necesaria para registrar un tipo de movimiento directo.
func OperationForKind(kind entity.MovementKind) Operation {
	switch kind {
	case entity.MovementReceive:
		return OpReceive
	case entity.MovementSale:
		return OpSale
	case entity.MovementUseTicket:
		return OpUseTicket
	case entity.MovementUseInternal:
		return OpUseInternal
	case entity.MovementReturn:
		return OpReturn
	case entity.MovementAdjust:
		return OpAdjust
	case entity.MovementDamage:
		return OpDamage
	case entity.MovementInitialBalance:
		return OpInitialBalance
	case entity.MovementTransferOut:
		return OpTransferShip
	case entity.MovementTransferIn:
		return OpTransferReceive
	}
	return Operation("inventory." + string(kind))
}

// AccessChecker colaborador de permisos: (actor, operación) -> permitido o *domain.PermissionError.
type AccessChecker interface {
	Check(actor entity.Actor, op Operation) error
}

// privilegedOps solo admin/manager.
var privilegedOps = map[Operation]bool{
	OpReturn:          true,
	OpAdjust:          true,
	OpDamage:          true,
	OpInitialBalance:  true,
	OpValidateBalance: true,
	OpTransferApprove: true,
	OpTransferShip:    true,
	OpTransferReceive: true,
	OpReceiptVoid:     true,
}

// RolePolicy política por defecto basada en el rol del actor.
type RolePolicy struct{}

// NewRolePolicy construye la política de roles.
func NewRolePolicy() RolePolicy { return RolePolicy{} }

// Check permite operaciones operativas a cualquier rol conocido y las privilegiadas solo a admin/manager.
func (RolePolicy) Check(actor entity.Actor, op Operation) error {
	deny := &domain.PermissionError{ActorID: actor.ID, Role: actor.Role, Operation: string(op)}
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleManager:
		return nil
	case entity.RoleTechnician, entity.RoleCashier:
		if privilegedOps[op] {
			return deny
		}
		return nil
	default:
		return deny
	}
}
