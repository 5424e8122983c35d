package inventory

import (
	"sort"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

// WorkflowUseCase orquesta los flujos de negocio que generan movimientos de inventario
// (entradas, repuestos de órdenes de servicio, consumo interno, ajustes y saldo inicial).
// Cada operación valida permisos una vez y ejecuta todos sus movimientos en una sola transacción.
type WorkflowUseCase struct {
	txRunner     TxRunner
	writer       *MovementWriter
	access       domaininv.AccessChecker
	locationRepo repository.LocationRepository
	log          *logger.Logger
}

// NewWorkflowUseCase construye el orquestador.
func NewWorkflowUseCase(
	txRunner TxRunner,
	writer *MovementWriter,
	access domaininv.AccessChecker,
	locationRepo repository.LocationRepository,
	log *logger.Logger,
) *WorkflowUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &WorkflowUseCase{
		txRunner:     txRunner,
		writer:       writer,
		access:       access,
		locationRepo: locationRepo,
		log:          log.Component("inventory"),
	}
}

// LockOrder devuelve los índices de refs ordenados por ítem. Las operaciones multi-línea
// adquieren los bloqueos de filas siempre en este orden para evitar deadlocks.
func LockOrder(refs []entity.ItemRef) []int {
	idx := make([]int, len(refs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return refs[idx[a]].Less(refs[idx[b]]) })
	return idx
}
