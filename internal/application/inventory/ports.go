package inventory

import (
	"context"

	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback: ningún movimiento ni saldo de la operación queda persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error) error
}

// Metrics contadores de negocio (implementado por pkg/metrics).
type Metrics interface {
	MovementRecorded(kind string, delta int)
	MovementRejected(kind, reason string)
	DocumentTransition(document, action string)
}

// NopMetrics descarta las métricas (pruebas y herramientas de línea de comandos).
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string, int)      {}
func (NopMetrics) MovementRejected(string, string)   {}
func (NopMetrics) DocumentTransition(string, string) {}
