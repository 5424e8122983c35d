package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/repairshop-ledger/internal/application/buyback"
	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/application/pos"
	"github.com/jhoicas/repairshop-ledger/internal/application/transfer"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegisterMovement *inventory.RegisterMovementUseCase
	Workflow         *inventory.WorkflowUseCase
	StockQuery       *inventory.StockQueryUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	Sales            *pos.SaleUseCase
	Transfers        *transfer.TransferUseCase
	Buybacks         *buyback.BuybackUseCase
	Metrics          *metrics.Metrics // opcional
	JWTSecret        string
}

// Router registra las rutas de la API. Los permisos finos por operación los decide el dominio;
// RequireRole solo corta temprano las rutas de administración.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	privileged := RequireRole(entity.RoleAdmin, entity.RoleManager)

	// Inventario
	inv := protected.Group("/inventory")
	invHandler := NewInventoryHandler(deps.RegisterMovement, deps.Workflow, deps.StockQuery, deps.Replenishment)
	inv.Post("/movements", invHandler.RecordMovement)
	inv.Post("/receipts", invHandler.ReceiveGoods)
	inv.Post("/ticket-parts/use", invHandler.UseTicketPart)
	inv.Post("/ticket-parts/return", invHandler.ReturnTicketPart)
	inv.Post("/internal-use", invHandler.UseInternal)
	inv.Post("/adjustments", privileged, invHandler.Adjust)
	inv.Post("/initial-balance", privileged, invHandler.ImportInitialBalance)
	inv.Get("/items/:kind/:id/card", invHandler.GetStockCard)
	inv.Get("/items/:kind/:id/stock", invHandler.GetStockOverview)
	inv.Get("/items/:kind/:id/validate", privileged, invHandler.ValidateBalance)
	inv.Get("/locations/:id/stock", invHandler.ListLocationStock)
	inv.Get("/locations/:id/balance-checks", privileged, invHandler.CheckBalances)
	inv.Get("/locations/:id/replenishment", invHandler.GetReplenishmentList)
	inv.Get("/references/:kind/:id/movements", invHandler.MovementsByReference)

	// POS
	receipts := protected.Group("/pos/receipts")
	posHandler := NewPOSHandler(deps.Sales)
	receipts.Post("/", posHandler.CreateSale)
	receipts.Get("/:id", posHandler.GetReceipt)
	receipts.Post("/:id/void", posHandler.VoidReceipt)
	receipts.Post("/:id/refunds", posHandler.RefundLines)

	// Traslados
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/reject", transferHandler.Reject)
	transfers.Post("/:id/ship", transferHandler.Ship)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Recompras
	buybacks := protected.Group("/buybacks")
	buybackHandler := NewBuybackHandler(deps.Buybacks)
	buybacks.Post("/", buybackHandler.Create)
	buybacks.Get("/:id", buybackHandler.Get)
	buybacks.Post("/:id/sign", buybackHandler.Sign)
}
