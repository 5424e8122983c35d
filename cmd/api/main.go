package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/repairshop-ledger/internal/application/buyback"
	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/application/pos"
	"github.com/jhoicas/repairshop-ledger/internal/application/transfer"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/repairshop-ledger/internal/interfaces/http"
	"github.com/jhoicas/repairshop-ledger/pkg/config"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
	"github.com/jhoicas/repairshop-ledger/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

// ledgerRunner lo implementan el TxRunner de PostgreSQL y el store en memoria.
type ledgerRunner interface {
	inventory.TxRunner
	pos.SaleTxRunner
	transfer.TransferTxRunner
	buyback.BuybackTxRunner
}

// backend repositorios de lectura y runner transaccional del almacenamiento elegido.
type backend struct {
	runner    ledgerRunner
	movements repository.StockMovementRepository
	stock     repository.StockRepository
	items     repository.ItemRepository
	locations repository.LocationRepository
	receipts  repository.ReceiptRepository
	transfers repository.TransferRepository
	buybacks  repository.BuybackRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	m := metrics.New(strings.ReplaceAll(cfg.App.Name, "-", "_"))
	writer := inventory.NewMovementWriter(log, m)
	access := domaininv.NewRolePolicy()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Repair Shop Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegisterMovement: inventory.NewRegisterMovementUseCase(be.runner, writer, access, be.locations),
		Workflow:         inventory.NewWorkflowUseCase(be.runner, writer, access, be.locations, log),
		StockQuery:       inventory.NewStockQueryUseCase(be.movements, be.stock, be.locations, access),
		Replenishment:    inventory.NewReplenishmentUseCase(be.items, be.stock, be.locations),
		Sales: pos.NewSaleUseCase(be.runner, writer, access, be.locations, be.receipts,
			m, log, cfg.Numbering.ReceiptPrefix),
		Transfers: transfer.NewTransferUseCase(be.runner, writer, access, be.locations, be.transfers,
			m, log, cfg.Numbering.TransferPrefix),
		Buybacks: buyback.NewBuybackUseCase(be.runner, writer, access, be.locations, be.buybacks,
			m, log, cfg.Numbering.BuybackPrefix),
		Metrics:   m,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.Store == config.StoreMemory {
		store := memory.NewStore()
		n := seedLocations(store, cfg.App.MemoryLocations)
		log.Warn().Int("locations", n).Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &backend{
			runner:    store,
			movements: store.Movements(),
			stock:     store.Stock(),
			items:     store.Items(),
			locations: store.Locations(),
			receipts:  store.Receipts(),
			transfers: store.Transfers(),
			buybacks:  store.Buybacks(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &backend{
		runner:    postgres.NewTxRunner(pool),
		movements: postgres.NewStockMovementRepository(pool),
		stock:     postgres.NewStockRepository(pool),
		items:     postgres.NewItemRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		receipts:  postgres.NewReceiptRepository(pool),
		transfers: postgres.NewTransferRepository(pool),
		buybacks:  postgres.NewBuybackRepository(pool),
		close:     pool.Close,
	}, nil
}

// seedLocations carga ubicaciones con formato "tenant/id=Nombre,tenant/id=Nombre".
func seedLocations(store *memory.Store, spec string) int {
	n := 0
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		key, name, _ := strings.Cut(entry, "=")
		tenantID, id, ok := strings.Cut(key, "/")
		if !ok || tenantID == "" || id == "" {
			continue
		}
		if name == "" {
			name = id
		}
		now := time.Now().UTC()
		store.AddLocation(entity.Location{ID: id, TenantID: tenantID, Name: name, CreatedAt: now, UpdatedAt: now})
		n++
	}
	return n
}
