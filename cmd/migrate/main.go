// migrate aplica el esquema del kardex (idempotente) sobre la base configurada.
//
// Uso: go run ./cmd/migrate [-print]
// Con -print escribe el SQL en stdout sin conectarse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/repairshop-ledger/pkg/config"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

func main() {
	printOnly := flag.Bool("print", false, "imprimir el esquema sin aplicarlo")
	flag.Parse()

	if *printOnly {
		fmt.Print(postgres.Schema())
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	start := time.Now()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("esquema aplicado")
	return nil
}
