// import_stock carga saldos iniciales desde un CSV exportado del sistema anterior.
//
// Uso: go run ./cmd/import_stock -tenant T -location L -actor U [-role manager] -reason "apertura" [-encoding latin1] saldos.csv
//
// Columnas: item_kind,sku,name,quantity,unit_cost (con encabezado). item_kind acepta
// merchandise | spare_part. Los archivos de Excel suelen venir en ISO-8859-1.
// El actor pasa por la misma política de permisos que la API: solo admin o manager
// pueden registrar saldos iniciales.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/repairshop-ledger/pkg/config"
	"github.com/jhoicas/repairshop-ledger/pkg/logger"
)

var expectedHeader = []string{"item_kind", "sku", "name", "quantity", "unit_cost"}

var knownRoles = map[string]bool{
	entity.RoleAdmin:      true,
	entity.RoleManager:    true,
	entity.RoleTechnician: true,
	entity.RoleCashier:    true,
}

type options struct {
	tenantID   string
	locationID string
	actorID    string
	role       string
	reason     string
	batchID    string
	encoding   string
	path       string
}

func main() {
	var opts options
	flag.StringVar(&opts.tenantID, "tenant", "", "tenant (taller) destino")
	flag.StringVar(&opts.locationID, "location", "", "ubicación destino")
	flag.StringVar(&opts.actorID, "actor", "", "usuario responsable del lote")
	flag.StringVar(&opts.role, "role", entity.RoleManager, "rol del usuario: admin | manager | technician | cashier")
	flag.StringVar(&opts.reason, "reason", "saldo inicial", "motivo registrado en cada movimiento")
	flag.StringVar(&opts.batchID, "batch", "", "ID del lote (opcional)")
	flag.StringVar(&opts.encoding, "encoding", "latin1", "codificación del archivo: latin1 | utf8")
	flag.Parse()

	if flag.NArg() != 1 || opts.tenantID == "" || opts.locationID == "" || opts.actorID == "" {
		flag.Usage()
		os.Exit(2)
	}
	opts.path = flag.Arg(0)

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "import_stock: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	actor, err := actorFor(opts)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.path)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	rows, err := parseRows(decodeReader(f, opts.encoding))
	if err != nil {
		return fmt.Errorf("leer CSV: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("import_stock")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	workflow := inventory.NewWorkflowUseCase(
		postgres.NewTxRunner(pool),
		inventory.NewMovementWriter(log, nil),
		domaininv.NewRolePolicy(),
		postgres.NewLocationRepository(pool),
		log,
	)
	res, err := importRows(ctx, workflow, actor, opts, rows)
	if err != nil {
		log.Error().Err(err).Int("rows", len(rows)).Msg("importar saldos iniciales")
		return err
	}
	log.Info().
		Str("batch_id", res.BatchID).
		Str("actor_id", actor.ID).
		Str("role", actor.Role).
		Int("movements", len(res.Movements)).
		Int("created_items", res.CreatedItems).
		Msg("saldos iniciales importados")
	return nil
}

// actorFor construye el actor del lote; el rol debe ser uno de los reconocidos.
func actorFor(opts options) (entity.Actor, error) {
	role := strings.ToLower(strings.TrimSpace(opts.role))
	if !knownRoles[role] {
		return entity.Actor{}, domain.NewValidationError("role", fmt.Sprintf("rol %q desconocido", opts.role))
	}
	return entity.Actor{ID: opts.actorID, TenantID: opts.tenantID, Role: role}, nil
}

func importRows(
	ctx context.Context,
	workflow *inventory.WorkflowUseCase,
	actor entity.Actor,
	opts options,
	rows []inventory.ImportRow,
) (*inventory.ImportResult, error) {
	return workflow.ImportInitialBalance(ctx, actor, inventory.ImportInput{
		LocationID: opts.locationID,
		BatchID:    opts.batchID,
		Reason:     opts.reason,
		Rows:       rows,
	})
}

// decodeReader convierte a UTF-8 cuando el archivo viene en ISO-8859-1.
func decodeReader(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(encoding) {
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	default:
		return r
	}
}

// parseRows lee el CSV completo. Los errores indican la línea del archivo (el encabezado es la 1).
func parseRows(r io.Reader) ([]inventory.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(expectedHeader)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("archivo vacío")
		}
		return nil, err
	}
	for i, col := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")), col) {
			return nil, fmt.Errorf("encabezado: columna %d debe ser %q", i+1, col)
		}
	}

	var rows []inventory.ImportRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("el archivo no tiene filas")
	}
	return rows, nil
}

func parseRecord(rec []string) (inventory.ImportRow, error) {
	kind := entity.ItemKind(strings.ToLower(strings.TrimSpace(rec[0])))
	if !kind.Valid() {
		return inventory.ImportRow{}, fmt.Errorf("item_kind %q desconocido", rec[0])
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil {
		return inventory.ImportRow{}, fmt.Errorf("quantity %q: %w", rec[3], err)
	}
	cost := decimal.Zero
	if raw := strings.TrimSpace(rec[4]); raw != "" {
		cost, err = decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return inventory.ImportRow{}, fmt.Errorf("unit_cost %q: %w", rec[4], err)
		}
	}
	return inventory.ImportRow{
		Kind:     kind,
		SKU:      strings.TrimSpace(rec[1]),
		Name:     strings.TrimSpace(rec[2]),
		Quantity: qty,
		UnitCost: cost,
	}, nil
}
