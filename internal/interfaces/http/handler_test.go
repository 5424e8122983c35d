package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/application/buyback"
	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/application/pos"
	"github.com/jhoicas/repairshop-ledger/internal/application/transfer"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/repairshop-ledger/internal/interfaces/http"
	"github.com/jhoicas/repairshop-ledger/pkg/metrics"
)

// buildLedgerApp arma la API completa sobre el store en memoria con dos sucursales y un repuesto.
func buildLedgerApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddLocation(entity.Location{ID: "loc-a", TenantID: testTenantID, Name: "Centro"})
	store.AddLocation(entity.Location{ID: "loc-b", TenantID: testTenantID, Name: "Norte"})
	store.AddItem(entity.Item{ID: "p-screen", TenantID: testTenantID, Kind: entity.ItemKindSparePart, SKU: "SCR-1", Name: "Pantalla",
		Cost: decimal.NewFromInt(100), Price: decimal.NewFromInt(250)})

	m := metrics.New("test")
	writer := inventory.NewMovementWriter(nil, m)
	access := domaininv.NewRolePolicy()
	locs := store.Locations()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		RegisterMovement: inventory.NewRegisterMovementUseCase(store, writer, access, locs),
		Workflow:         inventory.NewWorkflowUseCase(store, writer, access, locs, nil),
		StockQuery:       inventory.NewStockQueryUseCase(store.Movements(), store.Stock(), locs, access),
		Replenishment:    inventory.NewReplenishmentUseCase(store.Items(), store.Stock(), locs),
		Sales:            pos.NewSaleUseCase(store, writer, access, locs, store.Receipts(), m, nil, "POS"),
		Transfers:        transfer.NewTransferUseCase(store, writer, access, locs, store.Transfers(), m, nil, "TRF"),
		Buybacks:         buyback.NewBuybackUseCase(store, writer, access, locs, store.Buybacks(), m, nil, "BUY"),
		Metrics:          m,
		JWTSecret:        testJWTSecret,
	})
	return app, store
}

// call envía la petición con el rol indicado y devuelve status y body.
func call(t *testing.T, app *fiber.App, role, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", bearerFor(t, "u-"+role, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func receiveScreens(t *testing.T, app *fiber.App, qty int) {
	t.Helper()
	status, raw := call(t, app, "manager", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "location_id": "loc-a", "kind": "RECEIVE", "quantity_delta": qty,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
}

func TestRecordMovement_Receive(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "manager", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "location_id": "loc-a", "kind": "RECEIVE", "quantity_delta": 4,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	mov := decode[dto.MovementResponse](t, raw)
	assert.Equal(t, "RECEIVE", mov.Kind)
	assert.Equal(t, 0, mov.BalanceBefore)
	assert.Equal(t, 4, mov.BalanceAfter)
	assert.Equal(t, "u-manager", mov.ActorID)
	assert.Equal(t, "spare_part", mov.ItemKind)
}

func TestRecordMovement_SinUbicacion_Retorna400ConCampos(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "manager", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "kind": "RECEIVE", "quantity_delta": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	resp := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "VALIDATION", resp.Code)
	assert.Contains(t, resp.Fields, "location_id")
}

func TestRecordMovement_AmbosItems_Retorna400(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "manager", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "merchandise_id": "m-1", "location_id": "loc-a", "kind": "RECEIVE", "quantity_delta": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	resp := decode[dto.ErrorResponse](t, raw)
	assert.Contains(t, resp.Fields, "item")
}

func TestRecordMovement_AjusteComoCajero_Retorna403(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, _ := call(t, app, "cashier", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "location_id": "loc-a", "kind": "ADJUST", "quantity_delta": 1, "reason": "conteo",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRecordMovement_UbicacionDesconocida_Retorna404(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, _ := call(t, app, "manager", http.MethodPost, "/api/inventory/movements", map[string]any{
		"spare_part_id": "p-screen", "location_id": "loc-zz", "kind": "RECEIVE", "quantity_delta": 1,
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateSale_StockInsuficiente_Retorna409ConDetalle(t *testing.T) {
	app, store := buildLedgerApp(t)
	receiveScreens(t, app, 1)

	status, raw := call(t, app, "cashier", http.MethodPost, "/api/pos/receipts", map[string]any{
		"location_id": "loc-a",
		"lines":       []map[string]any{{"kind": "part", "spare_part_id": "p-screen", "quantity": 3}},
	})
	require.Equal(t, http.StatusConflict, status, string(raw))

	var resp struct {
		Code    string `json:"code"`
		Details struct {
			Before int `json:"balance_before"`
			Delta  int `json:"quantity_delta"`
			After  int `json:"balance_after"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Code)
	assert.Equal(t, 1, resp.Details.Before)
	assert.Equal(t, -3, resp.Details.Delta)
	assert.Equal(t, -2, resp.Details.After)

	s, err := store.Stock().Get(t.Context(), testTenantID, "loc-a", entity.SparePart("p-screen"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Quantity, "una venta rechazada no toca el saldo")
}

func TestPOS_VentaYAnulacion(t *testing.T) {
	app, _ := buildLedgerApp(t)
	receiveScreens(t, app, 5)

	status, raw := call(t, app, "cashier", http.MethodPost, "/api/pos/receipts", map[string]any{
		"location_id":   "loc-a",
		"customer_name": "Ana",
		"lines": []map[string]any{
			{"kind": "part", "spare_part_id": "p-screen", "quantity": 2},
			{"kind": "service", "description": "Instalación", "quantity": 1, "unit_price": "30"},
		},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	rc := decode[dto.ReceiptResponse](t, raw)
	assert.Equal(t, "ISSUED", rc.Status)
	assert.True(t, decimal.NewFromInt(530).Equal(rc.NetTotal), "precio de catálogo + servicio")
	require.Len(t, rc.Lines, 2)

	status, _ = call(t, app, "cashier", http.MethodPost, "/api/pos/receipts/"+rc.ID+"/void", map[string]any{"reason": "error"})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = call(t, app, "manager", http.MethodPost, "/api/pos/receipts/"+rc.ID+"/void", map[string]any{"reason": "error de cobro"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "VOIDED", decode[dto.ReceiptResponse](t, raw).Status)

	status, raw = call(t, app, "manager", http.MethodPost, "/api/pos/receipts/"+rc.ID+"/void", map[string]any{"reason": "otra vez"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = call(t, app, "manager", http.MethodGet, "/api/inventory/items/spare_part/p-screen/stock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, decode[dto.StockOverviewResponse](t, raw).Total)

	status, raw = call(t, app, "manager", http.MethodGet, "/api/inventory/references/pos_receipt/"+rc.ID+"/movements", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]dto.MovementResponse](t, raw), 2, "SALE + RETURN")
}

func TestPOS_ReciboDesconocido_Retorna404(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "cashier", http.MethodGet, "/api/pos/receipts/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code)
}

func TestTransfer_FlujoCompleto(t *testing.T) {
	app, _ := buildLedgerApp(t)
	receiveScreens(t, app, 5)

	status, raw := call(t, app, "technician", http.MethodPost, "/api/transfers", map[string]any{
		"from_location_id": "loc-a",
		"to_location_id":   "loc-b",
		"lines":            []map[string]any{{"spare_part_id": "p-screen", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	tr := decode[dto.TransferResponse](t, raw)
	assert.Equal(t, "PENDING", tr.Status)

	status, raw = call(t, app, "technician", http.MethodPost, "/api/transfers/"+tr.ID+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, status, string(raw))

	for _, step := range []struct{ action, want string }{
		{"approve", "APPROVED"},
		{"ship", "SHIPPED"},
		{"receive", "RECEIVED"},
	} {
		status, raw = call(t, app, "manager", http.MethodPost, "/api/transfers/"+tr.ID+"/"+step.action, nil)
		require.Equal(t, http.StatusOK, status, step.action+": "+string(raw))
		assert.Equal(t, step.want, decode[dto.TransferResponse](t, raw).Status)
	}

	status, raw = call(t, app, "manager", http.MethodPost, "/api/transfers/"+tr.ID+"/cancel", map[string]any{"reason": "tarde"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = call(t, app, "manager", http.MethodGet, "/api/inventory/items/spare_part/p-screen/stock", nil)
	require.Equal(t, http.StatusOK, status)
	ov := decode[dto.StockOverviewResponse](t, raw)
	assert.Equal(t, 5, ov.Total, "un traslado no cambia el total del tenant")
	byLoc := map[string]int{}
	for _, l := range ov.Locations {
		byLoc[l.LocationID] = l.Quantity
	}
	assert.Equal(t, 3, byLoc["loc-a"])
	assert.Equal(t, 2, byLoc["loc-b"])

	status, raw = call(t, app, "admin", http.MethodGet, "/api/inventory/items/spare_part/p-screen/validate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"consistent":true}`, string(raw))
}

func TestTransfer_MismaUbicacion_Retorna400(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "technician", http.MethodPost, "/api/transfers", map[string]any{
		"from_location_id": "loc-a",
		"to_location_id":   "loc-a",
		"lines":            []map[string]any{{"spare_part_id": "p-screen", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[dto.ErrorResponse](t, raw).Fields, "to_location_id")
}

func TestBuyback_CrearYFirmar(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "technician", http.MethodPost, "/api/buybacks", map[string]any{
		"location_id": "loc-a",
		"seller_name": "Luis",
		"seller_doc":  "CC-123",
		"lines": []map[string]any{
			{"item_kind": "merchandise", "sku": "IMEI-777", "name": "Teléfono usado", "quantity": 1, "unit_price": "120"},
			{"item_kind": "spare_part", "item_id": "p-screen", "quantity": 2, "unit_price": "40"},
		},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	bc := decode[dto.BuybackResponse](t, raw)
	assert.Equal(t, "DRAFT", bc.Status)

	status, raw = call(t, app, "manager", http.MethodPost, "/api/buybacks/"+bc.ID+"/sign", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	signed := decode[dto.BuybackResponse](t, raw)
	assert.Equal(t, "SIGNED", signed.Status)
	assert.Equal(t, "u-manager", signed.SignedBy)

	status, raw = call(t, app, "manager", http.MethodGet, "/api/inventory/items/spare_part/p-screen/stock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, decode[dto.StockOverviewResponse](t, raw).Total)

	status, _ = call(t, app, "manager", http.MethodPost, "/api/buybacks/"+bc.ID+"/sign", nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestStockCard_FechaInvalida_Retorna400(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, raw := call(t, app, "manager", http.MethodGet, "/api/inventory/items/spare_part/p-screen/card?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[dto.ErrorResponse](t, raw).Fields, "from")
}

func TestStockCard_OrdenCronologico(t *testing.T) {
	app, _ := buildLedgerApp(t)
	receiveScreens(t, app, 3)

	status, raw := call(t, app, "admin", http.MethodPost, "/api/inventory/adjustments", map[string]any{
		"spare_part_id": "p-screen", "location_id": "loc-a", "kind": "DAMAGE", "quantity_delta": -1, "reason": "pantalla rota",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = call(t, app, "technician", http.MethodGet, "/api/inventory/items/spare_part/p-screen/card?location_id=loc-a", nil)
	require.Equal(t, http.StatusOK, status)
	card := decode[[]dto.MovementResponse](t, raw)
	require.Len(t, card, 2)
	assert.Equal(t, "RECEIVE", card[0].Kind)
	assert.Equal(t, "DAMAGE", card[1].Kind)
	assert.Equal(t, card[0].BalanceAfter, card[1].BalanceBefore)
	assert.Equal(t, 2, card[1].BalanceAfter)
}

func TestRutasPrivilegiadas_TecnicoBloqueado(t *testing.T) {
	app, _ := buildLedgerApp(t)

	status, _ := call(t, app, "technician", http.MethodGet, "/api/inventory/locations/loc-a/balance-checks", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, "", http.MethodGet, "/api/inventory/locations/loc-a/stock", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMetrics_EndpointExpone(t *testing.T) {
	app, _ := buildLedgerApp(t)
	receiveScreens(t, app, 1)

	status, raw := call(t, app, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "test_http_requests_total")
}
