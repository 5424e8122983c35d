package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/repairshop-ledger/internal/domain/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/infrastructure/memory"
)

var (
	manager    = entity.Actor{ID: "u-manager", TenantID: "t1", Role: entity.RoleManager}
	cashier    = entity.Actor{ID: "u-cashier", TenantID: "t1", Role: entity.RoleCashier}
	technician = entity.Actor{ID: "u-tech", TenantID: "t1", Role: entity.RoleTechnician}
	outsider   = entity.Actor{ID: "u-other", TenantID: "t2", Role: entity.RoleManager}

	screen = entity.SparePart("p-screen")
	phone  = entity.Merchandise("m-phone")
)

// recordingMetrics cuenta las llamadas a las métricas del escritor.
type recordingMetrics struct {
	mu       sync.Mutex
	recorded map[string]int
	rejected map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{recorded: map[string]int{}, rejected: map[string]int{}}
}

func (m *recordingMetrics) MovementRecorded(kind string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded[kind]++
}

func (m *recordingMetrics) MovementRejected(kind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[kind+"/"+reason]++
}

func (m *recordingMetrics) DocumentTransition(string, string) {}

type fixture struct {
	store    *memory.Store
	metrics  *recordingMetrics
	clock    time.Time
	register *inventory.RegisterMovementUseCase
	workflow *inventory.WorkflowUseCase
	query    *inventory.StockQueryUseCase
	refill   *inventory.ReplenishmentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddLocation(entity.Location{ID: "loc-a", TenantID: "t1", Name: "Centro"})
	store.AddLocation(entity.Location{ID: "loc-b", TenantID: "t1", Name: "Norte"})
	store.AddLocation(entity.Location{ID: "loc-x", TenantID: "t2", Name: "Otra empresa"})
	store.AddItem(entity.Item{
		ID: screen.ID(), TenantID: "t1", Kind: entity.ItemKindSparePart, SKU: "SCR-1", Name: "Pantalla",
		Cost: decimal.NewFromInt(100), Price: decimal.NewFromInt(250), ReorderPoint: 5,
	})
	store.AddItem(entity.Item{
		ID: phone.ID(), TenantID: "t1", Kind: entity.ItemKindMerchandise, SKU: "IMEI-1", Name: "Teléfono",
		Cost: decimal.NewFromInt(500), Price: decimal.NewFromInt(800),
	})
	store.AddItem(entity.Item{
		ID: "p-foreign", TenantID: "t2", Kind: entity.ItemKindSparePart, SKU: "SCR-1", Name: "Pantalla",
	})

	f := &fixture{
		store:   store,
		metrics: newRecordingMetrics(),
		clock:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	writer := inventory.NewMovementWriter(nil, f.metrics).WithClock(func() time.Time { return f.clock })
	access := domaininv.NewRolePolicy()
	f.register = inventory.NewRegisterMovementUseCase(store, writer, access, store.Locations())
	f.workflow = inventory.NewWorkflowUseCase(store, writer, access, store.Locations(), nil)
	f.query = inventory.NewStockQueryUseCase(store.Movements(), store.Stock(), store.Locations(), access)
	f.refill = inventory.NewReplenishmentUseCase(store.Items(), store.Stock(), store.Locations())
	return f
}

func (f *fixture) record(t *testing.T, actor entity.Actor, in inventory.RecordMovementInput) *entity.StockMovement {
	t.Helper()
	mov, err := f.register.RecordMovement(context.Background(), actor, in)
	require.NoError(t, err)
	return mov
}

func (f *fixture) receive(t *testing.T, locationID string, item entity.ItemRef, qty int) *entity.StockMovement {
	t.Helper()
	return f.record(t, cashier, inventory.RecordMovementInput{
		LocationID:    locationID,
		Item:          item,
		Kind:          entity.MovementReceive,
		QuantityDelta: qty,
	})
}

func (f *fixture) balance(t *testing.T, locationID string, item entity.ItemRef) int {
	t.Helper()
	s, err := f.store.Stock().Get(context.Background(), "t1", locationID, item)
	require.NoError(t, err)
	return s.Quantity
}

func (f *fixture) item(t *testing.T, ref entity.ItemRef) *entity.Item {
	t.Helper()
	it, err := f.store.Items().GetByRef(context.Background(), "t1", ref)
	require.NoError(t, err)
	return it
}
