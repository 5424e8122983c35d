// Package memory implementa los puertos de persistencia en memoria, para pruebas y
// ejecución local (APP_STORE=memory). Las transacciones se serializan con un mutex y
// se simulan con snapshot + restauración si la función devuelve error.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

type stockKey struct {
	tenantID   string
	locationID string
	item       entity.ItemRef
}

type skuKey struct {
	tenantID string
	kind     entity.ItemKind
	sku      string
}

type state struct {
	locations  map[string]entity.Location
	items      map[string]entity.Item
	skus       map[skuKey]string
	movements  []entity.StockMovement
	lastMovID  int64
	stock      map[stockKey]entity.Stock
	receipts   map[string]entity.Receipt
	receiptNos map[string]string
	transfers  map[string]entity.TransferRequest
	buybacks   map[string]entity.BuybackContract
}

func newState() state {
	return state{
		locations:  make(map[string]entity.Location),
		items:      make(map[string]entity.Item),
		skus:       make(map[skuKey]string),
		stock:      make(map[stockKey]entity.Stock),
		receipts:   make(map[string]entity.Receipt),
		receiptNos: make(map[string]string),
		transfers:  make(map[string]entity.TransferRequest),
		buybacks:   make(map[string]entity.BuybackContract),
	}
}

// clone copia los mapas y el kardex. Los valores guardados nunca se mutan en sitio
// (cada escritura reemplaza el valor), así que una copia superficial basta.
func (s state) clone() state {
	c := state{
		locations:  make(map[string]entity.Location, len(s.locations)),
		items:      make(map[string]entity.Item, len(s.items)),
		skus:       make(map[skuKey]string, len(s.skus)),
		movements:  append([]entity.StockMovement(nil), s.movements...),
		lastMovID:  s.lastMovID,
		stock:      make(map[stockKey]entity.Stock, len(s.stock)),
		receipts:   make(map[string]entity.Receipt, len(s.receipts)),
		receiptNos: make(map[string]string, len(s.receiptNos)),
		transfers:  make(map[string]entity.TransferRequest, len(s.transfers)),
		buybacks:   make(map[string]entity.BuybackContract, len(s.buybacks)),
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.skus {
		c.skus[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.receiptNos {
		c.receiptNos[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	for k, v := range s.buybacks {
		c.buybacks[k] = v
	}
	return c
}

// Store almacenamiento en memoria. El valor cero no es usable; construir con NewStore.
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// AddLocation registra una ubicación (siembra de datos; el maestro vive fuera del kardex).
func (s *Store) AddLocation(loc entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.locations[loc.ID] = loc
}

// AddItem registra un ítem del catálogo.
func (s *Store) AddItem(item entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.items[item.ID] = item
	s.st.skus[skuKey{item.TenantID, item.Kind, item.SKU}] = item.ID
}

// CorruptStock sobrescribe un saldo sin movimiento. Solo existe para probar la validación
// de consistencia entre proyección y kardex.
func (s *Store) CorruptStock(tenantID, locationID string, item entity.ItemRef, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stockKey{tenantID, locationID, item}
	st := s.st.stock[k]
	st.TenantID, st.LocationID, st.Item, st.Quantity = tenantID, locationID, item, quantity
	s.st.stock[k] = st
}

// Ledger devuelve una copia del kardex completo en orden de creación.
func (s *Store) Ledger() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StockMovement(nil), s.st.movements...)
}

// view accede al estado: fuera de transacción toma el mutex en cada llamada;
// dentro de Run el mutex ya está tomado.
type view struct {
	s    *Store
	inTx bool
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// Repositorios fuera de transacción (lecturas y casos de uso de consulta).
func (s *Store) Movements() *MovementRepo { return &MovementRepo{view{s: s}} }
func (s *Store) Stock() *StockRepo        { return &StockRepo{view{s: s}} }
func (s *Store) Items() *ItemRepo         { return &ItemRepo{view{s: s}} }
func (s *Store) Locations() *LocationRepo { return &LocationRepo{view{s: s}} }
func (s *Store) Receipts() *ReceiptRepo   { return &ReceiptRepo{view{s: s}} }
func (s *Store) Transfers() *TransferRepo { return &TransferRepo{view{s: s}} }
func (s *Store) Buybacks() *BuybackRepo   { return &BuybackRepo{view{s: s}} }

// withTx serializa la transacción y restaura el snapshot si fn falla.
func (s *Store) withTx(ctx context.Context, fn func(v view) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(view{s: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
) error) error {
	return s.withTx(ctx, func(v view) error {
		return fn(&MovementRepo{v}, &StockRepo{v}, &ItemRepo{v})
	})
}

// RunSale implementa pos.TxRunner.
func (s *Store) RunSale(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	receiptRepo repository.ReceiptRepository,
) error) error {
	return s.withTx(ctx, func(v view) error {
		return fn(&MovementRepo{v}, &StockRepo{v}, &ItemRepo{v}, &ReceiptRepo{v})
	})
}

// RunTransfer implementa transfer.TxRunner.
func (s *Store) RunTransfer(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	transferRepo repository.TransferRepository,
) error) error {
	return s.withTx(ctx, func(v view) error {
		return fn(&MovementRepo{v}, &StockRepo{v}, &ItemRepo{v}, &TransferRepo{v})
	})
}

// RunBuyback implementa buyback.TxRunner.
func (s *Store) RunBuyback(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	buybackRepo repository.BuybackRepository,
) error) error {
	return s.withTx(ctx, func(v view) error {
		return fn(&MovementRepo{v}, &StockRepo{v}, &ItemRepo{v}, &BuybackRepo{v})
	})
}
