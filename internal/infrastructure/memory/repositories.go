package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
	_ repository.StockRepository         = (*StockRepo)(nil)
	_ repository.ItemRepository          = (*ItemRepo)(nil)
	_ repository.LocationRepository      = (*LocationRepo)(nil)
	_ repository.ReceiptRepository       = (*ReceiptRepo)(nil)
	_ repository.TransferRepository      = (*TransferRepo)(nil)
	_ repository.BuybackRepository       = (*BuybackRepo)(nil)
)

// ─── Kardex ──────────────────────────────────────────────────────────────────

// MovementRepo kardex en memoria: solo inserción.
type MovementRepo struct{ v view }

func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	defer r.v.lock()()
	st := &r.v.s.st
	st.lastMovID++
	m.ID = st.lastMovID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	st.movements = append(st.movements, *m)
	return nil
}

func (r *MovementRepo) ListByItem(_ context.Context, tenantID string, item entity.ItemRef, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.v.lock()()
	var out []*entity.StockMovement
	for i := range r.v.s.st.movements {
		m := r.v.s.st.movements[i]
		if m.TenantID != tenantID || m.Item != item {
			continue
		}
		if f.LocationID != "" && m.LocationID != f.LocationID {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

func (r *MovementRepo) LastForPair(_ context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.StockMovement, error) {
	defer r.v.lock()()
	movs := r.v.s.st.movements
	for i := len(movs) - 1; i >= 0; i-- {
		m := movs[i]
		if m.TenantID == tenantID && m.LocationID == locationID && m.Item == item {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByReference(_ context.Context, tenantID, refKind, refID string) ([]*entity.StockMovement, error) {
	defer r.v.lock()()
	var out []*entity.StockMovement
	for i := range r.v.s.st.movements {
		m := r.v.s.st.movements[i]
		if m.TenantID == tenantID && m.Reference.Kind == refKind && m.Reference.ID == refID {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r *MovementRepo) ExistsForPair(_ context.Context, tenantID, locationID string, item entity.ItemRef, kind entity.MovementKind) (bool, error) {
	defer r.v.lock()()
	for _, m := range r.v.s.st.movements {
		if m.TenantID == tenantID && m.LocationID == locationID && m.Item == item && m.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// ─── Saldos ──────────────────────────────────────────────────────────────────

// StockRepo proyección de saldos en memoria.
type StockRepo struct{ v view }

func (r *StockRepo) Get(_ context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error) {
	defer r.v.lock()()
	if s, ok := r.v.s.st.stock[stockKey{tenantID, locationID, item}]; ok {
		return &s, nil
	}
	return &entity.Stock{TenantID: tenantID, LocationID: locationID, Item: item}, nil
}

// GetForUpdate dentro de Run el mutex del Store ya serializa la transacción completa.
func (r *StockRepo) GetForUpdate(_ context.Context, tenantID, locationID string, item entity.ItemRef) (*entity.Stock, error) {
	defer r.v.lock()()
	k := stockKey{tenantID, locationID, item}
	s, ok := r.v.s.st.stock[k]
	if !ok {
		s = entity.Stock{TenantID: tenantID, LocationID: locationID, Item: item, UpdatedAt: time.Now().UTC()}
		r.v.s.st.stock[k] = s
	}
	return &s, nil
}

func (r *StockRepo) Update(_ context.Context, s *entity.Stock) error {
	defer r.v.lock()()
	if s.Quantity < 0 {
		return domain.NewValidationError("quantity", "el saldo no puede ser negativo")
	}
	r.v.s.st.stock[stockKey{s.TenantID, s.LocationID, s.Item}] = *s
	return nil
}

func (r *StockRepo) ListByItem(_ context.Context, tenantID string, item entity.ItemRef) ([]*entity.Stock, error) {
	defer r.v.lock()()
	var out []*entity.Stock
	for k, s := range r.v.s.st.stock {
		if k.tenantID == tenantID && k.item == item {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r *StockRepo) ListByLocation(_ context.Context, tenantID, locationID string, limit, offset int) ([]*entity.Stock, error) {
	defer r.v.lock()()
	var all []*entity.Stock
	for k, s := range r.v.s.st.stock {
		if k.tenantID == tenantID && k.locationID == locationID {
			s := s
			all = append(all, &s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Item.Less(all[j].Item) })
	if offset >= len(all) {
		return []*entity.Stock{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ─── Catálogo ────────────────────────────────────────────────────────────────

// ItemRepo catálogo en memoria.
type ItemRepo struct{ v view }

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	defer r.v.lock()()
	k := skuKey{item.TenantID, item.Kind, item.SKU}
	if _, dup := r.v.s.st.skus[k]; dup {
		return fmt.Errorf("ítem %s: %w", item.SKU, domain.ErrDuplicate)
	}
	r.v.s.st.items[item.ID] = *item
	r.v.s.st.skus[k] = item.ID
	return nil
}

func (r *ItemRepo) GetByRef(_ context.Context, tenantID string, ref entity.ItemRef) (*entity.Item, error) {
	defer r.v.lock()()
	item, ok := r.v.s.st.items[ref.ID()]
	if !ok || item.TenantID != tenantID || item.Kind != ref.Kind() {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (r *ItemRepo) GetBySKU(_ context.Context, tenantID string, kind entity.ItemKind, sku string) (*entity.Item, error) {
	defer r.v.lock()()
	id, ok := r.v.s.st.skus[skuKey{tenantID, kind, sku}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	item := r.v.s.st.items[id]
	return &item, nil
}

func (r *ItemRepo) UpdateCost(_ context.Context, ref entity.ItemRef, cost decimal.Decimal) error {
	defer r.v.lock()()
	item, ok := r.v.s.st.items[ref.ID()]
	if !ok {
		return domain.ErrNotFound
	}
	item.Cost = cost
	item.UpdatedAt = time.Now().UTC()
	r.v.s.st.items[ref.ID()] = item
	return nil
}

func (r *ItemRepo) ListBelowReorderPoint(_ context.Context, tenantID, locationID string) ([]repository.LowStockRow, error) {
	defer r.v.lock()()
	var out []repository.LowStockRow
	for _, item := range r.v.s.st.items {
		if item.TenantID != tenantID || item.ReorderPoint <= 0 {
			continue
		}
		ref := item.Ref()
		qty := r.v.s.st.stock[stockKey{tenantID, locationID, ref}].Quantity
		if qty >= item.ReorderPoint {
			continue
		}
		out = append(out, repository.LowStockRow{
			Item:         ref,
			SKU:          item.SKU,
			Name:         item.Name,
			CurrentStock: qty,
			ReorderPoint: item.ReorderPoint,
			UnitCost:     item.Cost,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// LocationRepo ubicaciones en memoria.
type LocationRepo struct{ v view }

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	defer r.v.lock()()
	loc, ok := r.v.s.st.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &loc, nil
}

func (r *LocationRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.Location, error) {
	defer r.v.lock()()
	var out []*entity.Location
	for _, loc := range r.v.s.st.locations {
		if loc.TenantID == tenantID {
			loc := loc
			out = append(out, &loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ─── Documentos ──────────────────────────────────────────────────────────────

// ReceiptRepo recibos POS en memoria.
type ReceiptRepo struct{ v view }

func copyReceipt(r entity.Receipt) entity.Receipt {
	r.Lines = append([]entity.ReceiptLine(nil), r.Lines...)
	return r
}

func (r *ReceiptRepo) Create(_ context.Context, rc *entity.Receipt) error {
	defer r.v.lock()()
	noKey := rc.TenantID + "|" + rc.Number
	if _, dup := r.v.s.st.receiptNos[noKey]; dup {
		return fmt.Errorf("recibo %s: %w", rc.Number, domain.ErrDuplicate)
	}
	r.v.s.st.receipts[rc.ID] = copyReceipt(*rc)
	r.v.s.st.receiptNos[noKey] = rc.ID
	return nil
}

func (r *ReceiptRepo) GetByID(_ context.Context, id string) (*entity.Receipt, error) {
	defer r.v.lock()()
	rc, ok := r.v.s.st.receipts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rc = copyReceipt(rc)
	return &rc, nil
}

func (r *ReceiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.GetByID(ctx, id)
}

func (r *ReceiptRepo) Update(_ context.Context, rc *entity.Receipt) error {
	defer r.v.lock()()
	if _, ok := r.v.s.st.receipts[rc.ID]; !ok {
		return domain.ErrNotFound
	}
	r.v.s.st.receipts[rc.ID] = copyReceipt(*rc)
	return nil
}

// TransferRepo solicitudes de traslado en memoria.
type TransferRepo struct{ v view }

func copyTransfer(t entity.TransferRequest) entity.TransferRequest {
	t.Lines = append([]entity.TransferLine(nil), t.Lines...)
	return t
}

func (r *TransferRepo) Create(_ context.Context, t *entity.TransferRequest) error {
	defer r.v.lock()()
	if _, dup := r.v.s.st.transfers[t.ID]; dup {
		return fmt.Errorf("traslado %s: %w", t.ID, domain.ErrDuplicate)
	}
	r.v.s.st.transfers[t.ID] = copyTransfer(*t)
	return nil
}

func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.TransferRequest, error) {
	defer r.v.lock()()
	t, ok := r.v.s.st.transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t = copyTransfer(t)
	return &t, nil
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepo) Update(_ context.Context, t *entity.TransferRequest) error {
	defer r.v.lock()()
	if _, ok := r.v.s.st.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.v.s.st.transfers[t.ID] = copyTransfer(*t)
	return nil
}

// BuybackRepo contratos de recompra en memoria.
type BuybackRepo struct{ v view }

func copyBuyback(c entity.BuybackContract) entity.BuybackContract {
	c.Lines = append([]entity.BuybackLine(nil), c.Lines...)
	return c
}

func (r *BuybackRepo) Create(_ context.Context, c *entity.BuybackContract) error {
	defer r.v.lock()()
	if _, dup := r.v.s.st.buybacks[c.ID]; dup {
		return fmt.Errorf("recompra %s: %w", c.ID, domain.ErrDuplicate)
	}
	r.v.s.st.buybacks[c.ID] = copyBuyback(*c)
	return nil
}

func (r *BuybackRepo) GetByID(_ context.Context, id string) (*entity.BuybackContract, error) {
	defer r.v.lock()()
	c, ok := r.v.s.st.buybacks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = copyBuyback(c)
	return &c, nil
}

func (r *BuybackRepo) GetForUpdate(ctx context.Context, id string) (*entity.BuybackContract, error) {
	return r.GetByID(ctx, id)
}

func (r *BuybackRepo) Update(_ context.Context, c *entity.BuybackContract) error {
	defer r.v.lock()()
	if _, ok := r.v.s.st.buybacks[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.v.s.st.buybacks[c.ID] = copyBuyback(*c)
	return nil
}
