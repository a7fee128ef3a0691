// Package store provides the in-memory pos.TxStore.
package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/warp/taproom/pos"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	data
	view
}

type data struct {
	items     map[string]pos.Item
	levels    map[string]pos.StockLevel // by item ID
	daily     map[dailyKey]pos.DailyStock
	sales     map[string]pos.Sale
	shortages map[string]pos.Shortage
}

type dailyKey struct {
	ItemID string
	Day    pos.Day
}

func NewMemory() *Memory {
	m := &Memory{data: data{
		items:     make(map[string]pos.Item),
		levels:    make(map[string]pos.StockLevel),
		daily:     make(map[dailyKey]pos.DailyStock),
		sales:     make(map[string]pos.Sale),
		shortages: make(map[string]pos.Shortage),
	}}
	m.view = view{m: m}
	return m
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// Transactions are serialized by the store lock.
func (m *Memory) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.data.clone()
	if err := fn(view{m: m, inTx: true}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// Reset deletes every document. Used when loading demo scenarios.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data{
		items:     make(map[string]pos.Item),
		levels:    make(map[string]pos.StockLevel),
		daily:     make(map[dailyKey]pos.DailyStock),
		sales:     make(map[string]pos.Sale),
		shortages: make(map[string]pos.Shortage),
	}
	return nil
}

func (d data) clone() data {
	return data{
		items:     maps.Clone(d.items),
		levels:    maps.Clone(d.levels),
		daily:     maps.Clone(d.daily),
		sales:     maps.Clone(d.sales),
		shortages: maps.Clone(d.shortages),
	}
}

// =============================================================================
// VIEW - Store methods, locked unless running inside WithTx
// =============================================================================

type view struct {
	m    *Memory
	inTx bool
}

func (v view) rlock() func() {
	if v.inTx {
		return func() {}
	}
	v.m.mu.RLock()
	return v.m.mu.RUnlock
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.m.mu.Lock()
	return v.m.mu.Unlock
}

// --- items ---

func (v view) CreateItem(_ context.Context, item pos.Item) error {
	defer v.lock()()
	if _, ok := v.m.items[item.ID]; ok {
		return pos.ErrDuplicate
	}
	v.m.items[item.ID] = item
	return nil
}

func (v view) GetItem(_ context.Context, id string) (pos.Item, error) {
	defer v.rlock()()
	item, ok := v.m.items[id]
	if !ok {
		return pos.Item{}, pos.ErrItemNotFound
	}
	return item, nil
}

func (v view) ListItems(_ context.Context) ([]pos.Item, error) {
	defer v.rlock()()
	out := slices.Collect(maps.Values(v.m.items))
	slices.SortFunc(out, func(a, b pos.Item) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (v view) UpdateItem(_ context.Context, item pos.Item) error {
	defer v.lock()()
	if _, ok := v.m.items[item.ID]; !ok {
		return pos.ErrItemNotFound
	}
	v.m.items[item.ID] = item
	return nil
}

func (v view) DeleteItem(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.m.items[id]; !ok {
		return pos.ErrItemNotFound
	}
	delete(v.m.items, id)
	return nil
}

// --- stock counters ---

func (v view) CreateStockLevel(_ context.Context, level pos.StockLevel) error {
	defer v.lock()()
	if _, ok := v.m.levels[level.ItemID]; ok {
		return pos.ErrDuplicate
	}
	v.m.levels[level.ItemID] = level
	return nil
}

func (v view) GetStockLevel(_ context.Context, itemID string) (pos.StockLevel, error) {
	defer v.rlock()()
	level, ok := v.m.levels[itemID]
	if !ok {
		return pos.StockLevel{}, pos.ErrStockNotFound
	}
	return level, nil
}

func (v view) ListStockLevels(_ context.Context) ([]pos.StockLevel, error) {
	defer v.rlock()()
	out := slices.Collect(maps.Values(v.m.levels))
	slices.SortFunc(out, func(a, b pos.StockLevel) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out, nil
}

func (v view) AdjustStock(_ context.Context, itemID string, delta int) (pos.StockLevel, error) {
	defer v.lock()()
	level, ok := v.m.levels[itemID]
	if !ok {
		return pos.StockLevel{}, pos.ErrStockNotFound
	}
	if level.Quantity+delta < 0 {
		return pos.StockLevel{}, pos.ErrInsufficientStock
	}
	level.Quantity += delta
	v.m.levels[itemID] = level
	return level, nil
}

func (v view) SetStock(_ context.Context, itemID string, quantity int) (pos.StockLevel, error) {
	defer v.lock()()
	level, ok := v.m.levels[itemID]
	if !ok {
		return pos.StockLevel{}, pos.ErrStockNotFound
	}
	level.Quantity = quantity
	v.m.levels[itemID] = level
	return level, nil
}

func (v view) DeleteStockLevel(_ context.Context, itemID string) error {
	defer v.lock()()
	delete(v.m.levels, itemID)
	return nil
}

// --- daily sheets ---

func (v view) CreateDailyStockIfAbsent(_ context.Context, ds pos.DailyStock) (bool, error) {
	defer v.lock()()
	k := dailyKey{ItemID: ds.ItemID, Day: ds.Day}
	if _, ok := v.m.daily[k]; ok {
		return false, nil
	}
	v.m.daily[k] = copyDaily(ds)
	return true, nil
}

func (v view) GetDailyStock(_ context.Context, itemID string, day pos.Day) (pos.DailyStock, error) {
	defer v.rlock()()
	ds, ok := v.m.daily[dailyKey{ItemID: itemID, Day: day}]
	if !ok {
		return pos.DailyStock{}, pos.ErrDailyNotFound
	}
	return copyDaily(ds), nil
}

func (v view) ListDailyStock(_ context.Context, day pos.Day) ([]pos.DailyStock, error) {
	defer v.rlock()()
	out := make([]pos.DailyStock, 0)
	for k, ds := range v.m.daily {
		if k.Day == day {
			out = append(out, copyDaily(ds))
		}
	}
	slices.SortFunc(out, func(a, b pos.DailyStock) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out, nil
}

func (v view) UpdateDailyStock(_ context.Context, ds pos.DailyStock) error {
	defer v.lock()()
	k := dailyKey{ItemID: ds.ItemID, Day: ds.Day}
	cur, ok := v.m.daily[k]
	if !ok {
		return pos.ErrDailyNotFound
	}
	cur.Opening = ds.Opening
	cur.Closing = ds.Closing
	v.m.daily[k] = copyDaily(cur)
	return nil
}

func (v view) DeleteDailyStockForItem(_ context.Context, itemID string) error {
	defer v.lock()()
	maps.DeleteFunc(v.m.daily, func(k dailyKey, _ pos.DailyStock) bool { return k.ItemID == itemID })
	return nil
}

func copyDaily(ds pos.DailyStock) pos.DailyStock {
	if ds.Closing != nil {
		c := *ds.Closing
		ds.Closing = &c
	}
	return ds
}

// --- sales ---

func (v view) CreateSale(_ context.Context, sale pos.Sale) error {
	defer v.lock()()
	if _, ok := v.m.sales[sale.ID]; ok {
		return pos.ErrDuplicate
	}
	sale.SaleDate = sale.SaleDate.UTC()
	v.m.sales[sale.ID] = sale
	return nil
}

func (v view) GetSale(_ context.Context, id string) (pos.Sale, error) {
	defer v.rlock()()
	sale, ok := v.m.sales[id]
	if !ok {
		return pos.Sale{}, pos.ErrSaleNotFound
	}
	return sale, nil
}

func (v view) ListSales(_ context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	defer v.rlock()()
	out := make([]pos.Sale, 0)
	for _, s := range v.m.sales {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b pos.Sale) int {
		return cmp.Or(a.SaleDate.Compare(b.SaleDate), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (v view) UpdateSale(_ context.Context, sale pos.Sale) error {
	defer v.lock()()
	if _, ok := v.m.sales[sale.ID]; !ok {
		return pos.ErrSaleNotFound
	}
	sale.SaleDate = sale.SaleDate.UTC()
	v.m.sales[sale.ID] = sale
	return nil
}

func (v view) DeleteSale(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.m.sales[id]; !ok {
		return pos.ErrSaleNotFound
	}
	delete(v.m.sales, id)
	return nil
}

// --- shortages ---

func (v view) CreateShortage(_ context.Context, s pos.Shortage) error {
	defer v.lock()()
	if _, ok := v.m.shortages[s.ID]; ok {
		return pos.ErrDuplicate
	}
	s.ShortageDate = s.ShortageDate.UTC()
	v.m.shortages[s.ID] = s
	return nil
}

func (v view) ListShortages(_ context.Context, from, to time.Time) ([]pos.Shortage, error) {
	defer v.rlock()()
	out := make([]pos.Shortage, 0)
	for _, s := range v.m.shortages {
		if pos.InRange(s.ShortageDate, from, to) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b pos.Shortage) int {
		return cmp.Or(b.ShortageDate.Compare(a.ShortageDate), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (v view) DeleteShortage(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.m.shortages[id]; !ok {
		return pos.ErrShortageNotFound
	}
	delete(v.m.shortages, id)
	return nil
}
