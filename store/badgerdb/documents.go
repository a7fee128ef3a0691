package badgerdb

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/warp/taproom/pos"
)

const (
	prefixItem     = "item:"
	prefixStock    = "stock:"
	prefixDaily    = "daily:"
	prefixSale     = "sale:"
	prefixShortage = "shortage:"
)

func itemKey(id string) []byte       { return []byte(prefixItem + id) }
func stockKey(itemID string) []byte  { return []byte(prefixStock + itemID) }
func saleKey(id string) []byte       { return []byte(prefixSale + id) }
func shortageKey(id string) []byte   { return []byte(prefixShortage + id) }
func dailyPrefix(day pos.Day) []byte { return []byte(prefixDaily + string(day) + ":") }
func dailyKey(itemID string, day pos.Day) []byte {
	return append(dailyPrefix(day), itemID...)
}

// =============================================================================
// ITEMS
// =============================================================================

func (v view) CreateItem(_ context.Context, item pos.Item) error {
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, itemKey(item.ID))
		if err != nil {
			return err
		}
		if ok {
			return pos.ErrDuplicate
		}
		return put(txn, itemKey(item.ID), item)
	})
}

func (v view) GetItem(_ context.Context, id string) (pos.Item, error) {
	var item pos.Item
	err := v.read(func(txn *badger.Txn) error {
		return get(txn, itemKey(id), &item, pos.ErrItemNotFound)
	})
	return item, err
}

func (v view) ListItems(_ context.Context) ([]pos.Item, error) {
	items := make([]pos.Item, 0)
	err := v.read(func(txn *badger.Txn) error {
		return scan(txn, []byte(prefixItem), func(val []byte) error {
			var item pos.Item
			if err := json.Unmarshal(val, &item); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	slices.SortFunc(items, func(a, b pos.Item) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return items, err
}

func (v view) UpdateItem(_ context.Context, item pos.Item) error {
	return v.write(func(txn *badger.Txn) error {
		var cur pos.Item
		if err := get(txn, itemKey(item.ID), &cur, pos.ErrItemNotFound); err != nil {
			return err
		}
		return put(txn, itemKey(item.ID), item)
	})
}

func (v view) DeleteItem(_ context.Context, id string) error {
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, itemKey(id))
		if err != nil {
			return err
		}
		if !ok {
			return pos.ErrItemNotFound
		}
		return txn.Delete(itemKey(id))
	})
}

// =============================================================================
// STOCK LEVELS
// =============================================================================

func (v view) CreateStockLevel(_ context.Context, level pos.StockLevel) error {
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, stockKey(level.ItemID))
		if err != nil {
			return err
		}
		if ok {
			return pos.ErrDuplicate
		}
		return put(txn, stockKey(level.ItemID), level)
	})
}

func (v view) GetStockLevel(_ context.Context, itemID string) (pos.StockLevel, error) {
	var level pos.StockLevel
	err := v.read(func(txn *badger.Txn) error {
		return get(txn, stockKey(itemID), &level, pos.ErrStockNotFound)
	})
	return level, err
}

func (v view) ListStockLevels(_ context.Context) ([]pos.StockLevel, error) {
	levels := make([]pos.StockLevel, 0)
	err := v.read(func(txn *badger.Txn) error {
		return scan(txn, []byte(prefixStock), func(val []byte) error {
			var l pos.StockLevel
			if err := json.Unmarshal(val, &l); err != nil {
				return err
			}
			levels = append(levels, l)
			return nil
		})
	})
	return levels, err
}

func (v view) AdjustStock(_ context.Context, itemID string, delta int) (pos.StockLevel, error) {
	var level pos.StockLevel
	err := v.write(func(txn *badger.Txn) error {
		if err := get(txn, stockKey(itemID), &level, pos.ErrStockNotFound); err != nil {
			return err
		}
		if level.Quantity+delta < 0 {
			return pos.ErrInsufficientStock
		}
		level.Quantity += delta
		return put(txn, stockKey(itemID), level)
	})
	if err != nil {
		return pos.StockLevel{}, err
	}
	return level, nil
}

func (v view) SetStock(_ context.Context, itemID string, quantity int) (pos.StockLevel, error) {
	var level pos.StockLevel
	err := v.write(func(txn *badger.Txn) error {
		if err := get(txn, stockKey(itemID), &level, pos.ErrStockNotFound); err != nil {
			return err
		}
		level.Quantity = quantity
		return put(txn, stockKey(itemID), level)
	})
	if err != nil {
		return pos.StockLevel{}, err
	}
	return level, nil
}

func (v view) DeleteStockLevel(_ context.Context, itemID string) error {
	return v.write(func(txn *badger.Txn) error {
		return txn.Delete(stockKey(itemID))
	})
}

// =============================================================================
// DAILY SHEETS
// =============================================================================

func (v view) CreateDailyStockIfAbsent(_ context.Context, ds pos.DailyStock) (bool, error) {
	created := false
	err := v.write(func(txn *badger.Txn) error {
		key := dailyKey(ds.ItemID, ds.Day)
		ok, err := exists(txn, key)
		if err != nil || ok {
			return err
		}
		created = true
		return put(txn, key, ds)
	})
	return created && err == nil, err
}

func (v view) GetDailyStock(_ context.Context, itemID string, day pos.Day) (pos.DailyStock, error) {
	var ds pos.DailyStock
	err := v.read(func(txn *badger.Txn) error {
		return get(txn, dailyKey(itemID, day), &ds, pos.ErrDailyNotFound)
	})
	return ds, err
}

func (v view) ListDailyStock(_ context.Context, day pos.Day) ([]pos.DailyStock, error) {
	sheets := make([]pos.DailyStock, 0)
	err := v.read(func(txn *badger.Txn) error {
		return scan(txn, dailyPrefix(day), func(val []byte) error {
			var ds pos.DailyStock
			if err := json.Unmarshal(val, &ds); err != nil {
				return err
			}
			sheets = append(sheets, ds)
			return nil
		})
	})
	return sheets, err
}

func (v view) UpdateDailyStock(_ context.Context, ds pos.DailyStock) error {
	return v.write(func(txn *badger.Txn) error {
		key := dailyKey(ds.ItemID, ds.Day)
		var cur pos.DailyStock
		if err := get(txn, key, &cur, pos.ErrDailyNotFound); err != nil {
			return err
		}
		cur.Opening = ds.Opening
		cur.Closing = ds.Closing
		return put(txn, key, cur)
	})
}

func (v view) DeleteDailyStockForItem(_ context.Context, itemID string) error {
	suffix := []byte(":" + itemID)
	return v.write(func(txn *badger.Txn) error {
		keys := keysWith(txn, []byte(prefixDaily), func(k []byte) bool {
			return bytes.HasSuffix(k, suffix)
		})
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// SALES
// =============================================================================

func (v view) CreateSale(_ context.Context, sale pos.Sale) error {
	sale.SaleDate = sale.SaleDate.UTC()
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, saleKey(sale.ID))
		if err != nil {
			return err
		}
		if ok {
			return pos.ErrDuplicate
		}
		return put(txn, saleKey(sale.ID), sale)
	})
}

func (v view) GetSale(_ context.Context, id string) (pos.Sale, error) {
	var sale pos.Sale
	err := v.read(func(txn *badger.Txn) error {
		return get(txn, saleKey(id), &sale, pos.ErrSaleNotFound)
	})
	return sale, err
}

func (v view) ListSales(_ context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	sales := make([]pos.Sale, 0)
	err := v.read(func(txn *badger.Txn) error {
		return scan(txn, []byte(prefixSale), func(val []byte) error {
			var s pos.Sale
			if err := json.Unmarshal(val, &s); err != nil {
				return err
			}
			if f.Match(s) {
				sales = append(sales, s)
			}
			return nil
		})
	})
	slices.SortFunc(sales, func(a, b pos.Sale) int {
		return cmp.Or(a.SaleDate.Compare(b.SaleDate), strings.Compare(a.ID, b.ID))
	})
	return sales, err
}

func (v view) UpdateSale(_ context.Context, sale pos.Sale) error {
	sale.SaleDate = sale.SaleDate.UTC()
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, saleKey(sale.ID))
		if err != nil {
			return err
		}
		if !ok {
			return pos.ErrSaleNotFound
		}
		return put(txn, saleKey(sale.ID), sale)
	})
}

func (v view) DeleteSale(_ context.Context, id string) error {
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, saleKey(id))
		if err != nil {
			return err
		}
		if !ok {
			return pos.ErrSaleNotFound
		}
		return txn.Delete(saleKey(id))
	})
}

// =============================================================================
// SHORTAGES
// =============================================================================

func (v view) CreateShortage(_ context.Context, s pos.Shortage) error {
	s.ShortageDate = s.ShortageDate.UTC()
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, shortageKey(s.ID))
		if err != nil {
			return err
		}
		if ok {
			return pos.ErrDuplicate
		}
		return put(txn, shortageKey(s.ID), s)
	})
}

func (v view) ListShortages(_ context.Context, from, to time.Time) ([]pos.Shortage, error) {
	out := make([]pos.Shortage, 0)
	err := v.read(func(txn *badger.Txn) error {
		return scan(txn, []byte(prefixShortage), func(val []byte) error {
			var s pos.Shortage
			if err := json.Unmarshal(val, &s); err != nil {
				return err
			}
			if pos.InRange(s.ShortageDate, from, to) {
				out = append(out, s)
			}
			return nil
		})
	})
	slices.SortFunc(out, func(a, b pos.Shortage) int {
		return cmp.Or(b.ShortageDate.Compare(a.ShortageDate), strings.Compare(a.ID, b.ID))
	})
	return out, err
}

func (v view) DeleteShortage(_ context.Context, id string) error {
	return v.write(func(txn *badger.Txn) error {
		ok, err := exists(txn, shortageKey(id))
		if err != nil {
			return err
		}
		if !ok {
			return pos.ErrShortageNotFound
		}
		return txn.Delete(shortageKey(id))
	})
}
