/*
store.go - Persistence interfaces for the catalog, stock ledger and sale log

PURPOSE:
  Defines the interface between the point-of-sale core and the database.
  Different implementations use an in-memory map, SQLite/PostgreSQL or
  Badger. The Coordinator and the Engine depend only on these interfaces.

KEY INTERFACES:
  ItemRepository:       Catalog documents
  StockRepository:      Running stock counters (one per item)
  DailyStockRepository: Opening/closing sheets (one per item per day)
  SaleRepository:       Sale log
  ShortageRepository:   Cash shortages
  Store:                All of the above
  TxStore:              Store plus atomic multi-document writes

ATOMIC WRITES:
  WithTx runs fn against a transactional view of the store. If fn
  returns an error nothing fn wrote is visible afterwards. This is the
  one primitive the Coordinator relies on for correctness: a sale and
  its stock decrement commit together or not at all.

CONDITIONAL DECREMENT:
  AdjustStock must apply the delta only if the resulting quantity is
  not negative, evaluated inside the store. Two concurrent sales of the
  last bottle cannot both succeed.

TIMESTAMPS:
  Implementations return every time.Time in UTC.

IMPLEMENTATIONS:
  - pos/store/memory.go:          In-memory, for tests and dev
  - store/sqlstore/sqlstore.go:   SQLite and PostgreSQL
  - store/badgerdb/badgerdb.go:   Badger document store
*/
package pos

import (
	"context"
	"time"
)

// =============================================================================
// REPOSITORIES
// =============================================================================

type ItemRepository interface {
	// CreateItem returns ErrDuplicate if the ID exists.
	CreateItem(ctx context.Context, item Item) error
	// GetItem returns ErrItemNotFound if absent.
	GetItem(ctx context.Context, id string) (Item, error)
	// ListItems returns items ordered by name.
	ListItems(ctx context.Context) ([]Item, error)
	// UpdateItem returns ErrItemNotFound if absent.
	UpdateItem(ctx context.Context, item Item) error
	// DeleteItem returns ErrItemNotFound if absent.
	DeleteItem(ctx context.Context, id string) error
}

type StockRepository interface {
	// CreateStockLevel returns ErrDuplicate if the item already has a counter.
	CreateStockLevel(ctx context.Context, level StockLevel) error
	// GetStockLevel returns ErrStockNotFound if the item has no counter.
	GetStockLevel(ctx context.Context, itemID string) (StockLevel, error)
	ListStockLevels(ctx context.Context) ([]StockLevel, error)
	// AdjustStock adds delta to the item's counter and returns the new
	// level. Returns ErrInsufficientStock, without writing, if the result
	// would be negative, and ErrStockNotFound if there is no counter.
	AdjustStock(ctx context.Context, itemID string, delta int) (StockLevel, error)
	// SetStock overwrites the counter. Returns ErrStockNotFound if absent.
	SetStock(ctx context.Context, itemID string, quantity int) (StockLevel, error)
	// DeleteStockLevel is a no-op if the item has no counter.
	DeleteStockLevel(ctx context.Context, itemID string) error
}

type DailyStockRepository interface {
	// CreateDailyStockIfAbsent stores ds unless a sheet for (ItemID, Day)
	// exists. Reports whether it created one.
	CreateDailyStockIfAbsent(ctx context.Context, ds DailyStock) (bool, error)
	// GetDailyStock returns ErrDailyNotFound if absent.
	GetDailyStock(ctx context.Context, itemID string, day Day) (DailyStock, error)
	ListDailyStock(ctx context.Context, day Day) ([]DailyStock, error)
	// UpdateDailyStock overwrites Opening and Closing of an existing sheet.
	UpdateDailyStock(ctx context.Context, ds DailyStock) error
	// DeleteDailyStockForItem removes every sheet of the item.
	DeleteDailyStockForItem(ctx context.Context, itemID string) error
}

type SaleRepository interface {
	CreateSale(ctx context.Context, sale Sale) error
	// GetSale returns ErrSaleNotFound if absent.
	GetSale(ctx context.Context, id string) (Sale, error)
	// ListSales returns matching sales, oldest first.
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)
	// UpdateSale returns ErrSaleNotFound if absent.
	UpdateSale(ctx context.Context, sale Sale) error
	// DeleteSale returns ErrSaleNotFound if absent.
	DeleteSale(ctx context.Context, id string) error
}

type ShortageRepository interface {
	CreateShortage(ctx context.Context, s Shortage) error
	// ListShortages returns shortages in [from, to), newest first.
	// Zero bounds are open.
	ListShortages(ctx context.Context, from, to time.Time) ([]Shortage, error)
	// DeleteShortage returns ErrShortageNotFound if absent.
	DeleteShortage(ctx context.Context, id string) error
}

// Store is the full document store.
type Store interface {
	ItemRepository
	StockRepository
	DailyStockRepository
	SaleRepository
	ShortageRepository
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
