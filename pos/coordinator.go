/*
coordinator.go - Paired sale and stock writes

PURPOSE:
  The Coordinator is the only write path that touches stock. It keeps
  the stock ledger consistent with the sale log: recording a sale
  decrements the item's counter, deleting one restores it, editing one
  restores the old quantity and applies the new one.

INVARIANT (per item, starting from opening stock O):
  counter + Σ(quantities of sales still in the log) == O + Σ(restocks)

  Every write below runs inside one store transaction, so the sale
  document and the counter change commit together or not at all.

AVAILABILITY:
  The counter is net of sales. A sale of n is allowed iff n <= counter.
  The check runs inside the transaction and the store re-checks it on
  the decrement itself (AdjustStock), so two staff selling the last
  bottle at once cannot both succeed.

REFERENTIAL GAPS:
  Deleting a sale whose item has no stock counter deletes the sale and
  skips the restore. This is logged, not returned as an error.

NOTIFICATIONS:
  Changes are published only after the transaction commits.

SEE ALSO:
  - rollover.go: Daily sheet initialization (also a stock writer)
  - catalog.go:  Item lifecycle
  - shortage.go: Cash shortage log
*/
package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// COORDINATOR
// =============================================================================

type Coordinator struct {
	store     TxStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
	roster    []string
	newID     func() string
}

type Option func(*Coordinator)

// WithPublisher sets where committed changes are announced.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp sales and shortages.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLocation sets the business time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(c *Coordinator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithRoster restricts shortage staff names to the given list.
func WithRoster(names []string) Option {
	return func(c *Coordinator) { c.roster = append([]string(nil), names...) }
}

func NewCoordinator(store TxStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		publisher: nopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
		loc:       time.Local,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "coordinator")
	return c
}

// Clone returns a copy of the coordinator with opts applied. Demo
// loaders use it to record history with a fixed clock.
func (c *Coordinator) Clone(opts ...Option) *Coordinator {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Location returns the business time zone.
func (c *Coordinator) Location() *time.Location { return c.loc }

// Today returns the current calendar day in the business time zone.
func (c *Coordinator) Today() Day { return DayOf(c.now(), c.loc) }

// =============================================================================
// SALES
// =============================================================================

// RecordSale logs a sale and decrements the item's stock in one
// transaction. Fails with an InsufficientStockError naming the quantity
// on hand if quantity exceeds it.
func (c *Coordinator) RecordSale(ctx context.Context, itemID string, quantity int) (Sale, error) {
	if err := validateSaleInput(itemID, quantity); err != nil {
		return Sale{}, err
	}

	var sale Sale
	err := c.commit(ctx, "record sale", func(tx Store, cs *changeSet) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return itemRef(err, itemID)
		}
		level, err := take(ctx, tx, item, quantity)
		if err != nil {
			return err
		}

		sale = Sale{
			ID:        c.newID(),
			ItemID:    item.ID,
			Quantity:  quantity,
			UnitPrice: item.UnitPrice,
			SaleDate:  c.now().UTC(),
		}
		if err := tx.CreateSale(ctx, sale); err != nil {
			return err
		}
		cs.add(CollectionSales, OpCreate, sale.ID)
		cs.add(CollectionStock, OpUpdate, level.ID)
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	c.logger.Debug("sale recorded", "sale_id", sale.ID, "item_id", sale.ItemID, "quantity", sale.Quantity)
	return sale, nil
}

// DeleteResult reports what DeleteSale did.
type DeleteResult struct {
	Sale Sale `json:"sale"`
	// Restored is false when the item had no stock counter to restore to.
	Restored bool        `json:"restored"`
	Stock    *StockLevel `json:"stock,omitempty"`
}

// DeleteSale removes a sale and returns its quantity to stock in one
// transaction. Deleting an unknown or already deleted sale returns
// ErrSaleNotFound and writes nothing.
func (c *Coordinator) DeleteSale(ctx context.Context, saleID string) (DeleteResult, error) {
	var res DeleteResult
	err := c.commit(ctx, "delete sale", func(tx Store, cs *changeSet) error {
		res = DeleteResult{}
		sale, err := tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, sale.ID); err != nil {
			return err
		}
		cs.add(CollectionSales, OpDelete, sale.ID)
		res.Sale = sale

		level, err := tx.AdjustStock(ctx, sale.ItemID, sale.Quantity)
		if errors.Is(err, ErrStockNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res.Restored = true
		res.Stock = &level
		cs.add(CollectionStock, OpUpdate, level.ID)
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	if !res.Restored {
		c.logger.Warn("sale deleted without stock restore: item has no stock level",
			"sale_id", res.Sale.ID, "item_id", res.Sale.ItemID, "quantity", res.Sale.Quantity)
	}
	return res, nil
}

// UpdateSale changes a sale's item and quantity. It behaves as deleting
// the old sale and recording the new one, in a single transaction: the
// old quantity goes back to the old item, then the new quantity is
// checked against and taken from the new item. ID and SaleDate are kept.
func (c *Coordinator) UpdateSale(ctx context.Context, saleID, itemID string, quantity int) (Sale, error) {
	if err := validateSaleInput(itemID, quantity); err != nil {
		return Sale{}, err
	}

	var (
		old, updated Sale
		unrestored   bool
	)
	err := c.commit(ctx, "update sale", func(tx Store, cs *changeSet) error {
		unrestored = false
		var err error
		old, err = tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}

		restored, err := tx.AdjustStock(ctx, old.ItemID, old.Quantity)
		switch {
		case errors.Is(err, ErrStockNotFound):
			unrestored = true
		case err != nil:
			return err
		default:
			cs.add(CollectionStock, OpUpdate, restored.ID)
		}

		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return itemRef(err, itemID)
		}
		level, err := take(ctx, tx, item, quantity)
		if err != nil {
			return err
		}

		updated = old
		updated.ItemID = item.ID
		updated.Quantity = quantity
		if old.ItemID != item.ID {
			updated.UnitPrice = item.UnitPrice
		}
		if err := tx.UpdateSale(ctx, updated); err != nil {
			return err
		}
		cs.add(CollectionSales, OpUpdate, updated.ID)
		cs.add(CollectionStock, OpUpdate, level.ID)
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if unrestored {
		c.logger.Warn("sale edit without stock restore: item has no stock level",
			"sale_id", old.ID, "item_id", old.ItemID, "quantity", old.Quantity)
	}
	return updated, nil
}

// =============================================================================
// RESTOCK
// =============================================================================

// Restock adds quantity to the item's counter. If today's sheet for the
// item exists its opening count grows by the same amount.
func (c *Coordinator) Restock(ctx context.Context, itemID string, quantity int) (StockLevel, error) {
	if quantity < 1 {
		return StockLevel{}, validation("quantity", "must be at least 1, got %d", quantity)
	}

	today := c.Today()
	var level StockLevel
	err := c.commit(ctx, "restock", func(tx Store, cs *changeSet) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return itemRef(err, itemID)
		}

		var err error
		level, err = tx.AdjustStock(ctx, itemID, quantity)
		if errors.Is(err, ErrStockNotFound) {
			level = StockLevel{ID: c.newID(), ItemID: itemID, Quantity: quantity}
			err = tx.CreateStockLevel(ctx, level)
		}
		if err != nil {
			return err
		}
		cs.add(CollectionStock, OpUpdate, level.ID)

		sheet, err := tx.GetDailyStock(ctx, itemID, today)
		if errors.Is(err, ErrDailyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sheet.Opening += quantity
		if err := tx.UpdateDailyStock(ctx, sheet); err != nil {
			return err
		}
		cs.add(CollectionDailyStock, OpUpdate, sheet.ID)
		return nil
	})
	if err != nil {
		return StockLevel{}, err
	}
	return level, nil
}

// SetStockQuantity overwrites the item's counter with a manual count.
func (c *Coordinator) SetStockQuantity(ctx context.Context, itemID string, quantity int) (StockLevel, error) {
	if quantity < 0 {
		return StockLevel{}, validation("quantity", "cannot be negative, got %d", quantity)
	}

	var level StockLevel
	err := c.commit(ctx, "set stock", func(tx Store, cs *changeSet) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return itemRef(err, itemID)
		}
		var err error
		level, err = tx.SetStock(ctx, itemID, quantity)
		if errors.Is(err, ErrStockNotFound) {
			level = StockLevel{ID: c.newID(), ItemID: itemID, Quantity: quantity}
			err = tx.CreateStockLevel(ctx, level)
		}
		if err != nil {
			return err
		}
		cs.add(CollectionStock, OpUpdate, level.ID)
		return nil
	})
	if err != nil {
		return StockLevel{}, err
	}
	return level, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type changeSet []Change

func (cs *changeSet) add(col Collection, op ChangeOp, id string) {
	*cs = append(*cs, Change{Collection: col, Op: op, DocID: id})
}

// commit runs fn in a transaction and publishes its changes once the
// transaction has committed.
func (c *Coordinator) commit(ctx context.Context, op string, fn func(tx Store, cs *changeSet) error) error {
	var cs changeSet
	err := c.store.WithTx(ctx, func(tx Store) error {
		cs = cs[:0]
		return fn(tx, &cs)
	})
	if err != nil {
		return storeErr(op, err)
	}

	at := c.now().UTC()
	for _, ch := range cs {
		ch.At = at
		c.publisher.Publish(ch)
	}
	return nil
}

// take checks that quantity is on hand and decrements the counter.
func take(ctx context.Context, tx Store, item Item, quantity int) (StockLevel, error) {
	available := 0
	level, err := tx.GetStockLevel(ctx, item.ID)
	switch {
	case err == nil:
		available = level.Quantity
	case !errors.Is(err, ErrStockNotFound):
		return StockLevel{}, err
	}
	if quantity > available {
		return StockLevel{}, &InsufficientStockError{
			ItemID: item.ID, ItemName: item.Name, Requested: quantity, Available: available,
		}
	}

	level, err = tx.AdjustStock(ctx, item.ID, -quantity)
	if errors.Is(err, ErrInsufficientStock) {
		// Another writer got there between the read and the decrement.
		current, getErr := tx.GetStockLevel(ctx, item.ID)
		if getErr == nil {
			available = current.Quantity
		}
		return StockLevel{}, &InsufficientStockError{
			ItemID: item.ID, ItemName: item.Name, Requested: quantity, Available: available,
		}
	}
	return level, err
}

func validateSaleInput(itemID string, quantity int) error {
	if itemID == "" {
		return validation("itemId", "is required")
	}
	if quantity < 1 {
		return validation("quantity", "must be at least 1, got %d", quantity)
	}
	return nil
}

// itemRef turns a missing item on a write path into a validation error.
func itemRef(err error, itemID string) error {
	if errors.Is(err, ErrItemNotFound) {
		return &ValidationError{
			Field:   "itemId",
			Message: fmt.Sprintf("item %q does not exist", itemID),
			Err:     ErrItemNotFound,
		}
	}
	return err
}
