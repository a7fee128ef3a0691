/*
rollover.go - Daily opening-stock initialization

PURPOSE:
  Makes sure every item has a DailyStock sheet for a given day. The
  first read of a day creates the missing sheets; the scheduler does the
  same shortly after midnight so the sheets exist before anyone asks.

OPENING STOCK:
  previous sheet exists:  opening = prev.Opening − sold on the previous day
  no previous sheet:      opening = counter + sold since the day began
  Both are floored at zero.

  The counter is net of sales, so adding back what was sold since the
  start of the day recovers what was on hand at the start of the day.

IDEMPOTENCY:
  Sheets are written with CreateDailyStockIfAbsent, keyed by (item, day).
  Two initializers racing on the same day create each sheet once; the
  loser's create is a no-op.

SEE ALSO:
  - api/scheduler.go: Eager rollover shortly after midnight
  - reconcile.go:     SummarizeDailyStock consumes the sheets
*/
package pos

import (
	"context"
	"errors"
)

// =============================================================================
// ROLLOVER
// =============================================================================

// EnsureDay creates the missing sheets for day and returns every sheet
// of the day.
func (c *Coordinator) EnsureDay(ctx context.Context, day Day) ([]DailyStock, error) {
	items, err := c.store.ListItems(ctx)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	existing, err := c.store.ListDailyStock(ctx, day)
	if err != nil {
		return nil, storeErr("list daily stock", err)
	}
	if len(missingSheets(items, existing)) == 0 {
		return existing, nil
	}

	var sheets []DailyStock
	created := 0
	err = c.commit(ctx, "initialize daily stock", func(tx Store, cs *changeSet) error {
		created = 0
		items, err := tx.ListItems(ctx)
		if err != nil {
			return err
		}
		existing, err := tx.ListDailyStock(ctx, day)
		if err != nil {
			return err
		}
		missing := missingSheets(items, existing)
		if len(missing) == 0 {
			sheets = existing
			return nil
		}

		openings, err := c.openings(ctx, tx, day)
		if err != nil {
			return err
		}
		for _, item := range missing {
			opening, err := openings(item.ID)
			if err != nil {
				return err
			}
			ds := DailyStock{ID: c.newID(), ItemID: item.ID, Day: day, Opening: opening}
			ok, err := tx.CreateDailyStockIfAbsent(ctx, ds)
			if err != nil {
				return err
			}
			if ok {
				created++
				cs.add(CollectionDailyStock, OpCreate, ds.ID)
			}
		}

		sheets, err = tx.ListDailyStock(ctx, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created > 0 {
		c.logger.Info("daily stock initialized", "date", day, "created", created)
	}
	return sheets, nil
}

// DailyStock returns the day's sheets, initializing them on first read.
func (c *Coordinator) DailyStock(ctx context.Context, day Day) ([]DailyStock, error) {
	sheets, err := c.EnsureDay(ctx, day)
	if IsRetryable(err) {
		// A concurrent initializer won; its sheets are there now.
		sheets, err = c.EnsureDay(ctx, day)
	}
	return sheets, err
}

// SetOpeningStock overwrites the opening count of an item for a day.
func (c *Coordinator) SetOpeningStock(ctx context.Context, itemID string, day Day, quantity int) (DailyStock, error) {
	return c.UpdateDailyStock(ctx, itemID, day, &quantity, nil)
}

// SetClosingStock records the manual end-of-day count of an item.
func (c *Coordinator) SetClosingStock(ctx context.Context, itemID string, day Day, quantity int) (DailyStock, error) {
	return c.UpdateDailyStock(ctx, itemID, day, nil, &quantity)
}

// UpdateDailyStock sets the opening and/or closing count of one sheet in
// a single transaction. Nil counts are left alone. Both counts are
// checked before anything is written.
func (c *Coordinator) UpdateDailyStock(ctx context.Context, itemID string, day Day, opening, closing *int) (DailyStock, error) {
	if opening == nil && closing == nil {
		return DailyStock{}, validation("", "set an opening and/or closing count")
	}
	if opening != nil && *opening < 0 {
		return DailyStock{}, validation("opening", "cannot be negative, got %d", *opening)
	}
	if closing != nil && *closing < 0 {
		return DailyStock{}, validation("closing", "cannot be negative, got %d", *closing)
	}
	if _, err := c.store.GetItem(ctx, itemID); err != nil {
		return DailyStock{}, storeErr("get item", itemRef(err, itemID))
	}
	if _, err := c.DailyStock(ctx, day); err != nil {
		return DailyStock{}, err
	}

	var sheet DailyStock
	err := c.commit(ctx, "update daily stock", func(tx Store, cs *changeSet) error {
		var err error
		sheet, err = tx.GetDailyStock(ctx, itemID, day)
		if err != nil {
			return err
		}
		if opening != nil {
			sheet.Opening = *opening
		}
		if closing != nil {
			counted := *closing
			sheet.Closing = &counted
		}
		if err := tx.UpdateDailyStock(ctx, sheet); err != nil {
			return err
		}
		cs.add(CollectionDailyStock, OpUpdate, sheet.ID)
		return nil
	})
	if err != nil {
		return DailyStock{}, err
	}
	return sheet, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// openings returns a function computing the opening stock of an item
// for day. Reads shared by every item are done once up front.
func (c *Coordinator) openings(ctx context.Context, tx Store, day Day) (func(itemID string) (int, error), error) {
	prevDay := day.Prev()
	prevSheets, err := tx.ListDailyStock(ctx, prevDay)
	if err != nil {
		return nil, err
	}
	prev := make(map[string]DailyStock, len(prevSheets))
	for _, s := range prevSheets {
		prev[s.ItemID] = s
	}

	prevSales, err := tx.ListSales(ctx, prevDay.Filter(c.loc))
	if err != nil {
		return nil, err
	}
	soldPrev := soldByItem(prevSales, SaleFilter{})

	sinceStart, err := tx.ListSales(ctx, SaleFilter{From: day.Start(c.loc).UTC()})
	if err != nil {
		return nil, err
	}
	soldSince := soldByItem(sinceStart, SaleFilter{})

	return func(itemID string) (int, error) {
		var opening int
		if p, ok := prev[itemID]; ok {
			opening = p.Opening - soldPrev[itemID]
		} else {
			level, err := tx.GetStockLevel(ctx, itemID)
			switch {
			case err == nil:
				opening = level.Quantity + soldSince[itemID]
			case errors.Is(err, ErrStockNotFound):
				opening = soldSince[itemID]
			default:
				return 0, err
			}
		}
		return max(opening, 0), nil
	}, nil
}

func missingSheets(items []Item, sheets []DailyStock) []Item {
	have := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		have[s.ItemID] = true
	}
	var missing []Item
	for _, item := range items {
		if !have[item.ID] {
			missing = append(missing, item)
		}
	}
	return missing
}
