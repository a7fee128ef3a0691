package pos

import (
	"context"
)

// =============================================================================
// READ SIDE - Snapshot the store, then run the engine
// =============================================================================

// ListSales returns the day's sales oldest first, or every sale when day
// is nil.
func (c *Coordinator) ListSales(ctx context.Context, day *Day) ([]Sale, error) {
	sales, err := c.store.ListSales(ctx, c.filterFor(day))
	return sales, storeErr("list sales", err)
}

func (c *Coordinator) ListStockLevels(ctx context.Context) ([]StockLevel, error) {
	levels, err := c.store.ListStockLevels(ctx)
	return levels, storeErr("list stock levels", err)
}

// SalesSummary returns per-item sales for the day, or for all time when
// day is nil.
func (c *Coordinator) SalesSummary(ctx context.Context, day *Day) ([]ItemSales, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := c.ListSales(ctx, day)
	if err != nil {
		return nil, err
	}
	return SummarizeSalesByItem(items, sales), nil
}

// StockSummary reconciles stock. With a day it uses that day's sheets
// and sales. Without one it uses the running counters and every sale;
// that Expected is not a physical count (see SummarizeStock).
func (c *Coordinator) StockSummary(ctx context.Context, day *Day) ([]StockSummary, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := c.ListSales(ctx, day)
	if err != nil {
		return nil, err
	}

	if day == nil {
		levels, err := c.ListStockLevels(ctx)
		if err != nil {
			return nil, err
		}
		return SummarizeStock(items, sales, levels, SaleFilter{}), nil
	}

	sheets, err := c.DailyStock(ctx, *day)
	if err != nil {
		return nil, err
	}
	return SummarizeDailyStock(items, sales, sheets, SaleFilter{}), nil
}

// Dashboard returns revenue, items sold and the best seller for the day.
func (c *Coordinator) Dashboard(ctx context.Context, day *Day) (Dashboard, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	sales, err := c.ListSales(ctx, day)
	if err != nil {
		return Dashboard{}, err
	}
	return DashboardTotals(items, sales), nil
}

// DailyReport assembles everything shown for one day.
func (c *Coordinator) DailyReport(ctx context.Context, day Day) (DailyReport, error) {
	sheets, err := c.DailyStock(ctx, day)
	if err != nil {
		return DailyReport{}, err
	}
	items, err := c.ListItems(ctx)
	if err != nil {
		return DailyReport{}, err
	}
	sales, err := c.ListSales(ctx, &day)
	if err != nil {
		return DailyReport{}, err
	}
	shortages, err := c.ListShortages(ctx, &day)
	if err != nil {
		return DailyReport{}, err
	}
	return BuildDailyReport(items, sales, sheets, shortages, day, c.loc), nil
}

func (c *Coordinator) filterFor(day *Day) SaleFilter {
	if day == nil {
		return SaleFilter{}
	}
	return day.Filter(c.loc)
}
