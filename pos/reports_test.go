package pos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/pos"
)

// seedTwoDays sells 2 beers yesterday evening and 3 beers plus 1 wine
// today, with a shortage logged today.
func seedTwoDays(t *testing.T, f *fixture) (lager, red pos.Item) {
	t.Helper()
	lager = f.item(t, "Beer", "5", 20)
	red = f.item(t, "Wine", "8", 6)

	past := f.coord.Clone(pos.WithClock(func() time.Time { return f.clock.Now().Add(-20 * time.Hour) }))
	_, err := past.RecordSale(f.ctx, lager.ID, 2)
	require.NoError(t, err)

	_, err = f.coord.RecordSale(f.ctx, lager.ID, 3)
	require.NoError(t, err)
	_, err = f.coord.RecordSale(f.ctx, red.ID, 1)
	require.NoError(t, err)
	_, err = f.coord.LogShortage(f.ctx, "Ada", price("150"))
	require.NoError(t, err)
	return lager, red
}

func TestReports_ListSalesByDay(t *testing.T) {
	f := newTestCoordinator(t)
	seedTwoDays(t, f)
	today := f.coord.Today()
	yesterday := today.Prev()

	todays, err := f.coord.ListSales(f.ctx, &today)
	require.NoError(t, err)
	assert.Len(t, todays, 2)

	yesterdays, err := f.coord.ListSales(f.ctx, &yesterday)
	require.NoError(t, err)
	assert.Len(t, yesterdays, 1)

	assert.Len(t, f.sales(t), 3)
}

func TestReports_SalesSummaryAndDashboard(t *testing.T) {
	f := newTestCoordinator(t)
	lager, _ := seedTwoDays(t, f)
	today := f.coord.Today()

	allTime, err := f.coord.SalesSummary(f.ctx, nil)
	require.NoError(t, err)
	require.Len(t, allTime, 2)
	assert.Equal(t, lager.ID, allTime[0].ItemID)
	assert.Equal(t, 5, allTime[0].QuantitySold)

	d, err := f.coord.Dashboard(f.ctx, &today)
	require.NoError(t, err)
	assert.True(t, d.TotalRevenue.Equal(price("23")), "3x5 + 1x8, got %s", d.TotalRevenue)
	assert.Equal(t, 4, d.TotalItemsSold)
}

func TestReports_StockSummaryAllTime(t *testing.T) {
	// Counter form: the counter is already net of sales, so opening is
	// the counter and expected subtracts every sale again.
	f := newTestCoordinator(t)
	lager, _ := seedTwoDays(t, f)

	summary, err := f.coord.StockSummary(f.ctx, nil)

	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, lager.ID, summary[0].ItemID)
	assert.Equal(t, 15, summary[0].Opening)
	assert.Equal(t, 5, summary[0].Sold)
	assert.Equal(t, 10, summary[0].Expected)
	assert.Equal(t, f.stock(t, lager.ID), summary[0].Opening, "opening is what is on hand")
}

func TestReports_DailyReport(t *testing.T) {
	f := newTestCoordinator(t)
	lager, _ := seedTwoDays(t, f)
	today := f.coord.Today()
	_, err := f.coord.SetClosingStock(f.ctx, lager.ID, today, 14)
	require.NoError(t, err)

	r, err := f.coord.DailyReport(f.ctx, today)

	require.NoError(t, err)
	assert.Equal(t, today, r.Day)
	assert.Equal(t, 4, r.Dashboard.TotalItemsSold)
	require.Len(t, r.Stock, 2)
	// Beer opened today at 18 (20 minus yesterday's 2), sold 3.
	assert.Equal(t, 18, r.Stock[0].Opening)
	assert.Equal(t, 15, r.Stock[0].Expected)
	assert.Equal(t, -1, r.TotalDiscrepancy)
	require.Len(t, r.Shortages, 1)
	assert.True(t, r.TotalShortage.Equal(price("150")))
}
