// Package storetest is the behavioral contract every pos.TxStore must
// satisfy. Each implementation runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/pos"
)

// Factory returns an empty store. It should register its own cleanup.
type Factory func(t *testing.T) pos.TxStore

// Run runs the whole contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Items", func(t *testing.T) { testItems(t, newStore(t)) })
	t.Run("StockLevels", func(t *testing.T) { testStockLevels(t, newStore(t)) })
	t.Run("ConditionalDecrement", func(t *testing.T) { testConditionalDecrement(t, newStore(t)) })
	t.Run("DailyStock", func(t *testing.T) { testDailyStock(t, newStore(t)) })
	t.Run("Sales", func(t *testing.T) { testSales(t, newStore(t)) })
	t.Run("Shortages", func(t *testing.T) { testShortages(t, newStore(t)) })
	t.Run("TxCommit", func(t *testing.T) { testTxCommit(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
}

var (
	ctx = context.Background()
	t0  = time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// ITEMS
// =============================================================================

func testItems(t *testing.T, s pos.TxStore) {
	require.NoError(t, s.CreateItem(ctx, pos.Item{ID: "i2", Name: "Wine", UnitPrice: money("8.50")}))
	require.NoError(t, s.CreateItem(ctx, pos.Item{ID: "i1", Name: "Beer", UnitPrice: money("5")}))

	err := s.CreateItem(ctx, pos.Item{ID: "i1", Name: "Again", UnitPrice: money("1")})
	assert.ErrorIs(t, err, pos.ErrDuplicate)

	got, err := s.GetItem(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "Wine", got.Name)
	assert.True(t, got.UnitPrice.Equal(money("8.5")), "price = %s", got.UnitPrice)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Beer", items[0].Name, "ordered by name")

	require.NoError(t, s.UpdateItem(ctx, pos.Item{ID: "i1", Name: "Lager", UnitPrice: money("6")}))
	got, err = s.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Lager", got.Name)

	assert.ErrorIs(t, s.UpdateItem(ctx, pos.Item{ID: "nope", Name: "x", UnitPrice: money("1")}), pos.ErrItemNotFound)

	require.NoError(t, s.DeleteItem(ctx, "i1"))
	_, err = s.GetItem(ctx, "i1")
	assert.ErrorIs(t, err, pos.ErrItemNotFound)
	assert.ErrorIs(t, s.DeleteItem(ctx, "i1"), pos.ErrItemNotFound)
}

// =============================================================================
// STOCK
// =============================================================================

func testStockLevels(t *testing.T, s pos.TxStore) {
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l2", ItemID: "wine", Quantity: 4}))
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 10}))

	err := s.CreateStockLevel(ctx, pos.StockLevel{ID: "l3", ItemID: "beer", Quantity: 1})
	assert.ErrorIs(t, err, pos.ErrDuplicate, "one counter per item")

	level, err := s.GetStockLevel(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 10}, level)

	levels, err := s.ListStockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "beer", levels[0].ItemID)

	level, err = s.AdjustStock(ctx, "beer", 5)
	require.NoError(t, err)
	assert.Equal(t, 15, level.Quantity)

	level, err = s.SetStock(ctx, "beer", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, level.Quantity)
	assert.Equal(t, "l1", level.ID)

	_, err = s.GetStockLevel(ctx, "gin")
	assert.ErrorIs(t, err, pos.ErrStockNotFound)
	_, err = s.AdjustStock(ctx, "gin", 1)
	assert.ErrorIs(t, err, pos.ErrStockNotFound)
	_, err = s.SetStock(ctx, "gin", 1)
	assert.ErrorIs(t, err, pos.ErrStockNotFound)

	require.NoError(t, s.DeleteStockLevel(ctx, "beer"))
	require.NoError(t, s.DeleteStockLevel(ctx, "beer"), "deleting a missing counter is a no-op")
	_, err = s.GetStockLevel(ctx, "beer")
	assert.ErrorIs(t, err, pos.ErrStockNotFound)
}

func testConditionalDecrement(t *testing.T, s pos.TxStore) {
	// GIVEN: 6 on hand
	// WHEN: Taking 7
	// THEN: ErrInsufficientStock and the counter is untouched
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 6}))

	_, err := s.AdjustStock(ctx, "beer", -7)
	assert.ErrorIs(t, err, pos.ErrInsufficientStock)

	level, err := s.GetStockLevel(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, 6, level.Quantity)

	level, err = s.AdjustStock(ctx, "beer", -6)
	require.NoError(t, err)
	assert.Equal(t, 0, level.Quantity, "taking the last unit is allowed")

	_, err = s.AdjustStock(ctx, "beer", -1)
	assert.ErrorIs(t, err, pos.ErrInsufficientStock)
}

// =============================================================================
// DAILY SHEETS
// =============================================================================

func testDailyStock(t *testing.T, s pos.TxStore) {
	day := pos.Day("2025-03-10")
	first := pos.DailyStock{ID: "d1", ItemID: "beer", Day: day, Opening: 20}

	created, err := s.CreateDailyStockIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateDailyStockIfAbsent(ctx, pos.DailyStock{ID: "d2", ItemID: "beer", Day: day, Opening: 99})
	require.NoError(t, err)
	assert.False(t, created, "second create for the same item and day is a no-op")

	got, err := s.GetDailyStock(ctx, "beer", day)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, 20, got.Opening)
	assert.Nil(t, got.Closing)

	_, err = s.CreateDailyStockIfAbsent(ctx, pos.DailyStock{ID: "d3", ItemID: "beer", Day: day.Prev(), Opening: 25})
	require.NoError(t, err)
	_, err = s.CreateDailyStockIfAbsent(ctx, pos.DailyStock{ID: "d4", ItemID: "apple", Day: day, Opening: 2})
	require.NoError(t, err)

	sheets, err := s.ListDailyStock(ctx, day)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "apple", sheets[0].ItemID)

	empty, err := s.ListDailyStock(ctx, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)

	closing := 14
	got.Opening = 21
	got.Closing = &closing
	require.NoError(t, s.UpdateDailyStock(ctx, got))
	got, err = s.GetDailyStock(ctx, "beer", day)
	require.NoError(t, err)
	assert.Equal(t, 21, got.Opening)
	require.NotNil(t, got.Closing)
	assert.Equal(t, 14, *got.Closing)

	err = s.UpdateDailyStock(ctx, pos.DailyStock{ItemID: "gin", Day: day})
	assert.ErrorIs(t, err, pos.ErrDailyNotFound)
	_, err = s.GetDailyStock(ctx, "gin", day)
	assert.ErrorIs(t, err, pos.ErrDailyNotFound)

	require.NoError(t, s.DeleteDailyStockForItem(ctx, "beer"))
	_, err = s.GetDailyStock(ctx, "beer", day)
	assert.ErrorIs(t, err, pos.ErrDailyNotFound)
	_, err = s.GetDailyStock(ctx, "beer", day.Prev())
	assert.ErrorIs(t, err, pos.ErrDailyNotFound)
	_, err = s.GetDailyStock(ctx, "apple", day)
	assert.NoError(t, err, "other items keep their sheets")
}

// =============================================================================
// SALES
// =============================================================================

func testSales(t *testing.T, s pos.TxStore) {
	lagos := time.FixedZone("WAT", 3600)
	sales := []pos.Sale{
		{ID: "s3", ItemID: "beer", Quantity: 1, UnitPrice: money("5"), SaleDate: t0.Add(2 * time.Hour)},
		{ID: "s1", ItemID: "beer", Quantity: 2, UnitPrice: money("5"), SaleDate: t0},
		{ID: "s2", ItemID: "wine", Quantity: 1, UnitPrice: money("8.25"), SaleDate: t0.Add(time.Hour).In(lagos)},
	}
	for _, sale := range sales {
		require.NoError(t, s.CreateSale(ctx, sale))
	}

	got, err := s.GetSale(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, got.SaleDate.Equal(t0.Add(time.Hour)))
	assert.Equal(t, time.UTC, got.SaleDate.Location(), "returned in UTC")
	assert.True(t, got.UnitPrice.Equal(money("8.25")))

	all, err := s.ListSales(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, saleIDs(all), "oldest first")

	beers, err := s.ListSales(ctx, pos.SaleFilter{ItemID: "beer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, saleIDs(beers))

	window, err := s.ListSales(ctx, pos.SaleFilter{From: t0.Add(time.Hour), To: t0.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, saleIDs(window), "from inclusive, to exclusive")

	got.Quantity = 3
	require.NoError(t, s.UpdateSale(ctx, got))
	got, err = s.GetSale(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	assert.ErrorIs(t, s.UpdateSale(ctx, pos.Sale{ID: "nope", SaleDate: t0}), pos.ErrSaleNotFound)

	require.NoError(t, s.DeleteSale(ctx, "s2"))
	assert.ErrorIs(t, s.DeleteSale(ctx, "s2"), pos.ErrSaleNotFound)
	_, err = s.GetSale(ctx, "s2")
	assert.ErrorIs(t, err, pos.ErrSaleNotFound)
}

func saleIDs(sales []pos.Sale) []string {
	ids := make([]string, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}
	return ids
}

// =============================================================================
// SHORTAGES
// =============================================================================

func testShortages(t *testing.T, s pos.TxStore) {
	for i, id := range []string{"x1", "x2", "x3"} {
		require.NoError(t, s.CreateShortage(ctx, pos.Shortage{
			ID:           id,
			StaffName:    "Ada",
			Amount:       money("100.50"),
			ShortageDate: t0.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := s.ListShortages(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "x3", all[0].ID, "newest first")
	assert.True(t, all[0].Amount.Equal(money("100.5")))

	some, err := s.ListShortages(ctx, t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "x2", some[0].ID)

	require.NoError(t, s.DeleteShortage(ctx, "x1"))
	assert.ErrorIs(t, s.DeleteShortage(ctx, "x1"), pos.ErrShortageNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func testTxCommit(t *testing.T, s pos.TxStore) {
	err := s.WithTx(ctx, func(tx pos.Store) error {
		if err := tx.CreateItem(ctx, pos.Item{ID: "beer", Name: "Beer", UnitPrice: money("5")}); err != nil {
			return err
		}
		return tx.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 10})
	})
	require.NoError(t, err)

	_, err = s.GetItem(ctx, "beer")
	assert.NoError(t, err)
	level, err := s.GetStockLevel(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, 10, level.Quantity)
}

func testTxRollback(t *testing.T, s pos.TxStore) {
	// GIVEN: A counter at 10
	// WHEN: A transaction records a sale, decrements, then fails
	// THEN: Neither write is visible
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 10}))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx pos.Store) error {
		if err := tx.CreateSale(ctx, pos.Sale{ID: "s1", ItemID: "beer", Quantity: 4, UnitPrice: money("5"), SaleDate: t0}); err != nil {
			return err
		}
		level, err := tx.AdjustStock(ctx, "beer", -4)
		if err != nil {
			return err
		}
		if level.Quantity != 6 {
			return errors.New("transaction does not see its own write")
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetSale(ctx, "s1")
	assert.ErrorIs(t, err, pos.ErrSaleNotFound)
	level, err := s.GetStockLevel(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, 10, level.Quantity)
}
