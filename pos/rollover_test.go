package pos_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/pos"
)

func TestRollover_OpeningFromPreviousSheet(t *testing.T) {
	// GIVEN: Monday opened at 20 and sold 5
	// WHEN: Tuesday's sheets are first read
	// THEN: Tuesday opens at 15
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 20)
	monday := f.coord.Today()

	sheets, err := f.coord.DailyStock(f.ctx, monday)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 20, sheets[0].Opening)

	_, err = f.coord.RecordSale(f.ctx, lager.ID, 5)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	tuesday := f.coord.Today()
	require.Equal(t, monday.AddDays(1), tuesday)

	sheets, err = f.coord.DailyStock(f.ctx, tuesday)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 15, sheets[0].Opening)
	assert.Nil(t, sheets[0].Closing)
}

func TestRollover_OpeningFromCounter(t *testing.T) {
	// GIVEN: No sheet yesterday, 10 stocked, 3 already sold today
	// WHEN: Today's sheets are first read
	// THEN: Today opens at 10, what was on hand before the first sale
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 10)
	_, err := f.coord.RecordSale(f.ctx, lager.ID, 3)
	require.NoError(t, err)

	sheets, err := f.coord.DailyStock(f.ctx, f.coord.Today())

	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 10, sheets[0].Opening)
}

func TestRollover_OpeningNeverNegative(t *testing.T) {
	// GIVEN: Yesterday's opening corrected down to 2, then 5 sold
	// THEN: Today opens at 0, not -3
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 10)
	yesterday := f.coord.Today().Prev()

	_, err := f.coord.SetOpeningStock(f.ctx, lager.ID, yesterday, 2)
	require.NoError(t, err)
	past := f.coord.Clone(pos.WithClock(func() time.Time { return f.clock.Now().Add(-24 * time.Hour) }))
	_, err = past.RecordSale(f.ctx, lager.ID, 5)
	require.NoError(t, err)

	sheets, err := f.coord.DailyStock(f.ctx, f.coord.Today())

	require.NoError(t, err)
	assert.Equal(t, 0, sheets[0].Opening)
}

func TestRollover_Idempotent(t *testing.T) {
	f := newTestCoordinator(t)
	f.item(t, "Beer", "5", 10)
	f.item(t, "Wine", "8", 4)
	today := f.coord.Today()

	first, err := f.coord.EnsureDay(f.ctx, today)
	require.NoError(t, err)
	second, err := f.coord.EnsureDay(f.ctx, today)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestRollover_ConcurrentInitializers(t *testing.T) {
	// GIVEN: Several readers asking for a new day at once
	// THEN: Each item ends up with exactly one sheet
	f := newTestCoordinator(t)
	for _, name := range []string{"Beer", "Wine", "Water", "Gin"} {
		f.item(t, name, "2", 5)
	}
	today := f.coord.Today()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.DailyStock(f.ctx, today)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sheets, err := f.store.ListDailyStock(f.ctx, today)
	require.NoError(t, err)
	assert.Len(t, sheets, 4)
}

func TestRollover_NewItemGetsSheet(t *testing.T) {
	f := newTestCoordinator(t)
	f.item(t, "Beer", "5", 10)
	today := f.coord.Today()
	_, err := f.coord.DailyStock(f.ctx, today)
	require.NoError(t, err)

	f.item(t, "Wine", "8", 4)
	sheets, err := f.coord.DailyStock(f.ctx, today)

	require.NoError(t, err)
	assert.Len(t, sheets, 2)
}

func TestRollover_ClosingCountShowsDiscrepancy(t *testing.T) {
	// GIVEN: Opened at 20, sold 5, counted 14
	// THEN: Expected 15, discrepancy -1
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 20)
	today := f.coord.Today()
	_, err := f.coord.RecordSale(f.ctx, lager.ID, 5)
	require.NoError(t, err)

	sheet, err := f.coord.SetClosingStock(f.ctx, lager.ID, today, 14)
	require.NoError(t, err)
	require.NotNil(t, sheet.Closing)
	assert.Equal(t, 14, *sheet.Closing)

	summary, err := f.coord.StockSummary(f.ctx, &today)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 20, summary[0].Opening)
	assert.Equal(t, 15, summary[0].Expected)
	require.NotNil(t, summary[0].Discrepancy)
	assert.Equal(t, -1, *summary[0].Discrepancy)
}

func TestRollover_SheetUpdatesValidate(t *testing.T) {
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 20)
	today := f.coord.Today()

	_, err := f.coord.SetClosingStock(f.ctx, lager.ID, today, -1)
	assert.ErrorIs(t, err, pos.ErrValidation)

	_, err = f.coord.SetOpeningStock(f.ctx, "nope", today, 3)
	assert.ErrorIs(t, err, pos.ErrItemNotFound)

	sheet, err := f.coord.SetOpeningStock(f.ctx, lager.ID, today, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, sheet.Opening)
	assert.Equal(t, 20, f.stock(t, lager.ID), "sheets never touch the counter")
}

func TestRollover_UpdateDailyStock_AllOrNothing(t *testing.T) {
	// GIVEN: Beer opened at 10
	// WHEN: Setting opening 99 and closing -1 together
	// THEN: Rejected as validation, and the opening is still 10
	f := newTestCoordinator(t)
	lager := f.item(t, "Beer", "5", 10)
	today := f.coord.Today()
	_, err := f.coord.DailyStock(f.ctx, today)
	require.NoError(t, err)
	opening, badClosing := 99, -1

	_, err = f.coord.UpdateDailyStock(f.ctx, lager.ID, today, &opening, &badClosing)

	assert.ErrorIs(t, err, pos.ErrValidation)
	sheet, err := f.store.GetDailyStock(f.ctx, lager.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 10, sheet.Opening)
	assert.Nil(t, sheet.Closing)

	closing := 8
	sheet, err = f.coord.UpdateDailyStock(f.ctx, lager.ID, today, &opening, &closing)
	require.NoError(t, err)
	assert.Equal(t, 99, sheet.Opening)
	require.NotNil(t, sheet.Closing)
	assert.Equal(t, 8, *sheet.Closing)

	_, err = f.coord.UpdateDailyStock(f.ctx, lager.ID, today, nil, nil)
	assert.ErrorIs(t, err, pos.ErrValidation)
}
