/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario loads through the Coordinator against a real
	SQL store and leaves the bar in the state its description promises.
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/live"
	"github.com/warp/taproom/logger"
	"github.com/warp/taproom/pos"
	"github.com/warp/taproom/store/badgerdb"
	"github.com/warp/taproom/store/sqlstore"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := sqlstore.Open(sqlstore.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, time.March, 10, 19, 30, 0, 0, time.UTC)
	log := logger.Discard().Logger
	coord := pos.NewCoordinator(db,
		pos.WithClock(func() time.Time { return now }),
		pos.WithLocation(time.UTC),
		pos.WithLogger(log),
		pos.WithRoster([]string{"Ada", "Bayo"}),
	)
	return NewHandler(coord, db, live.NewHub(), log)
}

func TestScenario_OpeningNight(t *testing.T) {
	// GIVEN: Opening night scenario
	// WHEN: Loading the scenario
	// THEN: Catalog stocked, today's sheets open at full stock, no sales
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Load(ctx, "opening-night"))

	items, err := h.Coord.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(barCatalog))

	sheets, err := h.Store.ListDailyStock(ctx, h.Coord.Today())
	require.NoError(t, err)
	assert.Len(t, sheets, len(barCatalog))

	sales, err := h.Coord.ListSales(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestScenario_BusyNight(t *testing.T) {
	// GIVEN: Busy night scenario
	// WHEN: Loading the scenario
	// THEN: Yesterday shows the missing Guinness, today opens from
	//       yesterday's expected stock and has sales and a shortage
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Load(ctx, "busy-night"))

	today := h.Coord.Today()
	yesterday := today.Prev()

	prev, err := h.Coord.DailyReport(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, 15, prev.Dashboard.TotalItemsSold)
	assert.Equal(t, -1, prev.TotalDiscrepancy)

	report, err := h.Coord.DailyReport(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 13, report.Dashboard.TotalItemsSold)
	require.NotNil(t, report.Dashboard.BestSeller)
	assert.Equal(t, "Star Lager", report.Dashboard.BestSeller.Name)
	require.Len(t, report.Shortages, 1)
	assert.Equal(t, "Ada", report.Shortages[0].StaffName)

	for _, s := range report.Stock {
		if s.Name == "Star Lager" {
			assert.Equal(t, 39, s.Opening, "48 stocked minus 9 sold yesterday")
			assert.Equal(t, 32, s.Expected)
		}
	}
}

func TestScenario_LastBottles(t *testing.T) {
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Load(ctx, "last-bottles"))

	levels, err := h.Coord.ListStockLevels(ctx)
	require.NoError(t, err)
	soldOut := 0
	for _, l := range levels {
		if l.Quantity == 0 {
			soldOut++
		}
	}
	assert.Equal(t, 1, soldOut)
}

func TestScenario_ReloadReplacesData(t *testing.T) {
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Load(ctx, "busy-night"))
	require.NoError(t, h.Load(ctx, "opening-night"))

	sales, err := h.Coord.ListSales(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, sales)
	shortages, err := h.Coord.ListShortages(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, shortages)
}

func TestScenario_AllScenariosLoadOnBadger(t *testing.T) {
	// GIVEN: All available scenarios
	// WHEN: Loading each one on the badger store
	// THEN: None should error
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			db, err := badgerdb.Open("")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			coord := pos.NewCoordinator(db, pos.WithLocation(time.UTC), pos.WithLogger(logger.Discard().Logger))
			h := NewHandler(coord, db, live.NewHub(), logger.Discard().Logger)

			assert.NoError(t, h.Load(context.Background(), sc.ID))
		})
	}
}

func TestScenario_HTTP(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))

	rec = a.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "no-such"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "last-bottles"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "last-bottles", decodeBody[ScenarioDTO](t, rec).ID)
}
