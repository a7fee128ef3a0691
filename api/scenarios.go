/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with a realistic
  bar for demos and manual testing. Every write goes through the
  Coordinator, so the loaded data obeys the same stock invariants as
  live traffic.

AVAILABLE SCENARIOS:
  opening-night: Stocked catalog, nothing sold yet
  busy-night:    Yesterday closed with counts and a discrepancy,
                 today has sales and a cash shortage
  last-bottles:  Items down to their final units, one sold out

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create the catalog with opening stock
 3. Record history with a Coordinator clone pinned to a past clock
 4. Record today's activity with the live Coordinator

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "busy-night"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - pos/coordinator.go: Clone, WithClock
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/taproom/pos"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "opening-night",
		Name:        "Opening Night",
		Description: "Stocked catalog, nothing sold yet",
	},
	{
		ID:          "busy-night",
		Name:        "Busy Night",
		Description: "Yesterday closed with a stock discrepancy; today has sales and a cash shortage",
	},
	{
		ID:          "last-bottles",
		Name:        "Last Bottles",
		Description: "Items down to their final units, one already sold out",
	},
}

// Resetter is implemented by stores that can drop all their data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Load(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.fail(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

var errUnknownScenario = errors.New("unknown scenario")

// Load resets the store and loads the scenario with the given ID.
func (h *Handler) Load(ctx context.Context, id string) error {
	loaders := map[string]func(context.Context) error{
		"opening-night": h.loadOpeningNight,
		"busy-night":    h.loadBusyNight,
		"last-bottles":  h.loadLastBottles,
	}
	load, ok := loaders[id]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownScenario, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	resetter, ok := h.Store.(Resetter)
	if !ok {
		return errors.New("store does not support reset")
	}
	if err := resetter.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := load(ctx); err != nil {
		return err
	}

	h.currentScenario = id
	h.Logger.Info("scenario loaded", "scenario", id)
	return nil
}

// =============================================================================
// LOADERS
// =============================================================================

type demoItem struct {
	name  string
	price string
	stock int
}

var barCatalog = []demoItem{
	{"Star Lager", "700", 48},
	{"Guinness Foreign Extra", "900", 36},
	{"Malta Guinness", "500", 24},
	{"Chapman", "1500", 20},
	{"Bottled Water", "300", 60},
}

func (h *Handler) createCatalog(ctx context.Context, catalog []demoItem) (map[string]pos.Item, error) {
	byName := make(map[string]pos.Item, len(catalog))
	for _, d := range catalog {
		item, _, err := h.Coord.CreateItem(ctx, d.name, decimal.RequireFromString(d.price), d.stock)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", d.name, err)
		}
		byName[d.name] = item
	}
	return byName, nil
}

type demoSale struct {
	item string
	qty  int
}

func recordSales(ctx context.Context, c *pos.Coordinator, items map[string]pos.Item, sales []demoSale) error {
	for _, s := range sales {
		if _, err := c.RecordSale(ctx, items[s.item].ID, s.qty); err != nil {
			return fmt.Errorf("sell %d %s: %w", s.qty, s.item, err)
		}
	}
	return nil
}

func (h *Handler) loadOpeningNight(ctx context.Context) error {
	if _, err := h.createCatalog(ctx, barCatalog); err != nil {
		return err
	}
	_, err := h.Coord.DailyStock(ctx, h.Coord.Today())
	return err
}

func (h *Handler) loadBusyNight(ctx context.Context) error {
	items, err := h.createCatalog(ctx, barCatalog)
	if err != nil {
		return err
	}

	loc := h.Coord.Location()
	today := h.Coord.Today()
	yesterday := today.Prev()

	// Yesterday: sheets seeded from the counters, an evening of sales,
	// closing counts with one bottle of Guinness missing.
	if _, err := h.Coord.DailyStock(ctx, yesterday); err != nil {
		return err
	}
	evening := yesterday.Start(loc).Add(21 * time.Hour)
	past := h.Coord.Clone(pos.WithClock(func() time.Time { return evening }))
	if err := recordSales(ctx, past, items, []demoSale{
		{"Star Lager", 6},
		{"Guinness Foreign Extra", 4},
		{"Chapman", 2},
		{"Star Lager", 3},
	}); err != nil {
		return err
	}
	closing := map[string]int{
		"Star Lager":             48 - 9,
		"Guinness Foreign Extra": 36 - 4 - 1,
		"Malta Guinness":         24,
		"Chapman":                20 - 2,
		"Bottled Water":          60,
	}
	for name, n := range closing {
		if _, err := h.Coord.SetClosingStock(ctx, items[name].ID, yesterday, n); err != nil {
			return err
		}
	}

	// Today: rollover, then the till is open.
	if _, err := h.Coord.DailyStock(ctx, today); err != nil {
		return err
	}
	if err := recordSales(ctx, h.Coord, items, []demoSale{
		{"Star Lager", 5},
		{"Bottled Water", 4},
		{"Malta Guinness", 2},
		{"Star Lager", 2},
	}); err != nil {
		return err
	}
	if len(h.Coord.Roster()) > 0 {
		if _, err := h.Coord.LogShortage(ctx, h.Coord.Roster()[0], decimal.NewFromInt(1200)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLastBottles(ctx context.Context) error {
	items, err := h.createCatalog(ctx, []demoItem{
		{"Hennessy VS (shot)", "2500", 3},
		{"Smirnoff Ice", "800", 2},
		{"Heineken", "900", 6},
	})
	if err != nil {
		return err
	}
	if _, err := h.Coord.DailyStock(ctx, h.Coord.Today()); err != nil {
		return err
	}
	return recordSales(ctx, h.Coord, items, []demoSale{
		{"Smirnoff Ice", 2},
		{"Heineken", 5},
		{"Hennessy VS (shot)", 1},
	})
}
