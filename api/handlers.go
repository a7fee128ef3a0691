/*
handlers.go - HTTP API handlers for the bar point-of-sale

PURPOSE:
  Exposes the Coordinator and the reconciliation reports via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Items:
    GET    /api/items                  List catalog (with stock on hand)
    POST   /api/items                  Create item and its stock counter
    GET    /api/items/{id}             Get item
    PUT    /api/items/{id}             Rename or reprice
    DELETE /api/items/{id}             Delete item, counter and sheets

  Stock:
    GET    /api/stock                  Running counters
    PUT    /api/stock/{itemID}         Manual count correction
    POST   /api/stock/{itemID}/restock Add delivered stock
    GET    /api/stock/daily?date=      Daily sheets (created on first read)
    PUT    /api/stock/daily/{itemID}   Set opening and/or closing count

  Sales:
    GET    /api/sales?date=            Sales of the day, oldest first
    POST   /api/sales                  Record a sale
    PUT    /api/sales/{id}             Edit a sale
    DELETE /api/sales/{id}             Delete a sale and restore stock

  Shortages:
    GET    /api/shortages?date=        Shortages of the day, newest first
    POST   /api/shortages              Log a shortage
    DELETE /api/shortages/{id}         Delete a shortage
    GET    /api/staff                  Shortage roster

  Reports:
    GET    /api/summary/sales?date=    Per-item sales
    GET    /api/summary/stock?date=    Stock reconciliation
    GET    /api/dashboard?date=        Full daily report
    GET    /api/live?date=             Daily report as Server-Sent Events

DATE PARAMETER:
  YYYY-MM-DD in the business time zone. Listing endpoints default to
  today; summaries default to all time. "all" always means all time.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, including "only N available"
  - 404: Document not found
  - 409: Duplicate or concurrent modification (retry)
  - 500: Store failure (retry)

SECURITY NOTE:
  No authentication. Put the service behind an authenticating proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/taproom/live"
	"github.com/warp/taproom/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coord  *pos.Coordinator
	Store  pos.TxStore
	Hub    *live.Hub
	Logger *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(coord *pos.Coordinator, store pos.TxStore, hub *live.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Coord: coord, Store: store, Hub: hub, Logger: logger}
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the catalog with the stock on hand of each item.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.Coord.ListItems(ctx)
	if err != nil {
		h.fail(w, "Failed to list items", err)
		return
	}
	levels, err := h.Coord.ListStockLevels(ctx)
	if err != nil {
		h.fail(w, "Failed to list stock", err)
		return
	}

	stock := make(map[string]int, len(levels))
	for _, l := range levels {
		stock[l.ItemID] = l.Quantity
	}
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = ItemDTO{Item: it}
		if q, ok := stock[it.ID]; ok {
			dtos[i].Stock = &q
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Coord.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, level, err := h.Coord.CreateItem(r.Context(), req.Name, req.UnitPrice, req.InitialQuantity)
	if err != nil {
		h.fail(w, "Failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, ItemDTO{Item: item, Stock: &level.Quantity})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.Coord.UpdateItem(r.Context(), chi.URLParam(r, "id"), req.Name, req.UnitPrice)
	if err != nil {
		h.fail(w, "Failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Coord.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Coord.ListStockLevels(r.Context())
	if err != nil {
		h.fail(w, "Failed to list stock", err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// SetStock overwrites a counter with a manual count.
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if !decode(w, r, &req) {
		return
	}
	level, err := h.Coord.SetStockQuantity(r.Context(), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		h.fail(w, "Failed to set stock", err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if !decode(w, r, &req) {
		return
	}
	level, err := h.Coord.Restock(r.Context(), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		h.fail(w, "Failed to restock", err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// GetDailyStock returns the day's sheets, creating missing ones.
func (h *Handler) GetDailyStock(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	sheets, err := h.Coord.DailyStock(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to load daily stock", err)
		return
	}
	writeJSON(w, http.StatusOK, DailyStockDTO{Date: day, Sheets: sheets})
}

// UpdateDailyStock sets the opening and/or closing count of one sheet.
func (h *Handler) UpdateDailyStock(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	var req DailyStockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Opening == nil && req.Closing == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update", errors.New("set openingStock and/or closingStock"))
		return
	}

	sheet, err := h.Coord.UpdateDailyStock(r.Context(), chi.URLParam(r, "itemID"), day, req.Opening, req.Closing)
	if err != nil {
		h.fail(w, "Failed to update daily stock", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayOrAll(w, r, true)
	if !ok {
		return
	}
	ctx := r.Context()
	sales, err := h.Coord.ListSales(ctx, day)
	if err != nil {
		h.fail(w, "Failed to list sales", err)
		return
	}
	items, err := h.Coord.ListItems(ctx)
	if err != nil {
		h.fail(w, "Failed to list items", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(items, sales))
}

func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !decode(w, r, &req) {
		return
	}
	sale, err := h.Coord.RecordSale(r.Context(), req.ItemID, req.Quantity)
	if err != nil {
		h.fail(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.saleDTO(r, sale))
}

func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !decode(w, r, &req) {
		return
	}
	sale, err := h.Coord.UpdateSale(r.Context(), chi.URLParam(r, "id"), req.ItemID, req.Quantity)
	if err != nil {
		h.fail(w, "Failed to update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, h.saleDTO(r, sale))
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	res, err := h.Coord.DeleteSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to delete sale", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteSaleDTO{
		Sale:     h.saleDTO(r, res.Sale),
		Restored: res.Restored,
		Stock:    res.Stock,
	})
}

func (h *Handler) saleDTO(r *http.Request, s pos.Sale) SaleDTO {
	item, err := h.Coord.GetItem(r.Context(), s.ItemID)
	return toSaleDTO(s, item, err == nil)
}

// =============================================================================
// SHORTAGE HANDLERS
// =============================================================================

func (h *Handler) ListShortages(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayOrAll(w, r, true)
	if !ok {
		return
	}
	shortages, err := h.Coord.ListShortages(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to list shortages", err)
		return
	}
	writeJSON(w, http.StatusOK, shortages)
}

func (h *Handler) LogShortage(w http.ResponseWriter, r *http.Request) {
	var req ShortageRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Coord.LogShortage(r.Context(), req.StaffName, req.Amount)
	if err != nil {
		h.fail(w, "Failed to log shortage", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) DeleteShortage(w http.ResponseWriter, r *http.Request) {
	if err := h.Coord.DeleteShortage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete shortage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"staff": h.Coord.Roster()})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayOrAll(w, r, false)
	if !ok {
		return
	}
	summary, err := h.Coord.SalesSummary(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to summarize sales", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) StockSummary(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayOrAll(w, r, false)
	if !ok {
		return
	}
	summary, err := h.Coord.StockSummary(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to summarize stock", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetDashboard returns the full daily report.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	report, err := h.Coord.DailyReport(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Live streams the daily report as Server-Sent Events: one "report"
// event on connect and another after every committed change.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	compute := func(ctx context.Context) (pos.DailyReport, error) {
		return h.Coord.DailyReport(ctx, day)
	}
	emit := func(report pos.DailyReport) error {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: report\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := live.Watch(r.Context(), h.Hub, compute, emit); err != nil {
		h.Logger.Warn("live stream ended", "date", day, "error", err)
	}
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRollover creates the daily sheets for a day now.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	sheets, err := h.Coord.DailyStock(r.Context(), day)
	if err != nil {
		h.fail(w, "Failed to roll over", err)
		return
	}
	writeJSON(w, http.StatusOK, RolloverDTO{Date: day, Sheets: len(sheets)})
}

// Health reports whether the service is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"date":        h.Coord.Today(),
		"subscribers": h.Hub.Subscribers(),
	})
}
