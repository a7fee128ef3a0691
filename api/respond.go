package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warp/taproom/pos"
)

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a domain error onto a status code and error body.
// Client errors are checked first: a ValidationError may wrap a
// not-found sentinel (recording a sale against an unknown item).
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	var stockErr *pos.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: stockErr.Error(),
			Code:  "insufficient_stock",
			Details: map[string]any{
				"itemId":    stockErr.ItemID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			},
		})
	case errors.Is(err, pos.ErrDuplicate):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "duplicate", Details: err.Error()})
	case errors.Is(err, pos.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
	case pos.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case pos.IsRetryable(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "Another change got there first, please retry", Code: "concurrent_modification",
		})
	default:
		h.Logger.Error(message, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: message + ", please retry", Code: "store_failure", Details: err.Error(),
		})
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// day reads ?date=, defaulting to today.
func (h *Handler) day(w http.ResponseWriter, r *http.Request) (pos.Day, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.Coord.Today(), true
	}
	day, err := pos.ParseDay(raw)
	if err != nil {
		h.fail(w, "Invalid date", err)
		return "", false
	}
	return day, true
}

// dayOrAll reads ?date=. "all" means no day; an empty value means today
// when defaultToday is set and no day otherwise.
func (h *Handler) dayOrAll(w http.ResponseWriter, r *http.Request, defaultToday bool) (*pos.Day, bool) {
	raw := r.URL.Query().Get("date")
	switch {
	case raw == "all", raw == "" && !defaultToday:
		return nil, true
	case raw == "":
		today := h.Coord.Today()
		return &today, true
	}
	day, err := pos.ParseDay(raw)
	if err != nil {
		h.fail(w, "Invalid date", err)
		return nil, false
	}
	return &day, true
}
