/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the till frontend

ROUTE GROUPS:
  /api/items/*       Catalog
  /api/stock/*       Counters and daily sheets
  /api/sales/*       Sale log
  /api/shortages/*   Cash shortages
  /api/summary/*     Reconciliation reports
  /api/dashboard     Daily report
  /api/live          Daily report stream (SSE)
  /api/scenarios/*   Demo data
  /api/admin/*       Admin operations

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// origins lists the allowed CORS origins; empty allows any.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.ListStock)
			r.Get("/daily", h.GetDailyStock)
			r.Put("/daily/{itemID}", h.UpdateDailyStock)
			r.Put("/{itemID}", h.SetStock)
			r.Post("/{itemID}/restock", h.Restock)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.RecordSale)
			r.Put("/{id}", h.UpdateSale)
			r.Delete("/{id}", h.DeleteSale)
		})

		r.Route("/shortages", func(r chi.Router) {
			r.Get("/", h.ListShortages)
			r.Post("/", h.LogShortage)
			r.Delete("/{id}", h.DeleteShortage)
		})
		r.Get("/staff", h.ListStaff)

		r.Route("/summary", func(r chi.Router) {
			r.Get("/sales", h.SalesSummary)
			r.Get("/stock", h.StockSummary)
		})
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/live", h.Live)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No such endpoint", nil)
	})

	return r
}
