/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the portal frontend

ROUTE GROUPS:
  /api/projects/*    Inventory browse and edit
  /api/properties/*  Lifecycle transitions (sell, reopen)
  /api/balances/*    Ledger reads and payment application
  /api/payments      Payment record audit trail
  /api/clients       Client rows
  /api/documents     Document rows
  /api/scenarios/*   Demo seed (dev only)

SECURITY NOTE:
  No authentication middleware. Session handling belongs to the portal
  shell around this core.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Inventory routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Route("/{project}", func(r chi.Router) {
				r.Get("/properties", h.ListProperties)
				r.Get("/properties/{block}/{lot}", h.GetProperty)
				r.Put("/properties/{block}/{lot}", h.UpdateProperty)
			})
		})

		// Lifecycle routes
		r.Route("/properties", func(r chi.Router) {
			r.Post("/sell", h.SellProperty)
			r.Post("/reopen", h.ReopenProperty)
		})

		// Ledger routes
		r.Route("/balances", func(r chi.Router) {
			r.Get("/", h.ListBalances)
			r.Post("/payments", h.ApplyPayment)
			r.Get("/{project}/{block}/{lot}", h.GetBalance)
			r.Get("/{project}/{block}/{lot}/complete", h.GetCompletion)
		})

		// Audit / reference routes
		r.Get("/payments", h.ListPayments)
		r.Get("/clients", h.ListClients)
		r.Get("/documents", h.ListDocuments)

		// Scenario routes (dev/demo)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
