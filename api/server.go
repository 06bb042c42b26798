/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/collections/{collection}/*   Record CRUD + audit trail + listing
  /api/enquiries/{id}/promote       Enquiry -> lead promotion
  /api/reports/*                    Balance and rollup reports
  /api/settings/target              Annual target persistence
  /api/health                       Liveness

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-Name", "X-Actor-Email"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Post("/records", h.UpsertRecord)
			r.Get("/records/{id}", h.GetRecord)
			r.Delete("/records/{id}", h.DeleteRecord)
			r.Get("/records/{id}/audit", h.AuditTrail)
			r.Get("/partitions/{partitionKey}/records", h.ListMonth)
		})

		r.Post("/enquiries/{id}/promote", h.PromoteEnquiry)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/balance", h.DailyBalance)
			r.Get("/rollup", h.PeriodRollup)
		})

		r.Put("/settings/target", h.SetTarget)
	})

	return r
}
