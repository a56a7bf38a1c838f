/*
server.go - HTTP router configuration

PURPOSE:
  Wires the handler methods onto a chi router with standard middleware
  (request IDs, logging, panic recovery, CORS).

SEE ALSO:
  - handlers.go: Endpoint implementations
  - cmd/server/main.go: Server startup and shutdown
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the API routing table over the given handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.CreateProject)
			r.Get("/{id}/revenue", h.GetProjectRevenue)
			r.Post("/{id}/settlements", h.GenerateSettlement)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Post("/import", h.ImportAssets)
			r.Put("/{id}", h.UpdateAsset)
		})

		r.Route("/harvesting", func(r chi.Router) {
			r.Post("/", h.CreateHarvesting)
			r.Get("/{id}", h.GetHarvesting)
			r.Post("/{id}/items", h.AddHarvestingItem)
			r.Post("/{id}/allocate", h.AllocateCosts)
			r.Post("/{id}/complete", h.CompleteHarvesting)
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Get("/{id}", h.GetSettlement)
			r.Post("/{id}/approve", h.ApproveSettlement)
			r.Post("/{id}/pay", h.PaySettlement)
		})

		r.Route("/esg", func(r chi.Router) {
			r.Post("/assets/{id}/events", h.TrackAssetEvent)
			r.Post("/components/{id}/events", h.TrackComponentEvent)
			r.Get("/reports/summary", h.GetSummaryReport)
			r.Get("/reports/gri", h.GetGRIReport)
			r.Get("/reports/weee", h.GetWEEEReport)
			r.Get("/metrics/circularity", h.GetCircularityMetrics)
		})

		r.Route("/reference", func(r chi.Router) {
			r.Post("/waste-categories", h.CreateWasteCategory)
			r.Get("/waste-categories", h.ListWasteCategories)
			r.Post("/recovery-methods", h.CreateRecoveryMethod)
			r.Get("/recovery-methods", h.ListRecoveryMethods)
		})
	})

	return r
}
