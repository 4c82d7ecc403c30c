package auditloghttp

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes mendaftarkan endpoint audit log di bawah /api/admin/logs.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/api/admin/logs", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/statistics", h.handleStatistics)
		r.Get("/ip-locations", h.handleIPLocations)
		r.Get("/export", h.handleExport)
		r.Get("/{id}", h.handleDetail)
	})
}
