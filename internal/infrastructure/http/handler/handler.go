// Package handler adapts HTTP requests to finance service calls.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/cashflow/internal/application/finance"
)

// FinanceHandler serves the item, recurrence and projection endpoints.
type FinanceHandler struct {
	service *finance.Service
	now     func() time.Time
}

// NewFinanceHandler creates a new HTTP API handler.
func NewFinanceHandler(service *finance.Service) *FinanceHandler {
	return &FinanceHandler{
		service: service,
		now:     time.Now,
	}
}

// NewRouter mounts every API route on a fresh router.
// Both production code and tests use it so routing is identical.
func NewRouter(service *finance.Service) http.Handler {
	h := NewFinanceHandler(service)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/recurrence/preview", h.Preview)
		r.Post("/recurrence/next-due", h.NextDue)

		r.Get("/projection", h.Projection)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetItem)
				r.Put("/", h.UpdateItem)
				r.Patch("/", h.UpdateItem)
				r.Delete("/", h.DeleteItem)

				r.Get("/occurrences", h.ItemOccurrences)
				r.Get("/next-due", h.ItemNextDue)
				r.Get("/calendar.ics", h.ItemCalendar)
			})
		})
	})
	return r
}
