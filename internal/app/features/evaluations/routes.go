// internal/app/features/evaluations/routes.go
package evaluations

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /evaluations.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/state", h.ServeState)
		r.Post("/state/fix", h.ServeFixState)
		r.Get("/visibility", h.ServeVisibility)
		r.Get("/report", h.ServeReport)
	})
	return r
}
