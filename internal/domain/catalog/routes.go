package catalog

import (
	"github.com/go-chi/chi/v5"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
)

// Routes returns /rewards routes. Authentication is applied by the parent router.
func (h *Handler) Routes(policy *admin.Policy) chi.Router {
	r := chi.NewRouter()

	view := admin.RequirePermission(policy, admin.PermViewCatalog)
	manage := admin.RequirePermission(policy, admin.PermManageCatalog)

	r.With(view).Get("/", h.List)
	r.With(manage).Post("/", h.Create)

	r.Route("/{id}", func(r chi.Router) {
		r.With(view).Get("/", h.GetByID)
		r.With(manage).Patch("/", h.Update)
		r.With(manage).Post("/restock", h.Restock)
	})

	return r
}
