package redemption

import (
	"github.com/go-chi/chi/v5"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
)

// Routes returns /redemptions routes. Authentication is applied by the parent router.
func (h *Handler) Routes(policy *admin.Policy) chi.Router {
	r := chi.NewRouter()

	view := admin.RequirePermission(policy, admin.PermViewRedemptions)

	r.With(view).Get("/", h.List)
	r.With(admin.RequirePermission(policy, admin.PermCreateRedemptions)).Post("/", h.Create)

	r.Route("/{id}", func(r chi.Router) {
		r.With(view).Get("/", h.GetByID)
		r.With(view).Get("/history", h.History)
		r.With(admin.RequirePermission(policy, admin.PermTransitionRedemptions)).Patch("/", h.Transition)
	})

	return r
}

// MasonRoutes registers the per-mason redemption views under /masons/{id}
func (h *Handler) MasonRoutes(r chi.Router, policy *admin.Policy) {
	r.With(admin.RequirePermission(policy, admin.PermViewLedger)).Get("/summary", h.MasonSummary)
}
