package ledger

import (
	"github.com/go-chi/chi/v5"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
)

// Routes returns /ledger routes. Authentication is applied by the parent router.
func (h *Handler) Routes(policy *admin.Policy) chi.Router {
	r := chi.NewRouter()

	r.With(admin.RequirePermission(policy, admin.PermViewLedger)).Get("/", h.List)
	r.With(admin.RequirePermission(policy, admin.PermWriteLedger)).Post("/entries", h.Append)

	return r
}

// MasonRoutes registers the per-mason ledger views under /masons/{id}
func (h *Handler) MasonRoutes(r chi.Router, policy *admin.Policy) {
	r.With(admin.RequirePermission(policy, admin.PermViewLedger)).Get("/points", h.MasonPoints)
	r.With(admin.RequirePermission(policy, admin.PermReconcileLedger)).Get("/points/reconcile", h.Reconcile)
}
