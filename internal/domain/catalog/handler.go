package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/errorhandler"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/validator"
)

// Handler handles reward catalog HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates catalog handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /rewards
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{}

	if v := q.Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errorhandler.Validation(r.Context(), w, map[string]string{"category_id": "Invalid UUID"})
			return
		}
		f.CategoryID = &id
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			errorhandler.Validation(r.Context(), w, map[string]string{"active": "Must be true or false"})
			return
		}
		f.ActiveOnly = active
	}
	fieldErrs := map[string]string{}
	f.Limit, f.Offset = validator.Pagination(q, fieldErrs)
	if len(fieldErrs) > 0 {
		errorhandler.Validation(r.Context(), w, fieldErrs)
		return
	}

	items, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.WithMeta(w, items, response.Meta{Total: total, Limit: f.Limit, Offset: f.Offset})
}

// GetByID handles GET /rewards/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := rewardID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, item)
}

// Create handles POST /rewards
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	item, err := h.svc.Create(r.Context(), req.ToParams())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, item)
}

// Update handles PATCH /rewards/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := rewardID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	item, err := h.svc.Update(r.Context(), id, req.ToParams())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, item)
}

// Restock handles POST /rewards/{id}/restock
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	id, ok := rewardID(w, r)
	if !ok {
		return
	}

	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	item, err := h.svc.Restock(r.Context(), id, req.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, item)
}

func rewardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid reward ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRewardNotFound):
		response.NotFound(w, "Reward not found")
	case errors.Is(err, ErrValidation):
		errorhandler.HandleError(r.Context(), w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
	default:
		errorhandler.Internal(r.Context(), w, "catalog", err)
	}
}
