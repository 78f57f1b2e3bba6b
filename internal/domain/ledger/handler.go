package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/errorhandler"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/validator"
)

// Handler handles ledger HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates ledger handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Append handles POST /ledger/entries
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	var req AppendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	entry, err := h.svc.AppendEntry(r.Context(), req.ToParams())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, entry)
}

// List handles GET /ledger
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{}
	fieldErrs := map[string]string{}

	if v := q.Get("mason_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fieldErrs["mason_id"] = "Invalid UUID"
		} else {
			f.MasonID = &id
		}
	}
	if v := q.Get("source_type"); v != "" {
		if err := validator.ValidateVar(v, "source_type"); err != nil {
			fieldErrs["source_type"] = "Invalid source type"
		} else {
			st := SourceType(v)
			f.SourceType = &st
		}
	}
	if v := q.Get("source_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fieldErrs["source_id"] = "Invalid UUID"
		} else {
			f.SourceID = &id
		}
	}
	if v := q.Get("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			fieldErrs["from"] = "Invalid date"
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			fieldErrs["to"] = "Invalid date"
		}
		f.To = t
	}
	f.Limit, f.Offset = validator.Pagination(q, fieldErrs)
	if len(fieldErrs) > 0 {
		errorhandler.Validation(r.Context(), w, fieldErrs)
		return
	}

	entries, total, err := h.svc.ListEntries(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.WithMeta(w, entries, response.Meta{Total: total, Limit: f.Limit, Offset: f.Offset})
}

// MasonPoints handles GET /masons/{id}/points
func (h *Handler) MasonPoints(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid mason ID")
		return
	}

	fieldErrs := map[string]string{}
	limit, offset := validator.Pagination(r.URL.Query(), fieldErrs)
	if len(fieldErrs) > 0 {
		errorhandler.Validation(r.Context(), w, fieldErrs)
		return
	}

	points, err := h.svc.GetMasonPoints(r.Context(), id, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, points)
}

// Reconcile handles GET /masons/{id}/points/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid mason ID")
		return
	}

	rec, err := h.svc.Reconcile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, rec)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMasonNotFound):
		response.NotFound(w, "Mason not found")
	case errors.Is(err, ErrValidation):
		errorhandler.HandleError(r.Context(), w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
	default:
		errorhandler.Internal(r.Context(), w, "ledger", err)
	}
}
