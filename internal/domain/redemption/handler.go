package redemption

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/errorhandler"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/validator"
)

// Handler handles redemption HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates redemption handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /redemptions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&body); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	req, err := h.svc.CreateRequest(r.Context(), body.ToParams(admin.GetAdminID(r.Context())))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, req)
}

// Transition handles PATCH /redemptions/{id}
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	var body TransitionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&body); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	req, err := h.svc.Transition(r.Context(), id, TransitionParams{
		Status:           Status(body.Status),
		FulfillmentNotes: body.FulfillmentNotes,
		ActorID:          admin.GetAdminID(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, req)
}

// List handles GET /redemptions
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{}
	fieldErrs := map[string]string{}

	if v := q.Get("status"); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			fieldErrs["status"] = "Invalid status"
		} else {
			f.Status = &st
		}
	}
	if v := q.Get("mason_id"); v != "" {
		if id, err := uuid.Parse(v); err != nil {
			fieldErrs["mason_id"] = "Invalid UUID"
		} else {
			f.MasonID = &id
		}
	}
	if v := q.Get("reward_id"); v != "" {
		if id, err := uuid.Parse(v); err != nil {
			fieldErrs["reward_id"] = "Invalid UUID"
		} else {
			f.RewardID = &id
		}
	}
	f.Limit, f.Offset = validator.Pagination(q, fieldErrs)
	if len(fieldErrs) > 0 {
		errorhandler.Validation(r.Context(), w, fieldErrs)
		return
	}

	reqs, total, err := h.svc.ListRequests(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.WithMeta(w, reqs, response.Meta{Total: total, Limit: f.Limit, Offset: f.Offset})
}

// GetByID handles GET /redemptions/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	req, err := h.svc.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, req)
}

// History handles GET /redemptions/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	changes, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, changes)
}

// MasonSummary handles GET /masons/{id}/summary
func (h *Handler) MasonSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid mason ID")
		return
	}

	sum, err := h.svc.MasonSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, sum)
}

func requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid redemption ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps workflow errors onto the response envelope
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var balanceErr *ledger.InsufficientBalanceError
	var transitionErr *InvalidTransitionError

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ledger.ErrValidation), errors.Is(err, catalog.ErrValidation):
		errorhandler.HandleError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
	case errors.Is(err, ErrRequestNotFound):
		response.NotFound(w, "Redemption request not found")
	case errors.Is(err, ErrRewardNotFound):
		response.NotFound(w, "Reward not found")
	case errors.Is(err, ErrMasonNotFound):
		response.NotFound(w, "Mason not found")
	case errors.Is(err, ErrInactiveReward):
		errorhandler.HandleError(ctx, w, http.StatusConflict, "REWARD_INACTIVE", "Reward is not active", err)
	case errors.As(err, &balanceErr):
		errorhandler.HandleErrorWithDetails(ctx, w, http.StatusConflict, "INSUFFICIENT_BALANCE", "Insufficient points balance",
			map[string]string{
				"balance":  strconv.FormatInt(balanceErr.Balance, 10),
				"required": strconv.FormatInt(balanceErr.Required, 10),
			}, err)
	case errors.Is(err, ErrInsufficientStock):
		errorhandler.HandleError(ctx, w, http.StatusConflict, "INSUFFICIENT_STOCK", "Insufficient reward stock", err)
	case errors.As(err, &transitionErr):
		errorhandler.HandleErrorWithDetails(ctx, w, http.StatusConflict, "INVALID_TRANSITION", transitionErr.Error(),
			map[string]string{
				"from": string(transitionErr.From),
				"to":   string(transitionErr.To),
			}, err)
	default:
		errorhandler.Internal(ctx, w, "redemption", err)
	}
}
