package purchaseorders

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/synergy-ops/synergy-ops/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the purchase orders module.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	enqueue      func(r *http.Request, id uuid.UUID) error
	managerGuard func(http.Handler) http.Handler
}

// NewHandler constructs purchase orders handler. enqueue may be nil; then
// explode always runs inline.
func NewHandler(logger *slog.Logger, service *Service, enqueue func(r *http.Request, id uuid.UUID) error, managerGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, enqueue: enqueue, managerGuard: managerGuard}
}

// MountRoutes registers purchase order routes. All manager-only.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.managerGuard != nil {
		r.Use(h.managerGuard)
	}
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/explode", h.handleExplode)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list purchase orders", err)
		return
	}
	if result == nil {
		result = []PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input POInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed purchase order body")
		return
	}
	po, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) handleExplode(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	if h.enqueue != nil && r.URL.Query().Get("async") == "1" {
		if err := h.enqueue(r, id); err != nil {
			h.respondError(w, "enqueue explode", err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	count, err := h.service.Explode(r.Context(), id)
	if err != nil {
		h.respondError(w, "explode purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrPONotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyExploded):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, ErrPrefixMissing):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
