package rows

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synergy-ops/synergy-ops/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the rows module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler constructs rows handler. guard is the auth middleware applied
// to every route.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers row routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.guard != nil {
		r.Use(h.guard)
	}
	r.Get("/", h.handleList)
	r.Put("/", h.handleBulkSave)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handlePatch)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	result, err := h.service.List(r.Context(), status)
	if err != nil {
		h.respondError(w, r, "list rows", err)
		return
	}
	if result == nil {
		result = []InventoryRow{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleBulkSave(w http.ResponseWriter, r *http.Request) {
	var snapshot []InventoryRow
	if err := httpx.DecodeJSON(r, &snapshot); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed row array")
		return
	}
	count, err := h.service.BulkSave(r.Context(), snapshot)
	if err != nil {
		h.respondError(w, r, "bulk save", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid row id")
		return
	}
	row, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get row", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid row id")
		return
	}
	var patch RowPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed patch body")
		return
	}
	row, err := h.service.Patch(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, "patch row", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid row id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, "delete row", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrRowNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidSynergyID), errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
