package pricing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synergy-ops/synergy-ops/internal/platform/httpx"
)

// Handler wires the pricing suggestion endpoint.
type Handler struct {
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler constructs pricing handler.
func NewHandler(service *Service, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, guard: guard}
}

// MountRoutes registers pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.guard != nil {
		r.Use(h.guard)
	}
	r.Get("/suggest", h.handleSuggest)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	reference, err := strconv.ParseFloat(r.URL.Query().Get("listPrice"), 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "listPrice must be a number")
		return
	}
	suggested, err := h.service.Suggest(reference, r.URL.Query().Get("grade"))
	if err != nil {
		if errors.Is(err, ErrUnknownGrade) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"suggested": suggested,
		"formatted": h.service.Format(suggested),
	})
}
