package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synergy-ops/synergy-ops/internal/platform/httpx"
	"github.com/synergy-ops/synergy-ops/internal/shared"
)

// Handler wires HTTP endpoints for the chat module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler constructs chat handler.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers chat routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.guard != nil {
		r.Use(h.guard)
	}
	r.Get("/{thread}", h.handleList)
	r.Post("/{thread}", h.handlePost)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := h.service.ListThread(r.Context(), chi.URLParam(r, "thread"), limit)
	if err != nil {
		h.respondError(w, "list thread", err)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	httpx.JSON(w, http.StatusOK, msgs)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var input MessageInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed message body")
		return
	}
	authorID := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		authorID = sess.User()
	}
	msg, err := h.service.Post(r.Context(), chi.URLParam(r, "thread"), authorID, input)
	if err != nil {
		h.respondError(w, "post message", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrEmptyThread) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
