package live

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler serves the Server-Sent-Events endpoint.
type Handler struct {
	logger    *slog.Logger
	bus       *Bus
	heartbeat time.Duration
}

// NewHandler constructs the live events handler.
func NewHandler(logger *slog.Logger, bus *Bus, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{logger: logger, bus: bus, heartbeat: heartbeat}
}

// MountRoutes registers the events route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// user_id is best-effort identity for log correlation; its absence is
	// tolerated.
	userID := r.URL.Query().Get("user_id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	events, stop := h.bus.Subscribe(ctx)
	defer stop()

	h.logger.Info("live: stream opened", slog.String("user_id", userID))
	defer h.logger.Info("live: stream closed", slog.String("user_id", userID))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, open := <-events:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, evt.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
