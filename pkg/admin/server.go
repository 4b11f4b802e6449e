package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/history"
	"github.com/clinicbook/notify/pkg/logger"
	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/notification"
)

// Handler is the operator HTTP surface over the queue, the history ledger
// and the feed retention job. It carries no authentication; the platform
// gateway fronts it.
type Handler struct {
	queue         mailqueue.Storage
	history       history.Storage
	notifications notification.Storage
	logger        *slog.Logger
}

// Option configures the admin handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.logger = log
		}
	}
}

// NewHandler creates the admin handler.
func NewHandler(queue mailqueue.Storage, hist history.Storage, notifications notification.Storage, opts ...Option) *Handler {
	h := &Handler{
		queue:         queue,
		history:       hist,
		notifications: notifications,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi router for the admin surface.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/queue", func(r chi.Router) {
		r.Get("/jobs", h.listJobs)
		r.Get("/stats", h.queueStats)
		r.Post("/jobs/{id}/retry", h.retryJob)
		r.Post("/jobs/{id}/cancel", h.cancelJob)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.listHistory)
		r.Get("/stats", h.historyStats)
	})

	r.Post("/cleanup", h.cleanup)

	return r
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	status := mailqueue.Status(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	jobs, err := h.queue.List(r.Context(), status, limit, offset)
	if err != nil {
		if errors.Is(err, mailqueue.ErrInvalidStatus) {
			h.respondError(w, r, http.StatusBadRequest, err)
			return
		}
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) queueStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queue.CountByStatus(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{"counts": counts})
}

func (h *Handler) retryJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := h.queue.Retry(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, mailqueue.ErrJobNotFound):
			h.respondError(w, r, http.StatusNotFound, err)
		case errors.Is(err, mailqueue.ErrInvalidTransition):
			h.respondError(w, r, http.StatusConflict, err)
		default:
			h.respondError(w, r, http.StatusInternalServerError, err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "job manually re-queued", logger.JobID(id))
	h.respondJSON(w, r, http.StatusOK, map[string]any{"status": mailqueue.StatusPending})
}

func (h *Handler) cancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Reason == "" {
		body.Reason = "Cancelled by operator"
	}

	if err := h.queue.Cancel(r.Context(), id, body.Reason); err != nil {
		switch {
		case errors.Is(err, mailqueue.ErrJobNotFound):
			h.respondError(w, r, http.StatusNotFound, err)
		case errors.Is(err, mailqueue.ErrInvalidTransition):
			h.respondError(w, r, http.StatusConflict, err)
		default:
			h.respondError(w, r, http.StatusInternalServerError, err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "job manually cancelled",
		logger.JobID(id), slog.String("reason", body.Reason))
	h.respondJSON(w, r, http.StatusOK, map[string]any{"status": mailqueue.StatusCancelled})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	opts := history.ListOptions{
		Type:   r.URL.Query().Get("type"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, err)
			return
		}
		opts.UserID = id
	}
	var err error
	if opts.From, err = queryTime(r, "from"); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if opts.To, err = queryTime(r, "to"); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	entries, err := h.history.List(r.Context(), opts)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"entries": entries,
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}

func (h *Handler) historyStats(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	counts, err := h.history.CountByType(r.Context(), from, to)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{"counts": counts})
}

// cleanup prunes terminal queue jobs, old history entries and old feed
// notifications created before now minus the retention period.
func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "older_than_days", 90)
	if days <= 0 {
		h.respondError(w, r, http.StatusBadRequest, errors.New("older_than_days must be positive"))
		return
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	jobs, err := h.queue.DeleteTerminalOlderThan(r.Context(), cutoff)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	entries, err := h.history.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	notifs, err := h.notifications.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	h.logger.InfoContext(r.Context(), "retention cleanup completed",
		slog.Int64("queue_jobs", jobs),
		slog.Int64("history_entries", entries),
		slog.Int64("notifications", notifs),
		slog.Time("cutoff", cutoff))

	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"queue_jobs":    jobs,
		"history":       entries,
		"notifications": notifs,
		"cutoff":        cutoff,
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "admin request failed", logger.Error(err))
	}
	h.respondJSON(w, r, status, map[string]any{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
