package web

import (
	"net/http"
	"strconv"
	"time"

	"voluntrip/internal/domain/outbox"
)

// Development-only endpoints. registerRoutes leaves them out in production.

// handleDebugPerf handles GET /debug/perf?window=15m&top=10.
func handleDebugPerf(w http.ResponseWriter, r *http.Request) {
	window := 15 * time.Minute
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			jsonError(w, http.StatusBadRequest, "window must be a positive duration, e.g. 15m")
			return
		}
		window = d
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			top = n
		}
	}
	if perfCollector == nil {
		jsonError(w, http.StatusServiceUnavailable, "perf collector disabled")
		return
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-window), top))
}

// outboxEntryJSON is an outbox entry without its payload, which holds
// visitor addresses and message bodies.
type outboxEntryJSON struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"actionType"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"maxAttempts"`
	LastAttemptedAt time.Time `json:"lastAttemptedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	ExternalID      string    `json:"externalId,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

// handleDebugOutbox handles GET /debug/outbox?status=failed|pending&limit=50.
func handleDebugOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var entries []outbox.Entry
	var err error
	switch r.URL.Query().Get("status") {
	case "", outbox.StatusFailed:
		entries, err = stores.OutboxStore.ListFailed(ctx, limit)
	case outbox.StatusPending:
		entries, err = stores.OutboxStore.ListPending(ctx, limit)
	default:
		jsonError(w, http.StatusBadRequest, "status must be failed or pending")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.OutboxStore.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]outboxEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, outboxEntryJSON{
			ID:              e.ID,
			ActionType:      e.ActionType,
			Status:          e.Status,
			Attempts:        e.Attempts,
			MaxAttempts:     e.MaxAttempts,
			LastAttemptedAt: e.LastAttemptedAt,
			CreatedAt:       e.CreatedAt,
			ExternalID:      e.ExternalID,
			ErrorMessage:    e.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts, "entries": out})
}

// handleDebugOutboxAction handles POST /debug/outbox/{id}/{action} where
// action is retry (deliver now, ignoring backoff) or abandon.
func handleDebugOutboxAction(w http.ResponseWriter, r *http.Request) {
	if services.Outbox == nil {
		jsonError(w, http.StatusServiceUnavailable, "outbox processor not running")
		return
	}
	ctx := r.Context()
	entryID := r.PathValue("id")

	switch r.PathValue("action") {
	case "retry":
		if err := services.Outbox.ProcessSingle(ctx, entryID); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})

	case "abandon":
		if err := services.Outbox.AbandonEntry(ctx, entryID); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})

	default:
		jsonError(w, http.StatusBadRequest, "unknown action")
	}
}
