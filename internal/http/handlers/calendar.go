package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/duneview/booking-assistant/internal/calendar"
	"github.com/duneview/booking-assistant/pkg/logging"
)

// Feeds for a single property stay small; this bound is generous.
const maxFeedBytes = 4 << 20

// CalendarHandler exposes the booked-dates store: health and feed refresh.
type CalendarHandler struct {
	store  *calendar.Store
	logger *logging.Logger
}

// NewCalendarHandler creates the handler.
func NewCalendarHandler(store *calendar.Store, logger *logging.Logger) *CalendarHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarHandler{store: store, logger: logger}
}

// HealthCheck reports process liveness and whether a calendar snapshot has
// been loaded yet.
func (h *CalendarHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Current()
	payload := map[string]any{
		"status":         "ok",
		"calendar_ready": h.store.Ready(),
	}
	if !snap.LastRefreshed.IsZero() {
		payload["calendar_refreshed_at"] = snap.LastRefreshed.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, payload)
}

// Refresh replaces the calendar snapshot from the feed text in the request
// body. With ?best_effort=1 an unusable feed keeps the previous snapshot
// and still returns 200; otherwise it is a 422.
func (h *CalendarHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read feed body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "feed body is required")
		return
	}

	if r.URL.Query().Get("best_effort") == "1" {
		stats := h.store.RefreshBestEffort(string(body))
		writeJSON(w, http.StatusOK, map[string]any{
			"intervals": stats.Intervals,
			"skipped":   stats.Skipped,
		})
		return
	}

	stats, err := h.store.Refresh(string(body))
	if err != nil {
		if errors.Is(err, calendar.ErrFeedUnparseable) {
			writeError(w, http.StatusUnprocessableEntity, "calendar feed is unparseable")
			return
		}
		h.logger.Error("calendar refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "calendar refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intervals": stats.Intervals,
		"skipped":   stats.Skipped,
	})
}
