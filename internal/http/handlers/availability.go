package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
	"github.com/duneview/booking-assistant/pkg/logging"
)

// availabilityService is the engine surface this handler needs.
type availabilityService interface {
	CheckExact(ctx context.Context, start time.Time, nights int) availability.Decision
	AlternativesNear(ctx context.Context, start time.Time, nights, limit int) []availability.Candidate
	CandidatesForMonth(ctx context.Context, year int, month time.Month, nights, cap int) []availability.Candidate
}

// AvailabilityHandler answers exact, nearby, and month-level availability
// queries over HTTP.
type AvailabilityHandler struct {
	service availabilityService
	logger  *logging.Logger
}

// NewAvailabilityHandler creates the handler.
func NewAvailabilityHandler(service availabilityService, logger *logging.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{service: service, logger: logger}
}

type exactResponse struct {
	Available       bool   `json:"available"`
	Reason          string `json:"reason,omitempty"`
	TotalMinorUnits int64  `json:"total_minor_units,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// CheckExact handles GET /availability?start=YYYY-MM-DD&nights=N.
func (h *AvailabilityHandler) CheckExact(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nights, err := parseNightsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := h.service.CheckExact(r.Context(), start, nights)
	if d.Err != nil {
		// The stay may be fine; pricing could not be confirmed. Callers
		// should retry rather than treat the dates as unavailable.
		writeError(w, http.StatusServiceUnavailable, "pricing is temporarily unavailable")
		return
	}

	resp := exactResponse{Available: d.Available, Reason: d.Reason}
	if d.Available {
		resp.TotalMinorUnits = d.Quote.TotalMinorUnits
		resp.Currency = d.Quote.Currency
	}
	writeJSON(w, http.StatusOK, resp)
}

// Alternatives handles GET /availability/alternatives?start=&nights=&limit=.
func (h *AvailabilityHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nights, err := parseNightsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseIntParam(r, "limit", "5", 1, 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates := h.service.AlternativesNear(r.Context(), start, nights, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": toCandidateDTOs(candidates),
	})
}

// Month handles GET /availability/month?year=&month=&nights=&cap=.
func (h *AvailabilityHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := parseIntParam(r, "year", "", 2000, 2200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := parseIntParam(r, "month", "", 1, 12)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nights, err := parseNightsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	capacity, err := parseIntParam(r, "cap", "31", 1, 31)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates := h.service.CandidatesForMonth(r.Context(), year, time.Month(month), nights, capacity)
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": toCandidateDTOs(candidates),
	})
}
