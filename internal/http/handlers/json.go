// Package handlers holds the HTTP boundary: request decoding, parameter
// validation, and JSON rendering. Domain rules live below it.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
)

const (
	minNights = 1
	maxNights = 30
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// candidateDTO is the wire shape of one bookable start date.
type candidateDTO struct {
	StartDate       string `json:"start_date"`
	Nights          int    `json:"nights"`
	TotalMinorUnits int64  `json:"total_minor_units"`
	Currency        string `json:"currency"`
}

func toCandidateDTOs(candidates []availability.Candidate) []candidateDTO {
	out := make([]candidateDTO, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateDTO{
			StartDate:       c.StartDate.Format("2006-01-02"),
			Nights:          c.Nights,
			TotalMinorUnits: c.Price.TotalMinorUnits,
			Currency:        c.Price.Currency,
		})
	}
	return out
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required (YYYY-MM-DD)", name)
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an ISO date (YYYY-MM-DD)", name)
	}
	return d, nil
}

func parseNightsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("nights")
	if raw == "" {
		return 0, fmt.Errorf("nights is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minNights || n > maxNights {
		return 0, fmt.Errorf("nights must be an integer between %d and %d", minNights, maxNights)
	}
	return n, nil
}

func parseIntParam(r *http.Request, name, fallback string, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		raw = fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}
