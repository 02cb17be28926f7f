package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
	"github.com/duneview/booking-assistant/internal/narrowing"
	"github.com/duneview/booking-assistant/internal/pricing"
)

// NarrowHandler filters a caller-supplied candidate list by a narrowing
// phrase. It is stateless; the conversational flow lives in /chat.
type NarrowHandler struct{}

// NewNarrowHandler creates the handler.
func NewNarrowHandler() *NarrowHandler {
	return &NarrowHandler{}
}

type narrowRequest struct {
	Candidates []candidateDTO `json:"candidates"`
	Constraint string         `json:"constraint"`
}

// Narrow handles POST /narrow.
func (h *NarrowHandler) Narrow(w http.ResponseWriter, r *http.Request) {
	var req narrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Constraint) == "" {
		writeError(w, http.StatusBadRequest, "constraint is required")
		return
	}

	c, ok := narrowing.Parse(req.Constraint)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":               "unrecognized narrowing constraint",
			"supported_phrasings": narrowing.SupportedPhrasings(),
		})
		return
	}

	candidates := make([]availability.Candidate, 0, len(req.Candidates))
	for _, dto := range req.Candidates {
		d, err := time.Parse("2006-01-02", dto.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "candidate start_date must be an ISO date (YYYY-MM-DD)")
			return
		}
		candidates = append(candidates, availability.Candidate{
			StartDate: d,
			Nights:    dto.Nights,
			Price: pricing.Quote{
				Priced:          true,
				TotalMinorUnits: dto.TotalMinorUnits,
				Currency:        dto.Currency,
				Nights:          dto.Nights,
			},
		})
	}

	filtered := narrowing.Apply(candidates, c)
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": toCandidateDTOs(filtered),
	})
}
