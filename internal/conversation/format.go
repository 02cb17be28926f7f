package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
)

const candidateDisplayCap = 10

// FormatCandidates renders a candidate list for a chat reply. Entries stay
// in chronological order; anything past the display cap collapses into a
// "and N more" line.
func FormatCandidates(candidates []availability.Candidate) string {
	if len(candidates) == 0 {
		return "No dates available"
	}

	var b strings.Builder
	b.WriteString("Available check-in dates:\n")
	for i, c := range candidates {
		if i >= candidateDisplayCap {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(candidates)-i))
			break
		}
		b.WriteString(fmt.Sprintf("  - %s, %d nights", formatDate(c.StartDate), c.Nights))
		if c.Price.Priced {
			b.WriteString(fmt.Sprintf(", %s", FormatPrice(c.Price.TotalMinorUnits, c.Price.Currency)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatPrice renders a minor-unit amount as "EUR 650.00".
func FormatPrice(minorUnits int64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%s %d.%02d", currency, minorUnits/100, minorUnits%100)
}

func formatDate(d time.Time) string {
	return d.Format("Mon 2 Jan 2006")
}

func formatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
