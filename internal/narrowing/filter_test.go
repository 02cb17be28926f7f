package narrowing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duneview/booking-assistant/internal/availability"
	"github.com/duneview/booking-assistant/internal/pricing"
)

func candidatesOn(t *testing.T, dates ...string) []availability.Candidate {
	t.Helper()
	out := make([]availability.Candidate, 0, len(dates))
	for _, s := range dates {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		out = append(out, availability.Candidate{
			StartDate: d,
			Nights:    7,
			Price:     pricing.Quote{Priced: true, TotalMinorUnits: 98000, Currency: "EUR", Nights: 7},
		})
	}
	return out
}

func starts(cands []availability.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.StartDate.Format("2006-01-02"))
	}
	return out
}

// augustFridays are the priced Fridays of August 2026 plus two non-Friday
// candidates the filters should reject in weekday-based tests.
func augustCandidates(t *testing.T) []availability.Candidate {
	return candidatesOn(t,
		"2026-08-03", // Monday
		"2026-08-07", // Friday
		"2026-08-14", // Friday
		"2026-08-15", // Saturday
		"2026-08-21", // Friday
		"2026-08-28", // Friday
	)
}

func TestApplyVariants(t *testing.T) {
	cands := augustCandidates(t)

	tests := []struct {
		name       string
		constraint Constraint
		want       []string
	}{
		{
			"specific weekday",
			Constraint{Kind: KindWeekday, Weekday: time.Friday, HasWeekday: true},
			[]string{"2026-08-07", "2026-08-14", "2026-08-21", "2026-08-28"},
		},
		{
			"weekday class is Mon-Thu",
			Constraint{Kind: KindWeekdayClass},
			[]string{"2026-08-03"},
		},
		{
			"weekend class is Friday-start",
			Constraint{Kind: KindWeekendClass},
			[]string{"2026-08-07", "2026-08-14", "2026-08-21", "2026-08-28"},
		},
		{
			"day range",
			Constraint{Kind: KindDayRange, Lo: 12, Hi: 18},
			[]string{"2026-08-14", "2026-08-15"},
		},
		{
			"around day 18",
			Constraint{Kind: KindAroundDay, Day: 18},
			[]string{"2026-08-15", "2026-08-21"},
		},
		{
			"around day with weekday",
			Constraint{Kind: KindAroundDay, Day: 18, Weekday: time.Friday, HasWeekday: true},
			[]string{"2026-08-21"},
		},
		{
			"nth weekday",
			Constraint{Kind: KindNthWeekday, N: 2, Weekday: time.Friday, HasWeekday: true},
			[]string{"2026-08-14"},
		},
		{
			"last weekday",
			Constraint{Kind: KindLastWeekday, Weekday: time.Friday, HasWeekday: true},
			[]string{"2026-08-28"},
		},
		{
			"explicit date",
			Constraint{Kind: KindExactDate, Date: mustParse(t, "2026-08-21")},
			[]string{"2026-08-21"},
		},
		{
			"no matches yields empty, not nil panic",
			Constraint{Kind: KindWeekday, Weekday: time.Sunday, HasWeekday: true},
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(cands, tt.constraint)
			assert.Equal(t, tt.want, starts(got))
		})
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestApplyFirstHalfScenario(t *testing.T) {
	// Five priced Fridays; "first half" keeps only days <= 15.
	fridays := candidatesOn(t, "2026-08-07", "2026-08-14", "2026-08-21", "2026-08-28")
	c, ok := Parse("first half of the month")
	require.True(t, ok)

	got := Apply(fridays, c)
	assert.Equal(t, []string{"2026-08-07", "2026-08-14"}, starts(got))
}

func TestApplyIsIdempotent(t *testing.T) {
	cands := augustCandidates(t)
	c := Constraint{Kind: KindDayRange, Lo: 1, Hi: 15}

	once := Apply(cands, c)
	twice := Apply(once, c)
	assert.Equal(t, once, twice, "applying the same constraint twice must not drift")
}

func TestApplyPreservesOrder(t *testing.T) {
	cands := augustCandidates(t)
	got := Apply(cands, Constraint{Kind: KindWeekendClass})
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].StartDate.Before(got[i].StartDate))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Constraint
		ok   bool
	}{
		{"fridays only", Constraint{Kind: KindWeekday, Weekday: time.Friday, HasWeekday: true}, true},
		{"can we do a Tuesday?", Constraint{Kind: KindWeekday, Weekday: time.Tuesday, HasWeekday: true}, true},
		{"weekdays please", Constraint{Kind: KindWeekdayClass}, true},
		{"midweek would suit us", Constraint{Kind: KindWeekdayClass}, true},
		{"a weekend", Constraint{Kind: KindWeekendClass}, true},
		{"early in the month", Constraint{Kind: KindDayRange, Lo: 1, Hi: 10}, true},
		{"towards the end of the month", Constraint{Kind: KindDayRange, Lo: 21, Hi: 31}, true},
		{"first half", Constraint{Kind: KindDayRange, Lo: 1, Hi: 15}, true},
		{"second half of august", Constraint{Kind: KindDayRange, Lo: 16, Hi: 31}, true},
		{"middle of the month", Constraint{Kind: KindDayRange, Lo: 10, Hi: 20}, true},
		{"between the 12th and the 18th", Constraint{Kind: KindDayRange, Lo: 12, Hi: 18}, true},
		{"12-18", Constraint{Kind: KindDayRange, Lo: 12, Hi: 18}, true},
		{"around the 18th", Constraint{Kind: KindAroundDay, Day: 18}, true},
		{"a friday around the 18th", Constraint{Kind: KindAroundDay, Day: 18, Weekday: time.Friday, HasWeekday: true}, true},
		{"the second friday", Constraint{Kind: KindNthWeekday, N: 2, Weekday: time.Friday, HasWeekday: true}, true},
		{"last saturday", Constraint{Kind: KindLastWeekday, Weekday: time.Saturday, HasWeekday: true}, true},
		{"2026-08-14", Constraint{Kind: KindExactDate, Date: mustParse(t, "2026-08-14")}, true},
		{"on the 18th", Constraint{Kind: KindDayRange, Lo: 18, Hi: 18}, true},
		{"what is your cancellation policy?", Constraint{}, false},
		{"", Constraint{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSupportedPhrasingsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, SupportedPhrasings())
}
