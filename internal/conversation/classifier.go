package conversation

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IntentKind labels what a guest message is asking for.
type IntentKind string

const (
	// IntentUnrelated marks a message with no date content at all; the
	// escape hatch out of narrowing.
	IntentUnrelated IntentKind = "unrelated"
	// IntentDate is a concrete start date, optionally with a stay length.
	IntentDate IntentKind = "date"
	// IntentMonth is a month-level query, optionally with a stay length.
	IntentMonth IntentKind = "month"
	// IntentCancel is a decline/cancel phrase.
	IntentCancel IntentKind = "cancel"
	// IntentNarrowish is date-flavored content that is not a complete date
	// or month query: weekdays, day ranges, "around the 18th". While
	// narrowing, these are constraint attempts, not an exit cue.
	IntentNarrowish IntentKind = "narrowish"
)

// Intent is the structured reading of one guest message.
type Intent struct {
	Kind   IntentKind
	Date   time.Time
	Year   int
	Month  time.Month
	Nights int // 0 means unspecified
}

// Classifier decides what a message is about. The state machine depends on
// this interface so its transition logic is testable without any external
// call; implementations range from the keyword heuristic below to an
// OpenAI-backed probe.
type Classifier interface {
	Classify(ctx context.Context, message string) Intent
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var cancelPhrases = []string{
	"no thanks", "no thank you", "never mind", "nevermind", "cancel",
	"forget it", "not interested", "leave it", "stop",
}

var (
	classifierISODateRE = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	nightsRE            = regexp.MustCompile(`\b(\d{1,2})\s*night`)
	monthRE             = regexp.MustCompile(`\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\b(?:\s+(\d{4}))?`)
	monthDayRE          = regexp.MustCompile(`\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRE          = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\b`)
	narrowishRE         = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun|weekend|weekday|midweek|half|early|late|around|beginning|end|middle|next|previous|earlier|week)s?\b|\d`)
)

// HeuristicClassifier reads messages with regex and keyword tables only,
// no I/O. It deliberately stays shallow: anything it cannot read as a date,
// month, or cancel cue is either date-flavored (narrowish) or unrelated.
type HeuristicClassifier struct {
	// now anchors year inference for month names without a year; swapped
	// in tests.
	now func() time.Time
}

// NewHeuristicClassifier creates the default keyword classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{now: time.Now}
}

// Classify implements Classifier.
func (c *HeuristicClassifier) Classify(_ context.Context, message string) Intent {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Intent{Kind: IntentUnrelated}
	}

	if isCancel(msg) {
		return Intent{Kind: IntentCancel}
	}

	nights := parseNights(msg)

	if m := classifierISODateRE.FindStringSubmatch(msg); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			return Intent{Kind: IntentDate, Date: d, Nights: nights}
		}
	}

	if d, ok := c.parseMonthDay(msg); ok {
		return Intent{Kind: IntentDate, Date: d, Nights: nights}
	}

	if m := monthRE.FindStringSubmatch(msg); m != nil {
		month := monthNames[m[1]]
		year := 0
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		} else {
			year = c.inferYear(month)
		}
		return Intent{Kind: IntentMonth, Year: year, Month: month, Nights: nights}
	}

	if narrowishRE.MatchString(msg) {
		return Intent{Kind: IntentNarrowish, Nights: nights}
	}
	return Intent{Kind: IntentUnrelated}
}

// parseMonthDay reads "august 14" / "14th of august", inferring the year.
func (c *HeuristicClassifier) parseMonthDay(msg string) (time.Time, bool) {
	var month time.Month
	var day int

	if m := monthDayRE.FindStringSubmatch(msg); m != nil {
		month = monthNames[m[1]]
		day, _ = strconv.Atoi(m[2])
	} else if m := dayMonthRE.FindStringSubmatch(msg); m != nil {
		day, _ = strconv.Atoi(m[1])
		month = monthNames[m[2]]
	} else {
		return time.Time{}, false
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(c.inferYear(month), month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		// Day overflowed the month (e.g. "February 30").
		return time.Time{}, false
	}
	return d, true
}

// inferYear picks the next occurrence of the month: this year if the month
// has not finished yet, otherwise next year.
func (c *HeuristicClassifier) inferYear(month time.Month) int {
	now := c.now().UTC()
	if month < now.Month() {
		return now.Year() + 1
	}
	return now.Year()
}

func isCancel(msg string) bool {
	if msg == "no" || msg == "nope" {
		return true
	}
	for _, p := range cancelPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func parseNights(msg string) int {
	if m := nightsRE.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if strings.Contains(msg, "a fortnight") {
		return 14
	}
	if strings.Contains(msg, "a week") || strings.Contains(msg, "one week") {
		return 7
	}
	if strings.Contains(msg, "two weeks") {
		return 14
	}
	return 0
}
