package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalDateLayout is the shape of food_items.date, e.g. "Mon November 10, 2025".
const (
	CanonicalDateLayout = "Mon January 02, 2006"
	ISODateLayout       = "2006-01-02"
)

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	dayYearGap    = regexp.MustCompile(`(\d{1,2})\s+(\d{4})`)
	numericDate   = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}([-/]\d{1,4})?$`)
	allDigits     = regexp.MustCompile(`^\d{1,4}$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

var fullWeekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// tried in order after commas and ordinals are stripped
var dateLayouts = []string{
	"Mon January 2 2006",
	"Monday January 2 2006",
	"Mon Jan 2 2006",
	"Monday Jan 2 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon 2 January 2006",
	"Monday 2 January 2006",
	"2006-01-02",
	"Mon 2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"Mon 1/2/2006",
	"2006/01/02",
	"01-02-2006",
}

var yearlessLayouts = []string{
	"Mon January 2",
	"Monday January 2",
	"Mon Jan 2",
	"Monday Jan 2",
	"January 2",
	"Jan 2",
	"1/2",
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var monthNames = func() map[string]bool {
	m := map[string]bool{"sept": true}
	for mo := time.January; mo <= time.December; mo++ {
		name := strings.ToLower(mo.String())
		m[name] = true
		m[name[:3]] = true
	}
	return m
}()

func CanonicalDate(t time.Time) string { return t.Format(CanonicalDateLayout) }

func ISODate(t time.Time) string { return t.Format(ISODateLayout) }

// NormalizeDate maps a free-form date expression onto CanonicalDateLayout.
// Input that cannot be parsed is returned lightly rewritten, never rejected.
func NormalizeDate(input string) string { return NormalizeDateAt(input, time.Now()) }

// NormalizeDateAt resolves relative and yearless expressions against now.
func NormalizeDateAt(input string, now time.Time) string {
	if t, ok := ParseDate(input, now); ok {
		return CanonicalDate(t)
	}
	return rewriteDate(strings.TrimSpace(input))
}

// IsWeekend reports whether a date expression falls on Saturday or Sunday.
// Unparseable input is treated as a weekday.
func IsWeekend(dateStr string) bool { return IsWeekendAt(dateStr, time.Now()) }

func IsWeekendAt(dateStr string, now time.Time) bool {
	s := strings.TrimSpace(dateStr)
	if strings.HasPrefix(s, "Sat") || strings.HasPrefix(s, "Sun") {
		return true
	}
	t, ok := ParseDate(s, now)
	if !ok {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PastWeekDates lists yesterday through seven days ago, each day in both the
// canonical and the ISO form. Today is never included.
func PastWeekDates(now time.Time) []string {
	out := make([]string, 0, 14)
	for i := 1; i <= 7; i++ {
		d := now.AddDate(0, 0, -i)
		out = append(out, CanonicalDate(d), ISODate(d))
	}
	return out
}

// ParseDate tries relative words, the layout table, a fuzzy subset of the
// tokens and finally dateparse. The returned time is midnight in now's location.
func ParseDate(input string, now time.Time) (time.Time, bool) {
	s := cleanDate(input)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseRelative(strings.ToLower(s), now); ok {
		return t, true
	}
	if t, ok := parseLayouts(s, now); ok {
		return t, true
	}

	tokens := strings.Fields(s)
	kept := fuzzyTokens(tokens)
	if len(kept) > 0 && len(kept) < len(tokens) {
		if t, ok := parseLayouts(strings.Join(kept, " "), now); ok {
			return t, true
		}
	}

	if looksLikeDate(s, kept) {
		if t, ok := parseLoose(s, now.Location()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func cleanDate(input string) string {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", " ")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	today := dayStart(now)
	switch s {
	case "today", "tonight":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}
	if wd, ok := weekdayNames[s]; ok {
		delta := (int(wd) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, delta), true
	}
	return time.Time{}, false
}

func parseLayouts(s string, now time.Time) (time.Time, bool) {
	loc := now.Location()
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return dayStart(t), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// fuzzyTokens drops words that cannot be part of a date ("menu", "for", ...).
func fuzzyTokens(tokens []string) []string {
	var kept []string
	for _, tok := range tokens {
		word := strings.TrimSuffix(tok, ".")
		low := strings.ToLower(word)
		if _, isDay := weekdayNames[low]; isDay || monthNames[low] {
			kept = append(kept, word)
			continue
		}
		if allDigits.MatchString(low) || numericDate.MatchString(low) {
			kept = append(kept, low)
		}
	}
	return kept
}

func looksLikeDate(s string, kept []string) bool {
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		return true
	}
	for _, tok := range kept {
		low := strings.ToLower(tok)
		if monthNames[low] || numericDate.MatchString(low) {
			return true
		}
	}
	return false
}

func parseLoose(s string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return dayStart(parsed.In(loc)), true
}

func rewriteDate(s string) string {
	for _, full := range fullWeekdays {
		if strings.Contains(s, full) {
			s = strings.ReplaceAll(s, full, full[:3])
			break
		}
	}
	return dayYearGap.ReplaceAllString(s, "$1, $2")
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
