// Package normalize converts raw textual tokens from attendance and
// productivity exports into typed values. Every function is pure and never
// fails loudly: malformed input collapses to "absent" (or zero where the
// caller's semantics call for it).
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var placeholders = map[string]struct{}{
	"":      {},
	"-":     {},
	"--":    {},
	"--:--": {},
	"-:-":   {},
	"na":    {},
	"n/a":   {},
	"null":  {},
	"nil":   {},
}

// IsPlaceholder reports whether s is an empty or "no value" marker.
func IsPlaceholder(s string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On anchors the clock to the calendar day of date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, loc)
}

// ParseClock accepts H:MM, HH:MM and HH:MM:SS. Placeholders, non-numeric
// parts and out-of-range hours or minutes yield false.
func ParseClock(s string) (Clock, bool) {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return Clock{}, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, false
	}
	vals := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 2 {
			return Clock{}, false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Clock{}, false
		}
		vals[i] = n
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return Clock{}, false
	}
	return Clock{Hour: vals[0], Minute: vals[1], Second: vals[2]}, true
}

// ParseDecimal parses a plain decimal figure such as "8.50".
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// DurationHours converts "HH:MM:SS" (or "HH:MM") to fractional hours using
// hours + minutes/60 + seconds/3600. Absent, placeholder and malformed values
// are zero. Hours may exceed 23 for multi-day totals.
func DurationHours(s string) float64 {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total float64
	scale := []float64{1, 60, 3600}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total += float64(n) / scale[i]
	}
	return total
}

// ParsePercent strips a trailing % and parses the rest. A placeholder is
// reported as nil, which callers must keep distinct from zero.
func ParsePercent(s string) *float64 {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseMinutes parses an integer minute count, defaulting to zero.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

// slash and dash forms are day-first, matching the exports we receive.
var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	"02-Jan-06",
}

// ParseDate parses a calendar date in loc, truncated to midnight.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey formats a date as the canonical YYYY-MM-DD storage key.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
