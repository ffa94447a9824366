package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/jask/hrportal/internal/normalize"
)

var productivityColumns = map[string][]string{
	"name":         {"employee name", "name"},
	"code":         {"employee id", "employee code", "emp id", "emp code", "code"},
	"email":        {"email", "employee email", "email id"},
	"team":         {"team", "team name", "department"},
	"date":         {"date", "day"},
	"clock_in":     {"clock in", "first activity", "check in"},
	"clock_out":    {"clock out", "last activity", "check out"},
	"logged":       {"logged hours", "total logged hours", "logged time"},
	"active":       {"active hours", "active time"},
	"idle":         {"idle hours", "idle time"},
	"productive":   {"productive hours", "productive time"},
	"unproductive": {"unproductive hours", "unproductive time"},
	"neutral":      {"neutral hours", "neutral time"},
	"break":        {"break hours", "break time"},
	"meeting":      {"meeting hours", "meeting time"},
	"manual":       {"manual hours", "manual time", "offline hours"},
	"activity_pct": {"activity %", "activity percentage", "activity"},
	"prod_pct":     {"productivity %", "productivity percentage", "productivity"},
	"eff_pct":      {"efficiency %", "efficiency percentage", "efficiency"},
	"focus_pct":    {"focus %", "focus percentage", "focus"},
	"idle_min":     {"idle minutes", "idle (mins)", "idle mins"},
	"meeting_min":  {"meeting minutes", "meeting (mins)", "meeting mins"},
	"late_min":     {"late by (mins)", "late minutes", "late mins"},
}

// ParseProductivity locates the tracker header embedded after the provider's
// metadata lines and parses the data rows that follow. It fails with
// ErrHeaderNotFound when the header is missing. Rows with fewer columns than
// the header, a leading delimiter or no employee name are skipped.
// fallbackDate is used for rows without a parsable date column.
func ParseProductivity(lines []string, fallbackDate time.Time, p Profile) (Result, error) {
	res := Result{Format: FormatProductivity}
	headerAt, err := locateHeader(lines, p.Productivity.HeaderFragment, p.Productivity.HeaderScanLines)
	if err != nil {
		return res, err
	}
	header, err := splitRecord(lines[headerAt], ',')
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	cols := mapColumns(header, productivityColumns)
	loc := fallbackDate.Location()

	for i := headerAt + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Total++
		lineNo := i + 1
		if strings.HasPrefix(strings.TrimSpace(line), ",") {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: "row begins with a delimiter"})
			continue
		}
		rec, err := splitRecord(line, ',')
		if err != nil {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: err.Error()})
			continue
		}
		if len(rec) < len(header) {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: fmt.Sprintf("expected %d columns, got %d", len(header), len(rec))})
			continue
		}
		get := func(key string) string {
			idx, ok := cols[key]
			if !ok {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		name := get("name")
		if name == "" {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: "employee name is empty"})
			continue
		}

		date := fallbackDate
		if d, ok := normalize.ParseDate(get("date"), loc); ok {
			date = d
		}
		if date.IsZero() {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: fmt.Sprintf("invalid date %q", get("date"))})
			continue
		}

		columns := make(map[string]string, len(header))
		for idx, h := range header {
			if h != "" {
				columns[h] = rec[idx]
			}
		}
		prod := &Productivity{
			Team:                   get("team"),
			LoggedHours:            normalize.DurationHours(get("logged")),
			ActiveHours:            normalize.DurationHours(get("active")),
			IdleHours:              normalize.DurationHours(get("idle")),
			ProductiveHours:        normalize.DurationHours(get("productive")),
			UnproductiveHours:      normalize.DurationHours(get("unproductive")),
			NeutralHours:           normalize.DurationHours(get("neutral")),
			BreakHours:             normalize.DurationHours(get("break")),
			MeetingHours:           normalize.DurationHours(get("meeting")),
			ManualHours:            normalize.DurationHours(get("manual")),
			ActivityPercentage:     normalize.ParsePercent(get("activity_pct")),
			ProductivityPercentage: normalize.ParsePercent(get("prod_pct")),
			EfficiencyPercentage:   normalize.ParsePercent(get("eff_pct")),
			FocusPercentage:        normalize.ParsePercent(get("focus_pct")),
			IdleMinutes:            normalize.ParseMinutes(get("idle_min")),
			MeetingMinutes:         normalize.ParseMinutes(get("meeting_min")),
			LateMinutes:            normalize.ParseMinutes(get("late_min")),
			ClockIn:                clockPtr(get("clock_in")),
			ClockOut:               clockPtr(get("clock_out")),
			Columns:                columns,
		}
		res.Rows = append(res.Rows, ParsedRow{
			Line: lineNo,
			Raw:  line,
			Date: date,
			Identity: Identity{
				Code:  get("code"),
				Name:  name,
				Email: get("email"),
			},
			CheckIn:      prod.ClockIn,
			CheckOut:     prod.ClockOut,
			Status:       StatusUnknown,
			TotalHours:   &prod.LoggedHours,
			Productivity: prod,
		})
	}
	return res, nil
}

func locateHeader(lines []string, fragment string, limit int) (int, error) {
	for i, line := range lines {
		if limit > 0 && i >= limit {
			break
		}
		if strings.Contains(line, fragment) {
			return i, nil
		}
	}
	return -1, ErrHeaderNotFound
}
