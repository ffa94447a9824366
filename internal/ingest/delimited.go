package ingest

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jask/hrportal/internal/normalize"
)

// ParseDelimited parses a comma or tab separated export whose first
// non-blank line is the header. Empty cells are absent values. Rows with
// fewer fields than the header, or with an empty first field, are skipped and
// reported in Dropped. A date column, when present, overrides date.
func ParseDelimited(lines []string, date time.Time, p Profile) (Result, error) {
	res := Result{Format: FormatDelimited}
	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return res, ErrHeaderNotFound
	}
	delim := detectDelimiter(lines[headerAt])
	header, err := splitRecord(lines[headerAt], delim)
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := mapColumns(header, p.Delimited.Columns)
	if _, ok := cols[FieldCode]; !ok {
		cols[FieldCode] = 0
	}

	for i := headerAt + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Total++
		lineNo := i + 1
		rec, err := splitRecord(line, delim)
		if err != nil {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: err.Error()})
			continue
		}
		if len(rec) < len(header) {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(rec))})
			continue
		}
		if strings.TrimSpace(rec[0]) == "" {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: "first field (employee code) is empty"})
			continue
		}
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		row := ParsedRow{
			Line: lineNo,
			Raw:  line,
			Date: date,
			Identity: Identity{
				Code:  get(FieldCode),
				Name:  get(FieldName),
				Email: get(FieldEmail),
			},
			ShiftStart: clockPtr(get(FieldShiftStart)),
			CheckIn:    clockPtr(get(FieldCheckIn)),
			CheckOut:   clockPtr(get(FieldCheckOut)),
			BreakIn:    clockPtr(get(FieldBreakIn)),
			BreakOut:   clockPtr(get(FieldBreakOut)),
			Status:     ParseStatus(get(FieldStatus)),
			TotalHours: decimalPtr(get(FieldHours)),
			Overtime:   decimalPtr(get(FieldOvertime)),
			ShiftCode:  get(FieldShift),
		}
		if raw := get(FieldDate); raw != "" {
			d, ok := normalize.ParseDate(raw, date.Location())
			if !ok {
				res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: fmt.Sprintf("invalid date %q", raw)})
				continue
			}
			row.Date = d
		}
		if row.Date.IsZero() {
			res.Dropped = append(res.Dropped, LineError{Line: lineNo, Reason: "no attendance date"})
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func detectDelimiter(header string) rune {
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		return '\t'
	}
	return ','
}

func splitRecord(line string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

func mapColumns(header []string, aliases map[string][]string) map[string]int {
	out := make(map[string]int, len(header))
	for idx, h := range header {
		name := normalizeHeader(h)
		for field, names := range aliases {
			if _, taken := out[field]; taken {
				continue
			}
			for _, alias := range names {
				if normalizeHeader(alias) == name {
					out[field] = idx
					break
				}
			}
		}
	}
	return out
}
