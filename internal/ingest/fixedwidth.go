package ingest

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jask/hrportal/internal/normalize"
)

// strictLine matches a complete report line:
//
//	serial code badge name shift start in lunch-out lunch-in out [hours] flag
var strictLine = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+(\d+)\s+([A-Za-z][A-Za-z ]*?)\s+([A-Z][A-Z0-9]{0,3}|\d{1,3})` +
	`\s+(\d{1,2}:\d{2})\s+(\d{1,2}:\d{2})\s+(\d{1,2}:\d{2})\s+(\d{1,2}:\d{2})\s+(\d{1,2}:\d{2})` +
	`(?:\s+(\d+(?:\.\d+)?))?\s+([PA])\s*$`)

var (
	serialToken  = regexp.MustCompile(`^\d+$`)
	codeToken    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-/.]*$`)
	shiftToken   = regexp.MustCompile(`^[A-Z]{1,3}\d{1,2}$`)
	clockToken   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	decimalToken = regexp.MustCompile(`^\d+\.\d+$`)
)

// ParseFixedWidth recovers one row per employee-day from a columnar report.
// Boilerplate and blank lines are ignored; data lines that match neither the
// strict grammar nor the lenient tokenizer are returned in Dropped.
func ParseFixedWidth(lines []string, date time.Time, p Profile) Result {
	res := Result{Format: FormatFixedWidth}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" || isMarkerLine(line, p.FixedWidth.Markers) {
			continue
		}
		res.Total++
		row, ok := MatchStrict(line)
		if !ok {
			row, ok = MatchLenient(line)
		}
		if !ok || strings.TrimSpace(row.Identity.Code) == "" {
			res.Dropped = append(res.Dropped, LineError{Line: i + 1, Reason: "line matches neither the strict nor the lenient report layout"})
			continue
		}
		row.Line = i + 1
		row.Raw = line
		row.Date = date
		res.Rows = append(res.Rows, row)
	}
	return res
}

func isMarkerLine(line string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// MatchStrict applies the positional grammar. Time slots that fail to
// normalize (e.g. 25:00) are left nil rather than failing the match.
func MatchStrict(line string) (ParsedRow, bool) {
	m := strictLine.FindStringSubmatch(line)
	if m == nil {
		return ParsedRow{}, false
	}
	row := ParsedRow{
		Identity:   Identity{Code: m[2], Name: collapseSpaces(m[4])},
		ShiftCode:  m[5],
		ShiftStart: clockPtr(m[6]),
		CheckIn:    clockPtr(m[7]),
		BreakIn:    clockPtr(m[8]),
		BreakOut:   clockPtr(m[9]),
		CheckOut:   clockPtr(m[10]),
		TotalHours: decimalPtr(m[11]),
		Status:     flagStatus(m[12]),
	}
	return row, true
}

// MatchLenient is the fallback tokenizer: the second token is the employee
// code, the next run of all-letter tokens is the name (stopping at a shift
// code), the first decimal token is the hours figure and clock tokens fill the
// slots in report order. A lone P/A counts as the status only after the last
// clock, hours or shift token, or as the final token of a line that has none.
// The name may be empty.
func MatchLenient(line string) (ParsedRow, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 || !serialToken.MatchString(tokens[0]) || !codeToken.MatchString(tokens[1]) {
		return ParsedRow{}, false
	}
	row := ParsedRow{Identity: Identity{Code: tokens[1]}, Status: StatusUnknown}

	statusIdx := lenientStatus(tokens)
	if statusIdx >= 0 {
		row.Status = flagStatus(tokens[statusIdx])
	}

	i := 2
	for i < len(tokens) && serialToken.MatchString(tokens[i]) {
		i++
	}
	var name []string
	for ; i < len(tokens) && i != statusIdx; i++ {
		if shiftToken.MatchString(tokens[i]) || !isLetters(tokens[i]) {
			break
		}
		name = append(name, tokens[i])
	}
	row.Identity.Name = strings.Join(name, " ")
	if i < len(tokens) && shiftToken.MatchString(tokens[i]) {
		row.ShiftCode = tokens[i]
	}

	var clocks []string
	for _, tok := range tokens[i:] {
		switch {
		case clockToken.MatchString(tok):
			clocks = append(clocks, tok)
		case row.TotalHours == nil && decimalToken.MatchString(tok):
			row.TotalHours = decimalPtr(tok)
		}
	}
	slots := []**normalize.Clock{&row.ShiftStart, &row.CheckIn, &row.BreakIn, &row.BreakOut, &row.CheckOut}
	for n, c := range clocks {
		if n >= len(slots) {
			break
		}
		*slots[n] = clockPtr(c)
	}
	return row, true
}

func flagStatus(flag string) Status {
	switch flag {
	case "P":
		return StatusPresent
	case "A":
		return StatusAbsent
	default:
		return StatusUnknown
	}
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lenientStatus returns the index of the status flag, or -1.
func lenientStatus(tokens []string) int {
	anchor := -1
	for i := 2; i < len(tokens); i++ {
		t := tokens[i]
		if clockToken.MatchString(t) || decimalToken.MatchString(t) || shiftToken.MatchString(t) {
			anchor = i
		}
	}
	if anchor < 0 {
		if last := len(tokens) - 1; last > 2 && isFlag(tokens[last]) {
			return last
		}
		return -1
	}
	idx := -1
	for i := anchor + 1; i < len(tokens); i++ {
		if isFlag(tokens[i]) {
			idx = i
		}
	}
	return idx
}

func isFlag(t string) bool {
	return t == "P" || t == "A"
}
