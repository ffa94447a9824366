package ingest

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Profile tunes the detectors and parsers for a deployment's exports.
type Profile struct {
	Version      int                `toml:"version"`
	FixedWidth   FixedWidthProfile  `toml:"fixed_width"`
	Delimited    DelimitedProfile   `toml:"delimited"`
	Productivity ProductivityConfig `toml:"productivity"`
}

type FixedWidthProfile struct {
	Extension string   `toml:"extension"`
	Markers   []string `toml:"markers"`
}

type DelimitedProfile struct {
	// Columns maps a ParsedRow field to the header names that feed it.
	Columns map[string][]string `toml:"columns"`
}

type ProductivityConfig struct {
	HeaderFragment  string `toml:"header_fragment"`
	HeaderScanLines int    `toml:"header_scan_lines"`
}

// Delimited field names understood by ParseDelimited.
const (
	FieldCode       = "code"
	FieldName       = "name"
	FieldEmail      = "email"
	FieldDate       = "date"
	FieldCheckIn    = "check_in"
	FieldCheckOut   = "check_out"
	FieldBreakIn    = "break_in"
	FieldBreakOut   = "break_out"
	FieldStatus     = "status"
	FieldHours      = "hours"
	FieldOvertime   = "overtime"
	FieldShift      = "shift"
	FieldShiftStart = "shift_start"
)

// DefaultProfile returns the built-in markers and column aliases.
func DefaultProfile() Profile {
	return Profile{
		Version: 1,
		FixedWidth: FixedWidthProfile{
			Extension: ".srp",
			Markers: []string{
				"Performance Register",
				"Attendance Report",
				"Page No",
				"Page :",
				"Run Date",
				"Printed On",
				"SNo",
				"Emp Code",
				"-----",
				"=====",
			},
		},
		Delimited: DelimitedProfile{
			Columns: map[string][]string{
				FieldCode:       {"code", "employee code", "employeecode", "emp code", "empcode", "employee id", "employeeid", "emp_code"},
				FieldName:       {"name", "employee name", "employeename", "full name"},
				FieldEmail:      {"email", "e-mail", "email id", "mail"},
				FieldDate:       {"date", "attendance date", "day"},
				FieldCheckIn:    {"checkin", "check in", "check_in", "in time", "intime", "in"},
				FieldCheckOut:   {"checkout", "check out", "check_out", "out time", "outtime", "out"},
				FieldBreakIn:    {"breakin", "break in", "break_in", "lunch out", "break start"},
				FieldBreakOut:   {"breakout", "break out", "break_out", "lunch in", "break end"},
				FieldStatus:     {"status", "attendance", "flag"},
				FieldHours:      {"hours", "total hours", "totalhours", "work hours", "hours worked"},
				FieldOvertime:   {"overtime", "ot", "overtime hours"},
				FieldShift:      {"shift", "shift code", "shiftcode"},
				FieldShiftStart: {"shift start", "shiftstart", "shift_start"},
			},
		},
		Productivity: ProductivityConfig{
			HeaderFragment:  "Employee Name",
			HeaderScanLines: 50,
		},
	}
}

// LoadProfile decodes a TOML profile over the defaults. An empty path yields
// DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Profile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return p, nil
}

// Validate normalizes the profile and rejects unusable values.
func (p *Profile) Validate() error {
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Version != 1 {
		return fmt.Errorf("unsupported version %d", p.Version)
	}
	ext := strings.ToLower(strings.TrimSpace(p.FixedWidth.Extension))
	if ext == "" {
		return fmt.Errorf("fixed_width.extension is required")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".csv" || ext == ".txt" {
		return fmt.Errorf("fixed_width.extension %q collides with the delimited extensions", ext)
	}
	p.FixedWidth.Extension = ext
	if strings.TrimSpace(p.Productivity.HeaderFragment) == "" {
		return fmt.Errorf("productivity.header_fragment is required")
	}
	if p.Productivity.HeaderScanLines <= 0 {
		p.Productivity.HeaderScanLines = DefaultProfile().Productivity.HeaderScanLines
	}
	for field, aliases := range p.Delimited.Columns {
		for i := range aliases {
			aliases[i] = normalizeHeader(aliases[i])
		}
		p.Delimited.Columns[field] = aliases
	}
	return nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), " ")
}
