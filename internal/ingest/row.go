package ingest

import (
	"strings"
	"time"

	"github.com/jask/hrportal/internal/normalize"
)

// Format identifies which parser handles an uploaded file.
type Format string

const (
	FormatFixedWidth   Format = "FIXED_WIDTH_REPORT"
	FormatDelimited    Format = "DELIMITED"
	FormatProductivity Format = "PRODUCTIVITY_CSV"
	FormatUnsupported  Format = "UNSUPPORTED"
)

// Status is an attendance outcome as reported by a source file.
type Status string

const (
	StatusPresent       Status = "PRESENT"
	StatusAbsent        Status = "ABSENT"
	StatusLate          Status = "LATE"
	StatusWFHApproved   Status = "WFH_APPROVED"
	StatusLeaveApproved Status = "LEAVE_APPROVED"
	// StatusUnknown marks a row whose status token was missing or not
	// recognised. It is never stored as-is.
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus maps a raw status token to a Status.
func ParseStatus(token string) Status {
	t := strings.ToUpper(strings.TrimSpace(token))
	t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
	switch t {
	case "P", "PRESENT":
		return StatusPresent
	case "A", "ABSENT":
		return StatusAbsent
	case "L", "LATE":
		return StatusLate
	case "WFH", "WFH_APPROVED", "WORK_FROM_HOME":
		return StatusWFHApproved
	case "LV", "LEAVE", "LEAVE_APPROVED", "ON_LEAVE":
		return StatusLeaveApproved
	default:
		return StatusUnknown
	}
}

// Identity carries the hints a row offers for employee resolution.
type Identity struct {
	Code  string
	Name  string
	Email string
}

// Empty reports whether no hint is usable.
func (i Identity) Empty() bool {
	return strings.TrimSpace(i.Code) == "" &&
		strings.TrimSpace(i.Email) == "" &&
		strings.TrimSpace(i.Name) == ""
}

// Productivity holds the tracker metrics of a productivity row. Durations are
// fractional hours and default to zero; percentages stay nil when the export
// carried a placeholder.
type Productivity struct {
	Team string

	LoggedHours       float64
	ActiveHours       float64
	IdleHours         float64
	ProductiveHours   float64
	UnproductiveHours float64
	NeutralHours      float64
	BreakHours        float64
	MeetingHours      float64
	ManualHours       float64

	ActivityPercentage     *float64
	ProductivityPercentage *float64
	EfficiencyPercentage   *float64
	FocusPercentage        *float64

	IdleMinutes    int
	MeetingMinutes int
	LateMinutes    int

	ClockIn  *normalize.Clock
	ClockOut *normalize.Clock

	// Columns is the header→value map of the source row.
	Columns map[string]string
}

// ParsedRow is the transient output of every parser.
type ParsedRow struct {
	Line     int
	Raw      string
	Identity Identity
	Date     time.Time

	ShiftStart *normalize.Clock
	CheckIn    *normalize.Clock
	// BreakIn is the start of the break (the "lunch out" punch) and BreakOut
	// its end (the "lunch in" punch).
	BreakIn  *normalize.Clock
	BreakOut *normalize.Clock
	CheckOut *normalize.Clock

	Status     Status
	TotalHours *float64
	Overtime   *float64
	ShiftCode  string

	Productivity *Productivity
}

// HasIdentity reports whether the row can be resolved to an employee.
func (r ParsedRow) HasIdentity() bool {
	return !r.Identity.Empty()
}

// LineError records a line that was dropped or skipped.
type LineError struct {
	Line   int
	Reason string
}

// Result is what a parser returns for one file.
type Result struct {
	Format  Format
	Rows    []ParsedRow
	Dropped []LineError
	// Total counts candidate data lines (rows plus dropped lines).
	Total int
}

func clockPtr(s string) *normalize.Clock {
	c, ok := normalize.ParseClock(s)
	if !ok {
		return nil
	}
	return &c
}

func decimalPtr(s string) *float64 {
	f, ok := normalize.ParseDecimal(s)
	if !ok {
		return nil
	}
	return &f
}
