package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/normalize"
)

// Upload statuses stored on productivity records.
const uploadProcessed = "PROCESSED"

// Reconciler writes parsed rows into the attendance and productivity stores.
type Reconciler struct {
	Attendance   *repository.AttendanceRepo
	Productivity *repository.ProductivityRepo
	Location     *time.Location
	// UnknownStatus replaces rows whose status could not be recognised.
	UnknownStatus string
}

// UpsertAttendance replaces the (employee, date) record with row. It reports
// whether the row's status had to be defaulted.
func (r *Reconciler) UpsertAttendance(ctx context.Context, row ingest.ParsedRow, emp repository.Employee, source ingest.Format, batch string) (defaulted bool, err error) {
	if row.Date.IsZero() {
		return false, fmt.Errorf("row has no date")
	}
	status := string(row.Status)
	if row.Status == ingest.StatusUnknown || status == "" {
		status = r.unknownStatus()
		defaulted = true
	}
	date := normalize.DateKey(row.Date)
	src := string(source)
	rec := repository.AttendanceRecord{
		ID:            attendanceID(emp.ID, date),
		EmployeeID:    emp.ID,
		Date:          date,
		Status:        status,
		CheckIn:       r.punch(row.CheckIn, row),
		CheckOut:      r.punch(row.CheckOut, row),
		BreakIn:       r.punch(row.BreakIn, row),
		BreakOut:      r.punch(row.BreakOut, row),
		TotalHours:    row.TotalHours,
		OvertimeHours: row.Overtime,
		ShiftCode:     nullableStr(row.ShiftCode),
		ImportSource:  &src,
		ImportBatch:   nullableStr(batch),
	}
	if row.ShiftStart != nil {
		s := row.ShiftStart.String()
		rec.ShiftStart = &s
	}
	if err := r.Attendance.Upsert(ctx, rec); err != nil {
		return defaulted, fmt.Errorf("upsert attendance %s/%s: %w", emp.Code, date, err)
	}
	return defaulted, nil
}

// UpsertProductivity stores a tracker row under (code, date, batch).
func (r *Reconciler) UpsertProductivity(ctx context.Context, row ingest.ParsedRow, emp repository.Employee, batch, fileName string) error {
	p := row.Productivity
	if p == nil {
		return fmt.Errorf("row has no productivity metrics")
	}
	if row.Date.IsZero() {
		return fmt.Errorf("row has no date")
	}
	code := row.Identity.Code
	if code == "" {
		code = emp.Code
	}
	name := row.Identity.Name
	if name == "" {
		name = emp.Name
	}
	date := normalize.DateKey(row.Date)
	empID := emp.ID
	rec := repository.ProductivityRecord{
		ID:                     productivityID(code, date, batch),
		EmployeeID:             &empID,
		EmployeeCode:           code,
		EmployeeName:           name,
		Email:                  nullableStr(row.Identity.Email),
		Team:                   nullableStr(p.Team),
		Date:                   date,
		BatchID:                batch,
		LoggedHours:            p.LoggedHours,
		ActiveHours:            p.ActiveHours,
		IdleHours:              p.IdleHours,
		ProductiveHours:        p.ProductiveHours,
		UnproductiveHours:      p.UnproductiveHours,
		NeutralHours:           p.NeutralHours,
		BreakHours:             p.BreakHours,
		MeetingHours:           p.MeetingHours,
		ManualHours:            p.ManualHours,
		ActivityPercentage:     p.ActivityPercentage,
		ProductivityPercentage: p.ProductivityPercentage,
		EfficiencyPercentage:   p.EfficiencyPercentage,
		FocusPercentage:        p.FocusPercentage,
		IdleMinutes:            p.IdleMinutes,
		MeetingMinutes:         p.MeetingMinutes,
		LateMinutes:            p.LateMinutes,
		ClockIn:                clockString(p.ClockIn),
		ClockOut:               clockString(p.ClockOut),
		RawRow:                 row.Raw,
		RawData:                p.Columns,
		UploadStatus:           uploadProcessed,
		FileName:               fileName,
	}
	if err := r.Productivity.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert productivity %s/%s: %w", code, date, err)
	}
	return nil
}

func (r *Reconciler) unknownStatus() string {
	if r.UnknownStatus == "" {
		return repository.StatusPresent
	}
	return r.UnknownStatus
}

// punch anchors c to the row's day. Absent rows carry 00:00 filler in the
// terminal reports; those are not punches.
func (r *Reconciler) punch(c *normalize.Clock, row ingest.ParsedRow) *time.Time {
	if c == nil {
		return nil
	}
	if row.Status == ingest.StatusAbsent && *c == (normalize.Clock{}) {
		return nil
	}
	loc := r.Location
	if loc == nil {
		loc = row.Date.Location()
	}
	t := c.On(row.Date, loc).UTC()
	return &t
}

func attendanceID(employeeID int64, date string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("attendance:%d:%s", employeeID, date))).String()
}

func productivityID(code, date, batch string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("productivity:"+code+":"+date+":"+batch)).String()
}

func clockString(c *normalize.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}
