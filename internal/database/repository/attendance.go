package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jask/hrportal/internal/database"
)

const attendanceColumns = `id, employee_id, date, status, check_in, check_out, break_in, break_out,
 total_hours, overtime_hours, shift_code, shift_start, import_source, import_batch,
 is_edited, edit_history, edited_by, edited_at, created_at, updated_at`

// AttendanceRepo handles attendance records.
type AttendanceRepo struct{ db DBTX }

func NewAttendanceRepo(db DBTX) *AttendanceRepo { return &AttendanceRepo{db: db} }

// Upsert writes a into its (employee, date) slot. An existing record is
// replaced field by field and its edited flag cleared, while the edit
// history and editor columns are left as they were.
func (r *AttendanceRepo) Upsert(ctx context.Context, a AttendanceRecord) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO attendance_records(
	 id, employee_id, date, status, check_in, check_out, break_in, break_out,
	 total_hours, overtime_hours, shift_code, shift_start, import_source, import_batch,
	 is_edited, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(employee_id, date) DO UPDATE SET
	 status = excluded.status,
	 check_in = excluded.check_in,
	 check_out = excluded.check_out,
	 break_in = excluded.break_in,
	 break_out = excluded.break_out,
	 total_hours = excluded.total_hours,
	 overtime_hours = excluded.overtime_hours,
	 shift_code = excluded.shift_code,
	 shift_start = excluded.shift_start,
	 import_source = excluded.import_source,
	 import_batch = excluded.import_batch,
	 is_edited = 0,
	 updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.EmployeeID, a.Date, a.Status, a.CheckIn, a.CheckOut, a.BreakIn, a.BreakOut,
		a.TotalHours, a.OvertimeHours, a.ShiftCode, a.ShiftStart, a.ImportSource, a.ImportBatch)
	return err
}

// Get returns the record for an employee-day, or nil.
func (r *AttendanceRepo) Get(ctx context.Context, employeeID int64, date string) (*AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE employee_id = ? AND date = ?`, employeeID, date)
	a, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttendanceRepo) ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE date = ? ORDER BY employee_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttendanceRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_records`).Scan(&n)
	return n, err
}

// MarkEdited records a manual correction: the entry is appended to the
// history and the edited flag and editor columns are set.
func (r *AttendanceRepo) MarkEdited(ctx context.Context, id string, entry EditEntry) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT edit_history FROM attendance_records WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return fmt.Errorf("load edit history %s: %w", id, err)
	}
	history, err := decodeHistory(raw)
	if err != nil {
		return err
	}
	if entry.EditedAt.IsZero() {
		entry.EditedAt = database.Now()
	}
	history = append(history, entry)
	buf, err := json.Marshal(history)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	UPDATE attendance_records
	SET is_edited = 1, edit_history = ?, edited_by = ?, edited_at = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, string(buf), entry.EditedBy, entry.EditedAt, id)
	return err
}

func decodeHistory(raw string) ([]EditEntry, error) {
	if raw == "" {
		return nil, nil
	}
	var out []EditEntry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode edit history: %w", err)
	}
	return out, nil
}

func scanAttendance(row scanner) (AttendanceRecord, error) {
	var a AttendanceRecord
	var checkIn, checkOut, breakIn, breakOut, editedAt sql.NullTime
	var total, overtime sql.NullFloat64
	var shiftCode, shiftStart, source, batch, editedBy sql.NullString
	var history string
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.Status, &checkIn, &checkOut, &breakIn, &breakOut,
		&total, &overtime, &shiftCode, &shiftStart, &source, &batch,
		&a.IsEdited, &history, &editedBy, &editedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return AttendanceRecord{}, err
	}
	a.CheckIn = nullTime(checkIn)
	a.CheckOut = nullTime(checkOut)
	a.BreakIn = nullTime(breakIn)
	a.BreakOut = nullTime(breakOut)
	a.EditedAt = nullTime(editedAt)
	a.TotalHours = nullFloat(total)
	a.OvertimeHours = nullFloat(overtime)
	a.ShiftCode = nullString(shiftCode)
	a.ShiftStart = nullString(shiftStart)
	a.ImportSource = nullString(source)
	a.ImportBatch = nullString(batch)
	a.EditedBy = nullString(editedBy)
	h, err := decodeHistory(history)
	if err != nil {
		return AttendanceRecord{}, err
	}
	a.EditHistory = h
	return a, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
