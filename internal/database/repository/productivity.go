package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const productivityColumns = `id, employee_id, employee_code, employee_name, email, team, date, batch_id,
 logged_hours, active_hours, idle_hours, productive_hours, unproductive_hours, neutral_hours,
 break_hours, meeting_hours, manual_hours,
 activity_percentage, productivity_percentage, efficiency_percentage, focus_percentage,
 idle_minutes, meeting_minutes, late_minutes, clock_in, clock_out,
 raw_row, raw_data, upload_status, file_name, created_at, updated_at`

// ProductivityRepo handles tracker records.
type ProductivityRepo struct{ db DBTX }

func NewProductivityRepo(db DBTX) *ProductivityRepo { return &ProductivityRepo{db: db} }

// Upsert writes p keyed on (employee code, date, batch). Rows from other
// batches are never touched.
func (r *ProductivityRepo) Upsert(ctx context.Context, p ProductivityRecord) error {
	raw := p.RawData
	if raw == nil {
		raw = map[string]string{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode raw data: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO productivity_records(
	 id, employee_id, employee_code, employee_name, email, team, date, batch_id,
	 logged_hours, active_hours, idle_hours, productive_hours, unproductive_hours, neutral_hours,
	 break_hours, meeting_hours, manual_hours,
	 activity_percentage, productivity_percentage, efficiency_percentage, focus_percentage,
	 idle_minutes, meeting_minutes, late_minutes, clock_in, clock_out,
	 raw_row, raw_data, upload_status, file_name, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
	 CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(employee_code, date, batch_id) DO UPDATE SET
	 employee_id = excluded.employee_id,
	 employee_name = excluded.employee_name,
	 email = excluded.email,
	 team = excluded.team,
	 logged_hours = excluded.logged_hours,
	 active_hours = excluded.active_hours,
	 idle_hours = excluded.idle_hours,
	 productive_hours = excluded.productive_hours,
	 unproductive_hours = excluded.unproductive_hours,
	 neutral_hours = excluded.neutral_hours,
	 break_hours = excluded.break_hours,
	 meeting_hours = excluded.meeting_hours,
	 manual_hours = excluded.manual_hours,
	 activity_percentage = excluded.activity_percentage,
	 productivity_percentage = excluded.productivity_percentage,
	 efficiency_percentage = excluded.efficiency_percentage,
	 focus_percentage = excluded.focus_percentage,
	 idle_minutes = excluded.idle_minutes,
	 meeting_minutes = excluded.meeting_minutes,
	 late_minutes = excluded.late_minutes,
	 clock_in = excluded.clock_in,
	 clock_out = excluded.clock_out,
	 raw_row = excluded.raw_row,
	 raw_data = excluded.raw_data,
	 upload_status = excluded.upload_status,
	 file_name = excluded.file_name,
	 updated_at = CURRENT_TIMESTAMP
	`,
		p.ID, p.EmployeeID, p.EmployeeCode, p.EmployeeName, p.Email, p.Team, p.Date, p.BatchID,
		p.LoggedHours, p.ActiveHours, p.IdleHours, p.ProductiveHours, p.UnproductiveHours, p.NeutralHours,
		p.BreakHours, p.MeetingHours, p.ManualHours,
		p.ActivityPercentage, p.ProductivityPercentage, p.EfficiencyPercentage, p.FocusPercentage,
		p.IdleMinutes, p.MeetingMinutes, p.LateMinutes, p.ClockIn, p.ClockOut,
		p.RawRow, string(data), p.UploadStatus, p.FileName)
	return err
}

func (r *ProductivityRepo) ListByBatch(ctx context.Context, batchID string) ([]ProductivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productivityColumns+` FROM productivity_records WHERE batch_id = ? ORDER BY employee_code, date`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductivityRecord
	for rows.Next() {
		p, err := scanProductivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductivityRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM productivity_records`).Scan(&n)
	return n, err
}

func scanProductivity(row scanner) (ProductivityRecord, error) {
	var p ProductivityRecord
	var employeeID sql.NullInt64
	var email, team, clockIn, clockOut sql.NullString
	var activity, productivity, efficiency, focus sql.NullFloat64
	var data string
	if err := row.Scan(&p.ID, &employeeID, &p.EmployeeCode, &p.EmployeeName, &email, &team, &p.Date, &p.BatchID,
		&p.LoggedHours, &p.ActiveHours, &p.IdleHours, &p.ProductiveHours, &p.UnproductiveHours, &p.NeutralHours,
		&p.BreakHours, &p.MeetingHours, &p.ManualHours,
		&activity, &productivity, &efficiency, &focus,
		&p.IdleMinutes, &p.MeetingMinutes, &p.LateMinutes, &clockIn, &clockOut,
		&p.RawRow, &data, &p.UploadStatus, &p.FileName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return ProductivityRecord{}, err
	}
	if employeeID.Valid {
		id := employeeID.Int64
		p.EmployeeID = &id
	}
	p.Email = nullString(email)
	p.Team = nullString(team)
	p.ClockIn = nullString(clockIn)
	p.ClockOut = nullString(clockOut)
	p.ActivityPercentage = nullFloat(activity)
	p.ProductivityPercentage = nullFloat(productivity)
	p.EfficiencyPercentage = nullFloat(efficiency)
	p.FocusPercentage = nullFloat(focus)
	if data != "" {
		if err := json.Unmarshal([]byte(data), &p.RawData); err != nil {
			return ProductivityRecord{}, fmt.Errorf("decode raw data: %w", err)
		}
	}
	return p, nil
}
