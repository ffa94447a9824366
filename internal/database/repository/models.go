package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repos can run inside a
// caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Attendance statuses accepted by the store.
const (
	StatusPresent       = "PRESENT"
	StatusAbsent        = "ABSENT"
	StatusLate          = "LATE"
	StatusWFHApproved   = "WFH_APPROVED"
	StatusLeaveApproved = "LEAVE_APPROVED"
)

// Import run states. PROCESSING is the only non-terminal one.
const (
	RunProcessing         = "PROCESSING"
	RunCompleted          = "COMPLETED"
	RunFailed             = "FAILED"
	RunPartiallyCompleted = "PARTIALLY_COMPLETED"
)

// Employee represents an employee identity row.
type Employee struct {
	ID          int64
	Code        string
	Name        string
	Email       string
	Active      bool
	Synthesized bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EditEntry is one element of an attendance record's edit history.
type EditEntry struct {
	Field    string    `json:"field"`
	OldValue string    `json:"oldValue"`
	NewValue string    `json:"newValue"`
	EditedBy string    `json:"editedBy"`
	EditedAt time.Time `json:"editedAt"`
	Reason   string    `json:"reason,omitempty"`
}

// AttendanceRecord represents one employee-day.
type AttendanceRecord struct {
	ID            string
	EmployeeID    int64
	Date          string // YYYY-MM-DD
	Status        string
	CheckIn       *time.Time
	CheckOut      *time.Time
	BreakIn       *time.Time
	BreakOut      *time.Time
	TotalHours    *float64
	OvertimeHours *float64
	ShiftCode     *string
	ShiftStart    *string
	ImportSource  *string
	ImportBatch   *string
	IsEdited      bool
	EditHistory   []EditEntry
	EditedBy      *string
	EditedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductivityRecord represents one tracker row for an employee, date and batch.
type ProductivityRecord struct {
	ID                     string
	EmployeeID             *int64
	EmployeeCode           string
	EmployeeName           string
	Email                  *string
	Team                   *string
	Date                   string
	BatchID                string
	LoggedHours            float64
	ActiveHours            float64
	IdleHours              float64
	ProductiveHours        float64
	UnproductiveHours      float64
	NeutralHours           float64
	BreakHours             float64
	MeetingHours           float64
	ManualHours            float64
	ActivityPercentage     *float64
	ProductivityPercentage *float64
	EfficiencyPercentage   *float64
	FocusPercentage        *float64
	IdleMinutes            int
	MeetingMinutes         int
	LateMinutes            int
	ClockIn                *string
	ClockOut               *string
	RawRow                 string
	RawData                map[string]string
	UploadStatus           string
	FileName               string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ImportRun summarises one uploaded file.
type ImportRun struct {
	ID               string
	FileName         string
	FileType         string
	Status           string
	TotalRecords     int
	ProcessedRecords int
	ErrorRecords     int
	BatchID          string
	Errors           []string
	Warnings         []string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// scanner handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}
