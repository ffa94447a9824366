package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hrportal/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func TestEmployeeRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewEmployeeRepo(newTestDB(t))

	id, err := repo.Insert(ctx, Employee{ID: 1042, Code: "1042", Name: "Asha Rao", Email: "asha@acme.test", Active: true})
	require.NoError(t, err)
	require.Equal(t, int64(1042), id)

	auto, err := repo.Insert(ctx, Employee{Code: "EMP007", Name: "Kiran", Email: "emp007@employees.local", Active: true, Synthesized: true})
	require.NoError(t, err)
	require.NotZero(t, auto)

	got, err := repo.GetByCode(ctx, "1042")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Asha Rao", got.Name)
	require.True(t, got.Active)

	got, err = repo.GetByEmail(ctx, "ASHA@acme.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(1042), got.ID)

	require.NoError(t, repo.UpdateName(ctx, 1042, "Asha R."))
	got, err = repo.GetByID(ctx, 1042)
	require.NoError(t, err)
	require.Equal(t, "Asha R.", got.Name)
	require.Equal(t, "asha@acme.test", got.Email)

	missing, err := repo.GetByCode(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
	missing, err = repo.GetByEmail(ctx, "")
	require.NoError(t, err)
	require.Nil(t, missing)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAttendanceRepo_UpsertReplacesAndKeepsAudit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	emps := NewEmployeeRepo(db)
	repo := NewAttendanceRepo(db)

	empID, err := emps.Insert(ctx, Employee{Code: "EMP010", Name: "Rahul", Active: true})
	require.NoError(t, err)

	first := AttendanceRecord{
		ID:           "rec-1",
		EmployeeID:   empID,
		Date:         "2024-10-01",
		Status:       StatusAbsent,
		ImportSource: ptr("FIXED_WIDTH_REPORT"),
		ImportBatch:  ptr("batch-1"),
	}
	require.NoError(t, repo.Upsert(ctx, first))
	require.NoError(t, repo.MarkEdited(ctx, "rec-1", EditEntry{Field: "status", OldValue: "ABSENT", NewValue: "LEAVE_APPROVED", EditedBy: "hr@acme.test"}))

	checkIn := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	second := AttendanceRecord{
		ID:           "rec-2",
		EmployeeID:   empID,
		Date:         "2024-10-01",
		Status:       StatusPresent,
		CheckIn:      &checkIn,
		TotalHours:   ptr(8.5),
		ImportSource: ptr("DELIMITED"),
		ImportBatch:  ptr("batch-2"),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := repo.Get(ctx, empID, "2024-10-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "rec-1", got.ID, "the first id survives the conflict")
	require.Equal(t, StatusPresent, got.Status)
	require.NotNil(t, got.CheckIn)
	require.True(t, checkIn.Equal(*got.CheckIn))
	require.Equal(t, "batch-2", *got.ImportBatch)
	require.False(t, got.IsEdited, "a fresh import clears the edited flag")
	require.Len(t, got.EditHistory, 1, "edit history is preserved")
	require.Equal(t, "hr@acme.test", *got.EditedBy)
	require.NotNil(t, got.EditedAt)

	list, err := repo.ListByDate(ctx, "2024-10-01")
	require.NoError(t, err)
	require.Len(t, list, 1)

	none, err := repo.Get(ctx, empID, "2024-10-02")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestProductivityRepo_BatchIsPartOfKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewProductivityRepo(newTestDB(t))

	rec := ProductivityRecord{
		ID:           "p-1",
		EmployeeCode: "EMP007",
		EmployeeName: "Asha Rao",
		Date:         "2024-10-01",
		BatchID:      "batch-a",
		LoggedHours:  7.5,
		RawRow:       "Asha Rao,EMP007,07:30:00",
		RawData:      map[string]string{"Logged Hours": "07:30:00"},
		UploadStatus: "PROCESSED",
		FileName:     "flowace.csv",
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.ID = "p-2"
	rec.LoggedHours = 8
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.ID = "p-3"
	rec.BatchID = "batch-b"
	rec.ProductivityPercentage = ptr(82.5)
	require.NoError(t, repo.Upsert(ctx, rec))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	a, err := repo.ListByBatch(ctx, "batch-a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.Equal(t, "p-1", a[0].ID)
	require.InDelta(t, 8.0, a[0].LoggedHours, 1e-9)
	require.Nil(t, a[0].ActivityPercentage)
	require.Nil(t, a[0].EmployeeID)
	require.Equal(t, "07:30:00", a[0].RawData["Logged Hours"])

	b, err := repo.ListByBatch(ctx, "batch-b")
	require.NoError(t, err)
	require.Len(t, b, 1)
	require.InDelta(t, 82.5, *b[0].ProductivityPercentage, 1e-9)
}

func TestImportRunRepo_FinalizeOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewImportRunRepo(newTestDB(t))

	started := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, ImportRun{ID: "run-1", FileName: "oct.srp", FileType: "FIXED_WIDTH_REPORT", BatchID: "b1", StartedAt: started}))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, RunProcessing, got.Status)
	require.Empty(t, got.Errors)
	require.Nil(t, got.CompletedAt)

	final := ImportRun{
		ID:               "run-1",
		Status:           RunPartiallyCompleted,
		TotalRecords:     11,
		ProcessedRecords: 10,
		ErrorRecords:     1,
		Errors:           []string{"line 7: no employee code"},
	}
	require.NoError(t, repo.Finalize(ctx, final))

	final.Status = RunCompleted
	err = repo.Finalize(ctx, final)
	require.ErrorIs(t, err, ErrRunFinalized)

	got, err = repo.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, RunPartiallyCompleted, got.Status)
	require.Equal(t, 10, got.ProcessedRecords)
	require.Equal(t, []string{"line 7: no employee code"}, got.Errors)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, repo.Create(ctx, ImportRun{ID: "run-2", FileName: "new.csv", FileType: "DELIMITED", BatchID: "b2", StartedAt: started.Add(48 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, ImportRun{ID: "run-3", FileName: "stuck.csv", FileType: "DELIMITED", BatchID: "b3", StartedAt: started}))

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].ID)

	deleted, err := repo.DeleteBefore(ctx, started.Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted, "processing runs are never pruned")

	gone, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Nil(t, gone)
}
