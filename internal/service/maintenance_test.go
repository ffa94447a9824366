package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hrportal/internal/database/repository"
)

func TestMaintenance_PruneAndReset(t *testing.T) {
	t.Parallel()
	svc, db, ctx := setupIngestTest(t)

	res, err := svc.ImportAttendance(ctx, Upload{FileName: "a.csv", Content: []byte("code,name,status\nEMP001,Asha Rao,P\n"), Date: testDate})
	require.NoError(t, err)

	m := &MaintenanceService{DB: db}
	n, err := m.PruneRuns(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = m.PruneRuns(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	run, err := repository.NewImportRunRepo(db).Get(ctx, res.RunID)
	require.NoError(t, err)
	require.Nil(t, run)

	require.NoError(t, m.Reset(ctx, false))
	count, err := repository.NewAttendanceRepo(db).Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
	emps, err := repository.NewEmployeeRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 1, "employees survive a data reset")

	require.NoError(t, m.Reset(ctx, true))
	emps, err = repository.NewEmployeeRepo(db).List(ctx)
	require.NoError(t, err)
	require.Empty(t, emps)

	_, err = (&MaintenanceService{}).PruneRuns(ctx, time.Now())
	require.Error(t, err)
}
