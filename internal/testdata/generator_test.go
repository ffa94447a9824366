package testdata

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hrportal/internal/ingest"
)

func TestSamplesParseCleanly(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	emps := Employees(45, 7)
	require.Len(t, emps, 45)
	require.Equal(t, emps, Employees(45, 7), "same seed, same employees")

	p := ingest.DefaultProfile()

	fw := ingest.ParseFixedWidth(ingest.SplitLines(FixedWidthReport(emps, date, 7)), date, p)
	require.Empty(t, fw.Dropped)
	require.Len(t, fw.Rows, 45)
	require.Equal(t, emps[0].Code, fw.Rows[0].Identity.Code)
	require.Equal(t, emps[0].Name, fw.Rows[0].Identity.Name)

	dl, err := ingest.ParseDelimited(ingest.SplitLines(DelimitedExport(emps, 7)), date, p)
	require.NoError(t, err)
	require.Empty(t, dl.Dropped)
	require.Len(t, dl.Rows, 45)

	pr, err := ingest.ParseProductivity(ingest.SplitLines(ProductivityCSV(emps, date, 7)), time.Time{}, p)
	require.NoError(t, err)
	require.Empty(t, pr.Dropped)
	require.Len(t, pr.Rows, 45)
	require.Equal(t, "2024-10-01", pr.Rows[0].Date.Format(time.DateOnly))
}

func TestWriteSamples(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := WriteSamples(dir, 5, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		require.NotZero(t, info.Size())
	}
}
