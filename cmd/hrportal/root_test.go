package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hrportal/internal/config"
)

// cliEnv points config at a temp home and the repo's migrations.
func cliEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	migrations, err := filepath.Abs("../../internal/database/migrations")
	require.NoError(t, err)
	t.Setenv("HOME", home)
	t.Setenv("HRPORTAL_CONFIG", "")
	t.Setenv("HRPORTAL_DATABASE_PATH", filepath.Join(home, "hr.db"))
	t.Setenv("HRPORTAL_DATABASE_MIGRATIONS", migrations)
	t.Setenv("HRPORTAL_LOG_LEVEL", "error")
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func TestCLI_SampleImportAndList(t *testing.T) {
	home := cliEnv(t)
	dir := filepath.Join(home, "samples")

	out, err := runCLI(t, "sample", dir, "--employees", "5", "--date", "2024-10-01")
	require.NoError(t, err)
	require.Contains(t, out, "attendance-20241001.srp")

	out, err = runCLI(t, "import", "attendance", filepath.Join(dir, "attendance-20241001.srp"), "--date", "2024-10-01")
	require.NoError(t, err)
	require.Contains(t, out, "COMPLETED")
	require.Contains(t, out, "Imported 5 of 5 rows")

	out, err = runCLI(t, "import", "productivity", filepath.Join(dir, "productivity-20241001.csv"))
	require.NoError(t, err)
	require.Contains(t, out, "Imported 5 of 5 rows")

	out, err = runCLI(t, "runs", "list", "--limit", "10")
	require.NoError(t, err)
	require.Contains(t, out, "attendance-20241001.srp")
	require.Contains(t, out, "productivity-20241001.csv")

	out, err = runCLI(t, "prune", "--older-than", "0d")
	require.NoError(t, err)
	require.Contains(t, out, "pruned 2 runs")
}

func TestCLI_ExitCodes(t *testing.T) {
	home := cliEnv(t)

	bad := filepath.Join(home, "scan.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF"), 0o644))

	_, err := runCLI(t, "import", "attendance", bad, "--date", "2024-10-01")
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))

	_, err = runCLI(t, "import", "attendance", bad, "--date", "01/10/2024")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = runCLI(t, "import", "attendance", filepath.Join(home, "missing.csv"), "--date", "2024-10-01")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = runCLI(t, "reset")
	require.Equal(t, exitUsage, exitCode(err))

	out, err := runCLI(t, "reset", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "reset complete")

	t.Setenv("HRPORTAL_INGEST_ERROR_TOLERANCE", "2")
	_, err = runCLI(t, "migrate")
	require.Equal(t, exitValidation, exitCode(err))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, 1, exitCode(errors.New("plain")))
	require.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("locked"))))
	require.NoError(t, withCode(exitDB, nil))
}

func TestParseAge(t *testing.T) {
	t.Parallel()

	d, err := parseAge("30d")
	require.NoError(t, err)
	require.Equal(t, 30*24*time.Hour, d)

	d, err = parseAge("90m")
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, d)

	for _, s := range []string{"", "xd", "-1d", "-5h", "soon"} {
		_, err := parseAge(s)
		require.Error(t, err, s)
	}
}

func TestIngestOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Ingest: config.IngestConfig{
		Timezone:               "Asia/Kolkata",
		FixedWidthExt:          "DAT",
		HeaderScanLines:        20,
		ProductivityHeader:     "Member",
		PlaceholderEmailDomain: "staff.local",
		UnknownStatusDefault:   "absent",
		ErrorTolerance:         0.25,
	}}
	opts, err := ingestOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, ".dat", opts.Profile.FixedWidth.Extension)
	require.Equal(t, "Member", opts.Profile.Productivity.HeaderFragment)
	require.Equal(t, 20, opts.Profile.Productivity.HeaderScanLines)
	require.Equal(t, "Asia/Kolkata", opts.Location.String())
	require.Equal(t, "ABSENT", opts.UnknownStatus)
	require.Equal(t, "staff.local", opts.EmailDomain)

	cfg.Ingest.FixedWidthExt = "csv"
	_, err = ingestOptions(cfg)
	require.Error(t, err)
}
