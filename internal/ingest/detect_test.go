package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectName(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultProfile())
	require.Equal(t, FormatFixedWidth, d.DetectName("october.SRP"))
	require.Equal(t, FormatDelimited, d.DetectName("october.csv"))
	require.Equal(t, FormatDelimited, d.DetectName("october.TXT"))
	require.Equal(t, FormatUnsupported, d.DetectName("october.xlsx"))
	require.Equal(t, FormatUnsupported, d.DetectName("october"))
}

func TestDetect_Structural(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultProfile())
	prod := []byte(strings.Join(productivityLines, "\n"))
	require.Equal(t, FormatProductivity, d.Detect("flowace.csv", prod))

	attendance := []byte("Employee Code,Employee Name,Status\nEMP1,Asha,P\n")
	require.Equal(t, FormatDelimited, d.Detect("attendance.csv", attendance))

	report := []byte("   Daily Performance Register   Page No: 1\n12 EMP007 4521 Asha Rao S1 09:00 09:05 13:00 13:30 18:10 8.50 P\n")
	require.Equal(t, FormatFixedWidth, d.Detect("terminal.txt", report))
	require.Equal(t, FormatDelimited, d.Detect("plain.txt", []byte("code,name\nEMP1,Asha\n")))
}

func TestLocateHeader(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultProfile())
	at, err := d.LocateHeader(productivityLines)
	require.NoError(t, err)
	require.Equal(t, 4, at)

	_, err = d.LocateHeader([]string{"nothing", "here"})
	require.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestAcceptLists(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultProfile())
	require.True(t, d.AcceptAttendance("a.srp"))
	require.True(t, d.AcceptAttendance("a.txt"))
	require.True(t, d.AcceptAttendance("a.csv"))
	require.False(t, d.AcceptAttendance("a.pdf"))
	require.True(t, d.AcceptProductivity("a.CSV"))
	require.False(t, d.AcceptProductivity("a.txt"))
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	lines := SplitLines([]byte("\xEF\xBB\xBFa,b\r\nc,d\r\n\r\n"))
	require.Equal(t, []string{"a,b", "c,d"}, lines)
	require.Nil(t, SplitLines(nil))
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	p, err := LoadProfile("")
	require.NoError(t, err)
	require.Equal(t, ".srp", p.FixedWidth.Extension)

	path := filepath.Join(t.TempDir(), "profile.toml")
	body := `version = 1

[fixed_width]
extension = "dat"
markers = ["BIOMETRIC SUMMARY"]

[productivity]
header_fragment = "Member"

[delimited.columns]
code = ["Staff No"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	p, err = LoadProfile(path)
	require.NoError(t, err)
	require.Equal(t, ".dat", p.FixedWidth.Extension)
	require.Equal(t, []string{"BIOMETRIC SUMMARY"}, p.FixedWidth.Markers)
	require.Equal(t, "Member", p.Productivity.HeaderFragment)
	require.Equal(t, 50, p.Productivity.HeaderScanLines)
	require.Equal(t, []string{"staff no"}, p.Delimited.Columns[FieldCode])
	require.NotEmpty(t, p.Delimited.Columns[FieldName], "unlisted fields keep their defaults")

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[fixed_width]\nextension = \"csv\"\n"), 0o644))
	_, err = LoadProfile(bad)
	require.Error(t, err)
}
