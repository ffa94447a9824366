package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// sniffLines bounds how far Detect looks for fixed-width markers in a .txt.
const sniffLines = 10

// Detector picks a parser for an uploaded file.
type Detector struct {
	Profile Profile
}

// NewDetector returns a detector for p.
func NewDetector(p Profile) *Detector {
	return &Detector{Profile: p}
}

func (d *Detector) ext(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// DetectName classifies a file by extension alone. The productivity format
// has no extension of its own and is never returned here.
func (d *Detector) DetectName(name string) Format {
	switch d.ext(name) {
	case d.Profile.FixedWidth.Extension:
		return FormatFixedWidth
	case ".csv", ".txt":
		return FormatDelimited
	default:
		return FormatUnsupported
	}
}

// Detect classifies a file using its name and content. A .csv carrying the
// productivity header inside the scan window is a productivity export, and a
// .txt whose first lines carry report boilerplate is a fixed-width report.
func (d *Detector) Detect(name string, content []byte) Format {
	f := d.DetectName(name)
	if f != FormatDelimited {
		return f
	}
	lines := SplitLines(content)
	switch d.ext(name) {
	case ".csv":
		if at, err := d.LocateHeader(lines); err == nil && hasProductivityMetrics(lines[at]) {
			return FormatProductivity
		}
	case ".txt":
		for i, line := range lines {
			if i >= sniffLines {
				break
			}
			if d.isBoilerplate(line) && !strings.Contains(line, ",") && !strings.Contains(line, "\t") {
				return FormatFixedWidth
			}
		}
	}
	return FormatDelimited
}

// hasProductivityMetrics tells a tracker header apart from an attendance
// export that merely shares the name column.
func hasProductivityMetrics(header string) bool {
	rec, err := splitRecord(header, ',')
	if err != nil {
		return false
	}
	cols := mapColumns(rec, productivityColumns)
	for _, key := range []string{"logged", "active", "productive"} {
		if _, ok := cols[key]; ok {
			return true
		}
	}
	return false
}

// LocateHeader returns the index of the first line containing the
// productivity header fragment, or ErrHeaderNotFound when it does not appear
// within the scan window.
func (d *Detector) LocateHeader(lines []string) (int, error) {
	return locateHeader(lines, d.Profile.Productivity.HeaderFragment, d.Profile.Productivity.HeaderScanLines)
}

// AcceptAttendance reports whether name passes the attendance upload
// allow-list.
func (d *Detector) AcceptAttendance(name string) bool {
	return d.DetectName(name) != FormatUnsupported
}

// AcceptProductivity reports whether name passes the productivity upload
// allow-list.
func (d *Detector) AcceptProductivity(name string) bool {
	return d.ext(name) == ".csv"
}

func (d *Detector) isBoilerplate(line string) bool {
	for _, m := range d.Profile.FixedWidth.Markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// SplitLines strips a UTF-8 BOM and splits content on LF, dropping CRs.
func SplitLines(content []byte) []string {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
