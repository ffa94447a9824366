package testdata

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Employee is a synthetic staff member used across the sample files.
type Employee struct {
	Code  string
	Badge int
	Name  string
	Email string
	Team  string
}

var (
	firstNames = []string{"Asha", "Kiran", "Rahul", "Meera", "Vikram", "Priya", "Arjun", "Divya", "Sanjay", "Nisha"}
	lastNames  = []string{"Rao", "Das", "Dev", "Iyer", "Shah", "Nair", "Menon", "Kapoor", "Gupta", "Pillai"}
	teams      = []string{"Platform", "Design", "Support", "Finance"}
)

// Employees returns n distinct employees. The same seed yields the same set.
func Employees(n int, seed int64) []Employee {
	r := rand.New(rand.NewSource(seed))
	out := make([]Employee, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i/len(firstNames)+r.Intn(len(lastNames)))%len(lastNames)]
		code := fmt.Sprintf("EMP%03d", i+1)
		out = append(out, Employee{
			Code:  code,
			Badge: 4500 + i,
			Name:  first + " " + last,
			Email: strings.ToLower(first+"."+last) + fmt.Sprintf("%d@acme.test", i+1),
			Team:  teams[r.Intn(len(teams))],
		})
	}
	return out
}

// FixedWidthReport renders a terminal "performance register" for date with
// page headers, separators and one line per employee. Roughly one in eight
// employees is absent.
func FixedWidthReport(emps []Employee, date time.Time, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	var b bytes.Buffer
	const perPage = 20
	for i, e := range emps {
		if i%perPage == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "                 Daily Performance Register            Page No: %d\n", i/perPage+1)
			fmt.Fprintf(&b, "Run Date: %s\n", date.Format("02/01/2006"))
			b.WriteString("SNo Emp Code Badge Name                 Shift Start In    LOut  LIn   Out   Hrs   St\n")
			b.WriteString(strings.Repeat("-", 86) + "\n")
		}
		if r.Intn(8) == 0 {
			fmt.Fprintf(&b, "%-3d %-8s %-5d %-20s %-5s 09:00 00:00 00:00 00:00 00:00       A\n", i+1, e.Code, e.Badge, e.Name, "S1")
			continue
		}
		in := 9*60 + r.Intn(30)
		lout := 13*60 + r.Intn(15)
		lin := lout + 30
		out := 17*60 + 30 + r.Intn(60)
		hours := float64(out-in-30) / 60
		fmt.Fprintf(&b, "%-3d %-8s %-5d %-20s %-5s 09:00 %s %s %s %s %5.2f P\n",
			i+1, e.Code, e.Badge, e.Name, "S1", hhmm(in), hhmm(lout), hhmm(lin), hhmm(out), hours)
	}
	b.WriteString(strings.Repeat("=", 86) + "\n")
	return b.Bytes()
}

// DelimitedExport renders a comma-separated attendance export with a header.
func DelimitedExport(emps []Employee, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	var b bytes.Buffer
	b.WriteString("code,name,checkIn,checkOut,breakIn,breakOut,status,hours\n")
	for _, e := range emps {
		switch r.Intn(10) {
		case 0:
			fmt.Fprintf(&b, "%s,%s,,,,,ABSENT,\n", e.Code, e.Name)
		case 1:
			fmt.Fprintf(&b, "%s,%s,,,,,WFH,8\n", e.Code, e.Name)
		default:
			in := 9*60 + r.Intn(45)
			out := in + 8*60 + r.Intn(90)
			status := "PRESENT"
			if in > 9*60+30 {
				status = "LATE"
			}
			fmt.Fprintf(&b, "%s,%s,%s,%s,13:00,13:30,%s,%.1f\n", e.Code, e.Name, hhmm(in), hhmm(out), status, float64(out-in-30)/60)
		}
	}
	return b.Bytes()
}

// ProductivityCSV renders a tracker export: provider metadata, then the
// header, then one row per employee for date. Some metrics are "-".
func ProductivityCSV(emps []Employee, date time.Time, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	var b bytes.Buffer
	b.WriteString("Flowace Productivity Report\n")
	b.WriteString("Organisation: Acme Corp\n")
	fmt.Fprintf(&b, "Period: %s - %s\n\n", date.Format("02 Jan 2006"), date.Format("02 Jan 2006"))
	b.WriteString("Employee Name,Employee ID,Email,Team,Date,Logged Hours,Active Hours,Idle Hours,Productive Hours,Unproductive Hours,Activity %,Productivity %,Idle Minutes\n")
	for _, e := range emps {
		logged := 6*3600 + r.Intn(3*3600)
		idle := r.Intn(3600)
		active := logged - idle
		productive := active * (60 + r.Intn(35)) / 100
		activity := "-"
		if r.Intn(5) > 0 {
			activity = fmt.Sprintf("%d%%", 100*active/logged)
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%d%%,%d\n",
			e.Name, e.Code, e.Email, e.Team, date.Format(time.DateOnly),
			hhmmss(logged), hhmmss(active), hhmmss(idle), hhmmss(productive), hhmmss(active-productive),
			activity, 100*productive/logged, idle/60)
	}
	return b.Bytes()
}

// WriteSamples writes one file of each format into dir and returns their
// paths.
func WriteSamples(dir string, n int, date time.Time, seed int64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	emps := Employees(n, seed)
	stamp := date.Format("20060102")
	files := []struct {
		name string
		body []byte
	}{
		{"attendance-" + stamp + ".srp", FixedWidthReport(emps, date, seed)},
		{"attendance-" + stamp + ".csv", DelimitedExport(emps, seed)},
		{"productivity-" + stamp + ".csv", ProductivityCSV(emps, date, seed)},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, f.body, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func hhmm(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func hhmmss(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
