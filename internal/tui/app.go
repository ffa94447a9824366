package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/hrportal/internal/database/repository"
)

// RunStore is the slice of the import-run repository the browser needs.
type RunStore interface {
	List(ctx context.Context, limit int) ([]repository.ImportRun, error)
}

// App browses recent import runs.
type App struct {
	ctx    context.Context
	runs   RunStore
	limit  int
	list   []repository.ImportRun
	table  table.Model
	keys   keyMap
	detail bool
	status string
	width  int
	height int
}

// New returns a browser listing up to limit runs.
func New(ctx context.Context, runs RunStore, limit int) *App {
	if limit <= 0 {
		limit = 100
	}
	cols := []table.Column{
		{Title: "Started", Width: 19},
		{Title: "File", Width: 28},
		{Title: "Type", Width: 18},
		{Title: "Status", Width: 19},
		{Title: "Rows", Width: 14},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(12))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Bold(true)
	t.SetStyles(styles)
	return &App{ctx: ctx, runs: runs, limit: limit, table: t, keys: defaultKeys()}
}

func (a *App) Init() tea.Cmd {
	return a.loadRuns()
}

func (a *App) loadRuns() tea.Cmd {
	return func() tea.Msg {
		list, err := a.runs.List(a.ctx, a.limit)
		if err != nil {
			return errMsg{err}
		}
		return runsMsg(list)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(m, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(m, a.keys.Reload):
			a.status = "reloading..."
			return a, a.loadRuns()
		case key.Matches(m, a.keys.Detail):
			if len(a.list) > 0 {
				a.detail = !a.detail
			}
			return a, nil
		case key.Matches(m, a.keys.Back):
			a.detail = false
			return a, nil
		}
		if a.detail {
			return a, nil
		}
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(m)
		return a, cmd
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		if h := m.Height - 8; h > 3 {
			a.table.SetHeight(h)
		}
	case runsMsg:
		a.list = []repository.ImportRun(m)
		a.table.SetRows(toRows(a.list))
		if a.table.Cursor() >= len(a.list) {
			a.table.SetCursor(0)
		}
		a.status = fmt.Sprintf("%d runs", len(a.list))
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import runs"))
	b.WriteString("\n")
	if a.detail {
		if run, ok := a.selected(); ok {
			b.WriteString(renderDetail(run))
		}
	} else {
		b.WriteString(a.table.View())
	}
	b.WriteString("\n")
	if a.detail {
		b.WriteString(helpLine(a.keys.Back, a.keys.Reload, a.keys.Quit))
	} else {
		b.WriteString(helpLine(a.keys.Detail, a.keys.Reload, a.keys.Quit))
	}
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	return b.String()
}

// selected returns the run under the cursor.
func (a *App) selected() (repository.ImportRun, bool) {
	i := a.table.Cursor()
	if i < 0 || i >= len(a.list) {
		return repository.ImportRun{}, false
	}
	return a.list[i], true
}

func toRows(list []repository.ImportRun) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, r := range list {
		rows = append(rows, table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FileName,
			r.FileType,
			r.Status,
			fmt.Sprintf("%d/%d (%d err)", r.ProcessedRecords, r.TotalRecords, r.ErrorRecords),
		})
	}
	return rows
}

func renderDetail(r repository.ImportRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:       %s\n", r.ID)
	fmt.Fprintf(&b, "Batch:     %s\n", r.BatchID)
	fmt.Fprintf(&b, "File:      %s (%s)\n", r.FileName, r.FileType)
	fmt.Fprintf(&b, "Status:    %s\n", statusStyle(r.Status).Render(r.Status))
	fmt.Fprintf(&b, "Rows:      %d total, %d processed, %d errors\n", r.TotalRecords, r.ProcessedRecords, r.ErrorRecords)
	fmt.Fprintf(&b, "Started:   %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if r.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", r.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			b.WriteString("  " + e + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			b.WriteString("  " + w + "\n")
		}
	}
	return b.String()
}

// messages
type runsMsg []repository.ImportRun

type errMsg struct{ error }

// styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	keyStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case repository.RunCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case repository.RunPartiallyCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case repository.RunFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	default:
		return lipgloss.NewStyle()
	}
}
