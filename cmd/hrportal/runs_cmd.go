package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/tui"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(cmd.Context(), repository.NewImportRunRepo(db), limit), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.PersistentFlags().IntVar(&limit, "limit", 100, "Number of runs to show")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return withCode(exitUsage, fmt.Errorf("--limit must be positive"))
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			runs, err := repository.NewImportRunRepo(db).List(cmd.Context(), limit)
			if err != nil {
				return withCode(exitDB, err)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func printRuns(w io.Writer, runs []repository.ImportRun) {
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-20s %-19s %d/%d (%d errors)  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.ID, r.FileType, r.Status,
			r.ProcessedRecords, r.TotalRecords, r.ErrorRecords,
			r.FileName)
	}
}
