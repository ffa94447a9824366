package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/hrportal/internal/service"
)

type importOptions struct {
	date string
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an attendance or productivity file",
	}
	cmd.AddCommand(newImportAttendanceCmd(a))
	cmd.AddCommand(newImportProductivityCmd(a))
	return cmd
}

func newImportAttendanceCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "attendance FILE",
		Short: "Import a fixed-width report or delimited attendance export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(opts.date)
			if err != nil {
				return err
			}
			return a.runImport(cmd, args[0], date, (*service.IngestService).ImportAttendance)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "Attendance date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newImportProductivityCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "productivity FILE",
		Short: "Import a time-tracker productivity export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(opts.date)
			if err != nil {
				return err
			}
			return a.runImport(cmd, args[0], date, (*service.IngestService).ImportProductivity)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "Fallback date YYYY-MM-DD for rows without one")
	return cmd
}

type importFunc func(*service.IngestService, context.Context, service.Upload) (service.Result, error)

func (a *app) runImport(cmd *cobra.Command, path string, date time.Time, run importFunc) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read %s: %w", path, err))
	}
	svc, err := a.ingestService()
	if err != nil {
		return err
	}

	res, err := run(svc, cmd.Context(), service.Upload{
		FileName: filepath.Base(path),
		Content:  content,
		Date:     date,
	})
	printResult(cmd.OutOrStdout(), res)
	if err != nil {
		if service.IsInputError(err) {
			return withCode(exitValidation, err)
		}
		return withCode(exitDB, err)
	}
	return nil
}

func printResult(w io.Writer, res service.Result) {
	if res.RunID != "" {
		fmt.Fprintf(w, "run %s  batch %s  %s\n", res.RunID, res.BatchID, res.Status)
	}
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	for _, le := range res.LineErrors {
		fmt.Fprintf(w, "  line %d: %s\n", le.Line, le.Reason)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, withCode(exitUsage, errors.New("--date must be YYYY-MM-DD"))
	}
	return d, nil
}
