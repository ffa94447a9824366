package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/hrportal/internal/service"
	"github.com/jask/hrportal/internal/testdata"
)

func newPruneCmd(a *app) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finalized import runs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := parseAge(olderThan)
			if err != nil {
				return withCode(exitUsage, err)
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			svc := &service.MaintenanceService{DB: db}
			n, err := svc.PruneRuns(cmd.Context(), time.Now().Add(-age))
			if err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d runs\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "90d", "Age cutoff, e.g. 30d or 720h")
	return cmd
}

// parseAge accepts a Go duration or a whole number of days suffixed with d.
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openDB(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s\n", a.cfg.Database.Path)
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var (
		yes       bool
		employees bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all imported attendance, productivity and run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withCode(exitUsage, errors.New("refusing to reset without --yes"))
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			svc := &service.MaintenanceService{DB: db}
			if err := svc.Reset(cmd.Context(), employees); err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	cmd.Flags().BoolVar(&employees, "employees", false, "Also delete employees")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var (
		count int
		date  string
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "sample DIR",
		Short: "Write synthetic attendance and productivity files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return withCode(exitUsage, errors.New("--employees must be positive"))
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = time.Now().UTC()
			}
			paths, err := testdata.WriteSamples(args[0], count, d, seed)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "employees", 25, "Number of employees")
	cmd.Flags().StringVar(&date, "date", "", "Report date YYYY-MM-DD (default today)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}
