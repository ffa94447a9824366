package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/hrportal/internal/database"
	"github.com/jask/hrportal/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// PruneRuns deletes finalized import runs started before cutoff.
func (s *MaintenanceService) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	n, err := repository.NewImportRunRepo(s.DB).DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("prune import runs: %w", err)
	}
	return n, nil
}

// Reset wipes imported data. Employees are kept because the directory owns
// them, unless includeEmployees is set.
func (s *MaintenanceService) Reset(ctx context.Context, includeEmployees bool) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"productivity_records",
			"attendance_records",
			"import_runs",
		}
		if includeEmployees {
			tables = append(tables, "employees")
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
