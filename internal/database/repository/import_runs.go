package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jask/hrportal/internal/database"
)

const importRunColumns = `id, file_name, file_type, status, total_records, processed_records, error_records,
 batch_id, errors, warnings, started_at, completed_at`

// ErrRunFinalized is returned when Finalize targets a run that already left
// the PROCESSING state (or does not exist).
var ErrRunFinalized = errors.New("import run already finalized")

// ImportRunRepo handles import run summaries.
type ImportRunRepo struct{ db DBTX }

func NewImportRunRepo(db DBTX) *ImportRunRepo { return &ImportRunRepo{db: db} }

// Create inserts run in the PROCESSING state.
func (r *ImportRunRepo) Create(ctx context.Context, run ImportRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = database.Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_runs(id, file_name, file_type, status, batch_id, started_at)
	VALUES(?, ?, ?, ?, ?, ?)`,
		run.ID, run.FileName, run.FileType, RunProcessing, run.BatchID, run.StartedAt)
	return err
}

// Finalize writes the terminal state of a run. Only a PROCESSING run can be
// finalized, so a second call returns ErrRunFinalized.
func (r *ImportRunRepo) Finalize(ctx context.Context, run ImportRun) error {
	errs, err := encodeList(run.Errors)
	if err != nil {
		return err
	}
	warns, err := encodeList(run.Warnings)
	if err != nil {
		return err
	}
	completed := database.Now()
	if run.CompletedAt != nil {
		completed = *run.CompletedAt
	}
	res, err := r.db.ExecContext(ctx, `
	UPDATE import_runs
	SET status = ?, total_records = ?, processed_records = ?, error_records = ?,
	 errors = ?, warnings = ?, completed_at = ?
	WHERE id = ? AND status = ?`,
		run.Status, run.TotalRecords, run.ProcessedRecords, run.ErrorRecords,
		errs, warns, completed, run.ID, RunProcessing)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finalize %s: %w", run.ID, ErrRunFinalized)
	}
	return nil
}

func (r *ImportRunRepo) Get(ctx context.Context, id string) (*ImportRun, error) {
	run, err := scanImportRun(r.db.QueryRowContext(ctx, `SELECT `+importRunColumns+` FROM import_runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// List returns the newest runs first. limit <= 0 means no limit.
func (r *ImportRunRepo) List(ctx context.Context, limit int) ([]ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// DeleteBefore removes finalized runs started before cutoff and returns the
// number deleted. Runs still PROCESSING are kept.
func (r *ImportRunRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM import_runs WHERE started_at < ? AND status != ?`, cutoff.UTC(), RunProcessing)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	buf, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func scanImportRun(row scanner) (ImportRun, error) {
	var run ImportRun
	var errs, warns string
	var completed sql.NullTime
	if err := row.Scan(&run.ID, &run.FileName, &run.FileType, &run.Status, &run.TotalRecords,
		&run.ProcessedRecords, &run.ErrorRecords, &run.BatchID, &errs, &warns, &run.StartedAt, &completed); err != nil {
		return ImportRun{}, err
	}
	if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
		return ImportRun{}, fmt.Errorf("decode run errors: %w", err)
	}
	if err := json.Unmarshal([]byte(warns), &run.Warnings); err != nil {
		return ImportRun{}, fmt.Errorf("decode run warnings: %w", err)
	}
	run.CompletedAt = nullTime(completed)
	return run, nil
}
