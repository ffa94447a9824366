package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jask/hrportal/internal/database"
	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/logging"
)

// Summary carries the counts a run is finalized with.
type Summary struct {
	Total     int
	Processed int
	Errors    []string
	Warnings  []string
	// Fatal is set when the file was rejected or its transaction failed.
	Fatal error
}

// RunStatus maps a summary to a terminal run status. tolerance is the
// largest error share that still counts as COMPLETED.
func RunStatus(s Summary, tolerance float64) string {
	switch {
	case s.Fatal != nil:
		return repository.RunFailed
	case len(s.Errors) == 0:
		return repository.RunCompleted
	case s.Processed == 0:
		return repository.RunFailed
	}
	seen := s.Processed + len(s.Errors)
	if s.Total > seen {
		seen = s.Total
	}
	if float64(len(s.Errors))/float64(seen) <= tolerance {
		return repository.RunCompleted
	}
	return repository.RunPartiallyCompleted
}

// Run tracks one import run between Start and Finalize.
type Run struct {
	ID        string
	BatchID   string
	FileName  string
	Format    ingest.Format
	StartedAt time.Time
	Status    string

	persisted bool
	finalized bool
}

// Reporter persists import run summaries. Its writes are best effort:
// failures are logged and never fail the import.
type Reporter struct {
	Runs      *repository.ImportRunRepo
	Tolerance float64
	Log       *logrus.Entry
}

// NewReporter returns a reporter over runs.
func NewReporter(runs *repository.ImportRunRepo, tolerance float64, log *logrus.Entry) *Reporter {
	return &Reporter{Runs: runs, Tolerance: tolerance, Log: logging.OrDiscard(log)}
}

// Start opens a run in the PROCESSING state.
func (r *Reporter) Start(ctx context.Context, runID, fileName string, format ingest.Format, batch string) *Run {
	run := &Run{
		ID:        runID,
		BatchID:   batch,
		FileName:  fileName,
		Format:    format,
		StartedAt: database.Now(),
		Status:    repository.RunProcessing,
	}
	log := r.log().WithFields(logrus.Fields{"run": run.ID, "batch": batch, "file": fileName})
	if r.Runs == nil {
		log.Warn("import run store not configured; run not recorded")
		return run
	}
	err := r.Runs.Create(ctx, repository.ImportRun{
		ID:        run.ID,
		FileName:  fileName,
		FileType:  string(format),
		BatchID:   batch,
		StartedAt: run.StartedAt,
	})
	if err != nil {
		log.WithError(err).Warn("record import run start")
		return run
	}
	run.persisted = true
	log.Info("import run started")
	return run
}

// Finalize settles the run's terminal status and writes it once. Later
// calls return the status already settled.
func (r *Reporter) Finalize(ctx context.Context, run *Run, s Summary) string {
	if run.finalized {
		return run.Status
	}
	run.finalized = true
	run.Status = RunStatus(s, r.Tolerance)

	errs := s.Errors
	if s.Fatal != nil {
		errs = append([]string{s.Fatal.Error()}, errs...)
	}
	log := r.log().WithFields(logrus.Fields{
		"run":       run.ID,
		"batch":     run.BatchID,
		"file":      run.FileName,
		"status":    run.Status,
		"total":     s.Total,
		"processed": s.Processed,
		"errors":    len(s.Errors),
	})
	if !run.persisted {
		log.Warn("import run finished without a stored record")
		return run.Status
	}
	completed := database.Now()
	err := r.Runs.Finalize(ctx, repository.ImportRun{
		ID:               run.ID,
		Status:           run.Status,
		TotalRecords:     s.Total,
		ProcessedRecords: s.Processed,
		ErrorRecords:     len(s.Errors),
		Errors:           errs,
		Warnings:         s.Warnings,
		CompletedAt:      &completed,
	})
	if err != nil {
		log.WithError(err).Warn("record import run result")
		return run.Status
	}
	log.Info("import run finalized")
	return run.Status
}

func (r *Reporter) log() *logrus.Entry {
	return logging.OrDiscard(r.Log)
}
