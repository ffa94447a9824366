package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jask/hrportal/internal/database"
	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/logging"
	"github.com/jask/hrportal/internal/metrics"
)

// Upload is one file handed to the import pipeline.
type Upload struct {
	FileName string
	Content  []byte
	// Date is the target day for attendance files and the fallback day for
	// productivity rows without a date column.
	Date time.Time
}

// Result is the synchronous outcome of one import.
type Result struct {
	Accepted   int
	Total      int
	Errors     int
	BatchID    string
	RunID      string
	Format     ingest.Format
	Status     string
	Message    string
	Warnings   []string
	LineErrors []ingest.LineError
}

// IngestOptions tunes an IngestService.
type IngestOptions struct {
	Profile       ingest.Profile
	Location      *time.Location
	EmailDomain   string
	UnknownStatus string
	Tolerance     float64
}

// IngestService runs uploaded files through detection, parsing, identity
// resolution and reconciliation, one transaction per file.
type IngestService struct {
	DB       *sql.DB
	Detector *ingest.Detector
	Reporter *Reporter
	Options  IngestOptions
	Log      *logrus.Entry
}

// NewIngestService wires the pipeline over db.
func NewIngestService(db *sql.DB, opts IngestOptions, log *logrus.Entry) *IngestService {
	log = logging.OrDiscard(log)
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &IngestService{
		DB:       db,
		Detector: ingest.NewDetector(opts.Profile),
		Reporter: NewReporter(repository.NewImportRunRepo(db), opts.Tolerance, log),
		Options:  opts,
		Log:      log,
	}
}

// ImportAttendance imports a fixed-width report or delimited export for
// u.Date. Upload-level failures are returned as *ingest.Error alongside a
// Result describing the FAILED run.
func (s *IngestService) ImportAttendance(ctx context.Context, u Upload) (Result, error) {
	format := s.Detector.Detect(u.FileName, u.Content)
	j := s.begin(ctx, u, format)

	switch {
	case !s.Detector.AcceptAttendance(u.FileName):
		return j.fail(ctx, ingest.Errorf(ingest.CodeUnsupportedFile, nil, "%q is not a .txt, .csv or %s file", u.FileName, s.Options.Profile.FixedWidth.Extension))
	case format == ingest.FormatProductivity:
		return j.fail(ctx, ingest.Errorf(ingest.CodeUnsupportedFile, nil, "%q is a productivity export; upload it as productivity", u.FileName))
	case isBlank(u.Content):
		return j.fail(ctx, ingest.Errorf(ingest.CodeEmptyFile, nil, "%q is empty", u.FileName))
	case u.Date.IsZero():
		return j.fail(ctx, ingest.Errorf(ingest.CodeInvalidDate, nil, "a target date is required"))
	}

	date := inLocation(u.Date, s.Options.Location)
	lines := ingest.SplitLines(u.Content)
	var parsed ingest.Result
	if format == ingest.FormatFixedWidth {
		parsed = ingest.ParseFixedWidth(lines, date, s.Options.Profile)
	} else {
		var err error
		parsed, err = ingest.ParseDelimited(lines, date, s.Options.Profile)
		if err != nil {
			return j.fail(ctx, ingest.Errorf(ingest.CodeHeaderNotFound, err, "%q has no header row", u.FileName))
		}
	}

	return j.reconcile(ctx, parsed, func(ctx context.Context, w *rowWriter, row ingest.ParsedRow) error {
		res, err := w.resolver.Resolve(ctx, row.Identity)
		if err != nil {
			return err
		}
		w.warn(res.Warnings...)
		defaulted, err := w.reconciler.UpsertAttendance(ctx, row, res.Employee, format, j.run.BatchID)
		if err != nil {
			return err
		}
		if defaulted {
			w.defaulted++
		}
		return nil
	})
}

// ImportProductivity imports a tracker export. Rows are keyed by employee
// code, date and this upload's batch.
func (s *IngestService) ImportProductivity(ctx context.Context, u Upload) (Result, error) {
	j := s.begin(ctx, u, ingest.FormatProductivity)

	switch {
	case !s.Detector.AcceptProductivity(u.FileName):
		return j.fail(ctx, ingest.Errorf(ingest.CodeUnsupportedFile, nil, "%q is not a .csv file", u.FileName))
	case isBlank(u.Content):
		return j.fail(ctx, ingest.Errorf(ingest.CodeEmptyFile, nil, "%q is empty", u.FileName))
	}

	var fallback time.Time
	if !u.Date.IsZero() {
		fallback = inLocation(u.Date, s.Options.Location)
	}
	parsed, err := ingest.ParseProductivity(ingest.SplitLines(u.Content), fallback, s.Options.Profile)
	if err != nil {
		return j.fail(ctx, ingest.Errorf(ingest.CodeHeaderNotFound, err,
			"no line containing %q within the first %d lines", s.Options.Profile.Productivity.HeaderFragment, s.Options.Profile.Productivity.HeaderScanLines))
	}

	return j.reconcile(ctx, parsed, func(ctx context.Context, w *rowWriter, row ingest.ParsedRow) error {
		res, err := w.resolver.Resolve(ctx, row.Identity)
		if err != nil {
			return err
		}
		w.warn(res.Warnings...)
		return w.reconciler.UpsertProductivity(ctx, row, res.Employee, j.run.BatchID, u.FileName)
	})
}

// job is the state of one import between begin and finish.
type job struct {
	svc     *IngestService
	run     *Run
	started time.Time
	log     *logrus.Entry
	failed  int // rows the store rejected
}

// rowWriter bundles the transaction-bound collaborators for one file.
type rowWriter struct {
	resolver   *EmployeeResolver
	reconciler *Reconciler
	warnings   []string
	seen       map[string]bool
	defaulted  int
}

func (w *rowWriter) warn(msgs ...string) {
	for _, m := range msgs {
		if !w.seen[m] {
			w.seen[m] = true
			w.warnings = append(w.warnings, m)
		}
	}
}

func (s *IngestService) begin(ctx context.Context, u Upload, format ingest.Format) *job {
	runID := uuid.NewString()
	batch := uuid.NewString()
	return &job{
		svc:     s,
		run:     s.Reporter.Start(ctx, runID, u.FileName, format, batch),
		started: time.Now(),
		log:     s.Log.WithFields(logrus.Fields{"run": runID, "batch": batch, "file": u.FileName, "format": format}),
	}
}

func (j *job) fail(ctx context.Context, err *ingest.Error) (Result, error) {
	j.log.WithField("code", err.Code).WithError(err).Warn("upload rejected")
	res := j.finish(ctx, Summary{Fatal: err}, nil, nil)
	res.Message = err.Message
	return res, err
}

func (j *job) reconcile(ctx context.Context, parsed ingest.Result, write func(context.Context, *rowWriter, ingest.ParsedRow) error) (Result, error) {
	lineErrs := append([]ingest.LineError(nil), parsed.Dropped...)
	var accepted int
	var w *rowWriter

	txErr := database.WithTx(ctx, j.svc.DB, func(tx *sql.Tx) error {
		accepted = 0
		j.failed = 0
		lineErrs = append(lineErrs[:0], parsed.Dropped...)
		w = &rowWriter{
			resolver: NewEmployeeResolver(repository.NewEmployeeRepo(tx), j.svc.Options.EmailDomain, j.log),
			reconciler: &Reconciler{
				Attendance:    repository.NewAttendanceRepo(tx),
				Productivity:  repository.NewProductivityRepo(tx),
				Location:      j.svc.Options.Location,
				UnknownStatus: j.svc.Options.UnknownStatus,
			},
			seen: make(map[string]bool),
		}
		for i, row := range parsed.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !row.HasIdentity() {
				lineErrs = append(lineErrs, ingest.LineError{Line: row.Line, Reason: "no employee identity"})
				continue
			}
			err := database.Savepoint(ctx, tx, fmt.Sprintf("row_%d", i), func() error {
				return write(ctx, w, row)
			})
			if err != nil {
				w.resolver.Reset()
				j.failed++
				j.log.WithField("line", row.Line).WithError(err).Debug("row rejected")
				lineErrs = append(lineErrs, ingest.LineError{Line: row.Line, Reason: err.Error()})
				continue
			}
			accepted++
		}
		return nil
	})

	if txErr != nil {
		j.log.WithError(txErr).Error("import transaction failed")
		j.failed = 0
		fatal := ingest.Errorf(ingest.CodeTransactionFailed, txErr, "no rows were saved")
		res := j.finish(ctx, Summary{Total: parsed.Total, Fatal: fatal}, nil, lineErrs)
		res.Message = fatal.Message
		return res, fatal
	}

	var warnings []string
	if w != nil {
		warnings = w.warnings
		if w.defaulted > 0 {
			warnings = append(warnings, fmt.Sprintf("%d rows had no recognised status and were stored as %s",
				w.defaulted, w.reconciler.unknownStatus()))
		}
	}
	total := parsed.Total
	if seen := accepted + len(lineErrs); seen > total {
		total = seen
	}
	res := j.finish(ctx, Summary{
		Total:     total,
		Processed: accepted,
		Errors:    lineMessages(lineErrs),
		Warnings:  warnings,
	}, warnings, lineErrs)
	return res, nil
}

func (j *job) finish(ctx context.Context, s Summary, warnings []string, lineErrs []ingest.LineError) Result {
	status := j.svc.Reporter.Finalize(ctx, j.run, s)
	format := string(j.run.Format)
	metrics.ObserveRows(format, metrics.RowAccepted, s.Processed)
	metrics.ObserveRows(format, metrics.RowRejected, len(s.Errors)-j.failed)
	metrics.ObserveRows(format, metrics.RowFailed, j.failed)
	metrics.ObserveRun(format, status, time.Since(j.started))

	res := Result{
		Accepted:   s.Processed,
		Total:      s.Total,
		Errors:     len(s.Errors),
		BatchID:    j.run.BatchID,
		RunID:      j.run.ID,
		Format:     j.run.Format,
		Status:     status,
		Warnings:   warnings,
		LineErrors: lineErrs,
	}
	res.Message = fmt.Sprintf("Imported %d of %d rows", res.Accepted, res.Total)
	if res.Errors > 0 {
		res.Message += fmt.Sprintf(" (%d skipped)", res.Errors)
	}
	j.log.WithFields(logrus.Fields{"status": status, "accepted": res.Accepted, "total": res.Total}).Info("import finished")
	return res
}

func lineMessages(errs []ingest.LineError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, fmt.Sprintf("line %d: %s", e.Line, e.Reason))
	}
	return out
}

func isBlank(content []byte) bool {
	return len(bytes.TrimSpace(bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}))) == 0
}

// inLocation keeps the calendar day of t and moves it to midnight in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IsInputError reports whether err rejects the upload itself rather than
// failing while saving it.
func IsInputError(err error) bool {
	var ie *ingest.Error
	return errors.As(err, &ie) && ie.Code != ingest.CodeTransactionFailed
}
