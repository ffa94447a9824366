package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jask/hrportal/internal/config"
	"github.com/jask/hrportal/internal/database"
	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/logging"
	"github.com/jask/hrportal/internal/service"
)

// app carries what every subcommand shares once the root has loaded config.
type app struct {
	configPath string
	dbPath     string

	cfg config.Config
	log *logrus.Entry
	db  *sql.DB
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hrportal",
		Short:         "Attendance and productivity ingestion for the HR portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.config/hrportal/config.toml)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides database.path)")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newRunsCmd(a))
	cmd.AddCommand(newPruneCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newSampleCmd())
	cmd.AddCommand(newResetCmd(a))
	return cmd
}

func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	_ = a.close()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		if err := os.Setenv("HRPORTAL_CONFIG", a.configPath); err != nil {
			return withCode(exitUsage, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return withCode(exitValidation, err)
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return withCode(exitValidation, err)
	}
	a.cfg = cfg
	a.log = logrus.NewEntry(logger).WithField("cmd", cmd.Name())
	return nil
}

// openDB migrates and opens the database. Commands that never touch storage
// skip it.
func (a *app) openDB() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Database.Path), 0o755); err != nil {
		return nil, withCode(exitDB, fmt.Errorf("mkdir db dir: %w", err))
	}
	if err := database.RunMigrations(a.cfg.Database.Path, a.cfg.Database.Migrations); err != nil {
		return nil, withCode(exitDB, fmt.Errorf("migrate: %w", err))
	}
	db, err := database.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("open db: %w", err))
	}
	a.db = db
	return db, nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ingestService builds the pipeline from config.
func (a *app) ingestService() (*service.IngestService, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	opts, err := ingestOptions(a.cfg)
	if err != nil {
		return nil, withCode(exitValidation, err)
	}
	return service.NewIngestService(db, opts, a.log), nil
}

// ingestOptions resolves the parser profile and reconciliation knobs. A
// profile file, when configured, owns the parser settings; otherwise the
// ingest.* keys tune the built-in profile.
func ingestOptions(cfg config.Config) (service.IngestOptions, error) {
	profile, err := ingest.LoadProfile(cfg.Ingest.ProfilePath)
	if err != nil {
		return service.IngestOptions{}, fmt.Errorf("profile: %w", err)
	}
	if strings.TrimSpace(cfg.Ingest.ProfilePath) == "" {
		profile.FixedWidth.Extension = cfg.Ingest.FixedWidthExt
		if cfg.Ingest.ProductivityHeader != "" {
			profile.Productivity.HeaderFragment = cfg.Ingest.ProductivityHeader
		}
		if cfg.Ingest.HeaderScanLines > 0 {
			profile.Productivity.HeaderScanLines = cfg.Ingest.HeaderScanLines
		}
		if err := profile.Validate(); err != nil {
			return service.IngestOptions{}, fmt.Errorf("profile: %w", err)
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return service.IngestOptions{}, err
	}
	return service.IngestOptions{
		Profile:       profile,
		Location:      loc,
		EmailDomain:   cfg.Ingest.PlaceholderEmailDomain,
		UnknownStatus: strings.ToUpper(cfg.Ingest.UnknownStatusDefault),
		Tolerance:     cfg.Ingest.ErrorTolerance,
	}, nil
}
