package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ingest   IngestConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string
	Migrations string
}

// ServerConfig holds the upload API settings.
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// IngestConfig tunes parsing and reconciliation.
type IngestConfig struct {
	Timezone               string
	FixedWidthExt          string  `mapstructure:"fixed_width_ext"`
	HeaderScanLines        int     `mapstructure:"header_scan_lines"`
	ProductivityHeader     string  `mapstructure:"productivity_header"`
	PlaceholderEmailDomain string  `mapstructure:"placeholder_email_domain"`
	UnknownStatusDefault   string  `mapstructure:"unknown_status_default"`
	ErrorTolerance         float64 `mapstructure:"error_tolerance"`
	ProfilePath            string  `mapstructure:"profile_path"`
}

// LogConfig selects logrus level and formatter.
type LogConfig struct {
	Level  string
	Format string
}

// EnvFiles are loaded, when present, before the environment is read.
var EnvFiles = []string{".env", ".env.local"}

// Load reads configuration from dotenv files, the config file and env.
// Env var overrides use prefix HRPORTAL_.
func Load() (Config, error) {
	if _, err := LoadEnv(EnvFiles); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("HRPORTAL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "hrportal"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("HRPORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "hrportal", "hrportal.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("ingest.timezone", "UTC")
	v.SetDefault("ingest.fixed_width_ext", ".srp")
	v.SetDefault("ingest.header_scan_lines", 50)
	v.SetDefault("ingest.productivity_header", "Employee Name")
	v.SetDefault("ingest.placeholder_email_domain", "employees.local")
	v.SetDefault("ingest.unknown_status_default", "PRESENT")
	v.SetDefault("ingest.error_tolerance", 0.1)
	v.SetDefault("ingest.profile_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadEnv loads the dotenv files that exist and reports how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Validate rejects settings the ingest pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("config: database.path is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if strings.TrimSpace(c.Ingest.FixedWidthExt) == "" {
		return errors.New("config: ingest.fixed_width_ext is required")
	}
	if c.Ingest.ErrorTolerance < 0 || c.Ingest.ErrorTolerance > 1 {
		return fmt.Errorf("config: ingest.error_tolerance must be within [0,1], got %v", c.Ingest.ErrorTolerance)
	}
	if c.Ingest.HeaderScanLines < 0 {
		return fmt.Errorf("config: ingest.header_scan_lines must not be negative, got %d", c.Ingest.HeaderScanLines)
	}
	switch strings.ToUpper(c.Ingest.UnknownStatusDefault) {
	case "PRESENT", "ABSENT", "LATE", "WFH_APPROVED", "LEAVE_APPROVED":
	default:
		return fmt.Errorf("config: ingest.unknown_status_default %q is not an attendance status", c.Ingest.UnknownStatusDefault)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log.format %q is not text or json", c.Log.Format)
	}
	return nil
}

// Location resolves the ingest timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Ingest.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: ingest.timezone: %w", err)
	}
	return loc, nil
}
