package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Recalculation queue backends.
const (
	QueueRiver  = "river"
	QueueInline = "inline"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Standings     StandingsConfig     `yaml:"standings"`
	Recalculation RecalculationConfig `yaml:"recalculation"`
	Admin         AdminConfig         `yaml:"admin"`
	Snapshots     SnapshotsConfig     `yaml:"snapshots"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL runs the process on an
// in-memory bus.
type NATSConfig struct {
	URL        string `yaml:"url"`
	QueueGroup string `yaml:"queue_group"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

// StandingsConfig selects how standings count results.
type StandingsConfig struct {
	BestK           int    `yaml:"best_k"`
	SelectionPolicy string `yaml:"selection_policy"`
}

// RecalculationConfig tunes recalculation jobs.
type RecalculationConfig struct {
	Queue                string        `yaml:"queue"`
	ApplyTimeout         time.Duration `yaml:"apply_timeout"`
	PreviewTimeout       time.Duration `yaml:"preview_timeout"`
	MaxWorkers           int           `yaml:"max_workers"`
	MaxParallelDivisions int           `yaml:"max_parallel_divisions"`
}

// AdminConfig lists who may issue admin commands and how often.
type AdminConfig struct {
	Admins       []string `yaml:"admins"`
	CommandRate  float64  `yaml:"command_rate"`
	CommandBurst int      `yaml:"command_burst"`
}

// SnapshotsConfig configures where season lock exports go. An empty backend
// disables exports.
type SnapshotsConfig struct {
	Backend         string `yaml:"backend"`
	Directory       string `yaml:"directory"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
}

// LoadConfig loads the configuration from a YAML file. Environment variables
// override file values; when the file is missing the environment alone is used.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides cfg with any environment variables that are set.
func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("DATABASE_URL", &cfg.Postgres.DSN)
	setString("NATS_URL", &cfg.NATS.URL)
	setString("NATS_QUEUE_GROUP", &cfg.NATS.QueueGroup)
	setString("ENV", &cfg.Observability.Environment)
	setString("LOG_LEVEL", &cfg.Observability.LogLevel)
	setString("METRICS_ADDRESS", &cfg.Observability.MetricsAddress)
	setString("OTLP_ENDPOINT", &cfg.Observability.OTLPEndpoint)
	setString("STANDINGS_SELECTION_POLICY", &cfg.Standings.SelectionPolicy)
	setString("RECALC_QUEUE", &cfg.Recalculation.Queue)
	setString("SNAPSHOT_BACKEND", &cfg.Snapshots.Backend)
	setString("SNAPSHOT_DIRECTORY", &cfg.Snapshots.Directory)
	setString("SNAPSHOT_BUCKET", &cfg.Snapshots.Bucket)
	setString("SNAPSHOT_REGION", &cfg.Snapshots.Region)
	setString("SNAPSHOT_ENDPOINT", &cfg.Snapshots.Endpoint)
	setString("SNAPSHOT_ACCESS_KEY_ID", &cfg.Snapshots.AccessKeyID)
	setString("SNAPSHOT_SECRET_ACCESS_KEY", &cfg.Snapshots.SecretAccessKey)
	setString("SNAPSHOT_PREFIX", &cfg.Snapshots.Prefix)

	if v := os.Getenv("LEAGUE_ADMINS"); v != "" {
		cfg.Admin.Admins = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"STANDINGS_BEST_K", &cfg.Standings.BestK},
		{"RECALC_MAX_WORKERS", &cfg.Recalculation.MaxWorkers},
		{"RECALC_MAX_PARALLEL_DIVISIONS", &cfg.Recalculation.MaxParallelDivisions},
		{"ADMIN_COMMAND_BURST", &cfg.Admin.CommandBurst},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RECALC_APPLY_TIMEOUT", &cfg.Recalculation.ApplyTimeout},
		{"RECALC_PREVIEW_TIMEOUT", &cfg.Recalculation.PreviewTimeout},
	}
	for _, e := range durations {
		if v := os.Getenv(e.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.key, err)
			}
			*e.dst = d
		}
	}

	if v := os.Getenv("ADMIN_COMMAND_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_COMMAND_RATE value: %w", err)
		}
		cfg.Admin.CommandRate = f
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.NATS.QueueGroup == "" {
		cfg.NATS.QueueGroup = "rally-league"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "production"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Recalculation.Queue == "" {
		cfg.Recalculation.Queue = QueueRiver
	}
	if cfg.Recalculation.ApplyTimeout == 0 {
		cfg.Recalculation.ApplyTimeout = 2 * time.Minute
	}
	if cfg.Recalculation.PreviewTimeout == 0 {
		cfg.Recalculation.PreviewTimeout = 5 * time.Minute
	}
	if cfg.Recalculation.MaxWorkers == 0 {
		cfg.Recalculation.MaxWorkers = 2
	}
	if cfg.Recalculation.MaxParallelDivisions == 0 {
		cfg.Recalculation.MaxParallelDivisions = 4
	}
	if cfg.Admin.CommandBurst == 0 {
		cfg.Admin.CommandBurst = 5
	}
}

// Validate reports configuration that cannot run.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("postgres dsn not set (DATABASE_URL)")
	}
	if c.Standings.BestK < 0 {
		return fmt.Errorf("standings.best_k must not be negative, got %d", c.Standings.BestK)
	}
	switch c.Recalculation.Queue {
	case QueueRiver, QueueInline:
	default:
		return fmt.Errorf("unknown recalculation queue %q", c.Recalculation.Queue)
	}
	if c.Recalculation.ApplyTimeout < 0 || c.Recalculation.PreviewTimeout < 0 {
		return errors.New("recalculation timeouts must not be negative")
	}
	if c.Admin.CommandRate < 0 {
		return errors.New("admin.command_rate must not be negative")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
