package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/pkg/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Leaderboard   LeaderboardConfig   `yaml:"leaderboard"`
	Queue         QueueConfig         `yaml:"queue"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL runs the event bus in
// memory.
type NATSConfig struct {
	URL           string `yaml:"url"`
	DurablePrefix string `yaml:"durable_prefix"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Address           string        `yaml:"address"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// JWTSecret enables bearer token authentication. Empty trusts the
	// X-User-ID header set by a gateway.
	JWTSecret string `yaml:"jwt_secret"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment  string  `yaml:"environment"`
	LogLevel     string  `yaml:"log_level"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// ScoringConfig overrides the workout subtype catalog. Empty keeps the
// default catalog.
type ScoringConfig struct {
	Subtypes []submissiondomain.Subtype `yaml:"subtypes"`
}

// LeaderboardConfig tunes leaderboard caching.
type LeaderboardConfig struct {
	DefaultMaxStale  time.Duration `yaml:"default_max_stale"`
	ComputeTimeout   time.Duration `yaml:"compute_timeout"`
	ComputeHardLimit time.Duration `yaml:"compute_hard_limit"`
	RefreshPerMinute int           `yaml:"refresh_per_minute"`
	WarmInterval     time.Duration `yaml:"warm_interval"`
}

// QueueConfig holds the background job settings.
type QueueConfig struct {
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	SweepBatchSize int           `yaml:"sweep_batch_size"`
	MaxWorkers     int           `yaml:"max_workers"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("DATABASE_URL", &cfg.Postgres.DSN)
	setString("NATS_URL", &cfg.NATS.URL)
	setString("NATS_DURABLE_PREFIX", &cfg.NATS.DurablePrefix)
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	setString("JWT_SECRET", &cfg.HTTP.JWTSecret)
	setString("ENV", &cfg.Observability.Environment)
	setString("LOG_LEVEL", &cfg.Observability.LogLevel)
	setString("OTLP_ENDPOINT", &cfg.Observability.OTLPEndpoint)
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"LEADERBOARD_DEFAULT_MAX_STALE", &cfg.Leaderboard.DefaultMaxStale},
		{"LEADERBOARD_COMPUTE_TIMEOUT", &cfg.Leaderboard.ComputeTimeout},
		{"LEADERBOARD_COMPUTE_HARD_LIMIT", &cfg.Leaderboard.ComputeHardLimit},
		{"LEADERBOARD_WARM_INTERVAL", &cfg.Leaderboard.WarmInterval},
		{"QUEUE_SWEEP_INTERVAL", &cfg.Queue.SweepInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %v", d.key, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"HTTP_BURST", &cfg.HTTP.Burst},
		{"LEADERBOARD_REFRESH_PER_MINUTE", &cfg.Leaderboard.RefreshPerMinute},
		{"QUEUE_SWEEP_BATCH_SIZE", &cfg.Queue.SweepBatchSize},
		{"QUEUE_MAX_WORKERS", &cfg.Queue.MaxWorkers},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %v", i.key, err)
			}
			*i.dst = parsed
		}
	}

	if v := os.Getenv("HTTP_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_REQUESTS_PER_SECOND value: %v", err)
		}
		cfg.HTTP.RequestsPerSecond = f
	}
	if v := os.Getenv("OTLP_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid OTLP_SAMPLE_RATE value: %v", err)
		}
		cfg.Observability.SampleRate = f
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.NATS.DurablePrefix == "" {
		cfg.NATS.DurablePrefix = "fitleague"
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.RequestsPerSecond <= 0 {
		cfg.HTTP.RequestsPerSecond = 20
	}
	if cfg.HTTP.Burst <= 0 {
		cfg.HTTP.Burst = 40
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Observability.SampleRate <= 0 {
		cfg.Observability.SampleRate = 0.1
	}
	if cfg.Leaderboard.DefaultMaxStale <= 0 {
		cfg.Leaderboard.DefaultMaxStale = time.Minute
	}
	if cfg.Leaderboard.ComputeTimeout <= 0 {
		cfg.Leaderboard.ComputeTimeout = 5 * time.Second
	}
	if cfg.Leaderboard.ComputeHardLimit <= 0 {
		cfg.Leaderboard.ComputeHardLimit = 2 * time.Minute
	}
	if cfg.Leaderboard.RefreshPerMinute <= 0 {
		cfg.Leaderboard.RefreshPerMinute = 6
	}
	if cfg.Leaderboard.WarmInterval <= 0 {
		cfg.Leaderboard.WarmInterval = 5 * time.Minute
	}
	if cfg.Queue.SweepInterval <= 0 {
		cfg.Queue.SweepInterval = 15 * time.Minute
	}
	if cfg.Queue.SweepBatchSize <= 0 {
		cfg.Queue.SweepBatchSize = 500
	}
	if cfg.Queue.MaxWorkers <= 0 {
		cfg.Queue.MaxWorkers = 4
	}
}

// Catalog builds the subtype catalog, falling back to the defaults.
func (c *Config) Catalog() (submissiondomain.Catalog, error) {
	if len(c.Scoring.Subtypes) == 0 {
		return submissiondomain.DefaultCatalog(), nil
	}
	catalog, err := submissiondomain.NewCatalog(c.Scoring.Subtypes)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring.subtypes: %w", err)
	}
	return catalog, nil
}

func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:  "fitleague",
		Environment:  appCfg.Observability.Environment,
		OTLPEndpoint: appCfg.Observability.OTLPEndpoint,
		Insecure:     appCfg.Observability.OTLPInsecure,
		SampleRate:   appCfg.Observability.SampleRate,
		LogLevel:     parseLevel(appCfg.Observability.LogLevel),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
