package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flight-state-table/internal/fetcher"
	"flight-state-table/internal/snapshot"
	"flight-state-table/pkg/logger"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OpenSky   OpenSkyConfig   `yaml:"opensky"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	History   HistoryConfig   `yaml:"history"`
	Console   ConsoleConfig   `yaml:"console"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type OpenSkyConfig struct {
	BaseURL        string              `yaml:"base_url"`
	RequestTimeout time.Duration       `yaml:"request_timeout"`
	Username       string              `yaml:"username"`
	Password       string              `yaml:"password"`
	Box            fetcher.BoundingBox `yaml:"bbox"`
}

type SchedulerConfig struct {
	Interval     time.Duration `yaml:"interval"`
	FetchOnStart bool          `yaml:"fetch_on_start"`
	ManualRate   time.Duration `yaml:"manual_rate"` // minimum spacing of manual refreshes
	ManualBurst  int           `yaml:"manual_burst"`
}

type SnapshotConfig struct {
	Backend     string `yaml:"backend"` // "file" or "postgres"
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

type HistoryConfig struct {
	Size int `yaml:"size"`
}

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
	MaxRows int  `yaml:"max_rows"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "DEBUG", "INFO", "WARN", "ERROR"
}

// Load builds the configuration from defaults, the optional YAML file at
// configPath, the optional .env file at envFile and the environment, in that
// order. A missing env file is not an error.
func Load(configPath, envFile string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.setDefaults()

	// Load from file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env values never override variables already set in the process
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// Override with environment variables
	if err := config.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 30 * time.Second

	c.OpenSky.BaseURL = "https://opensky-network.org/api"
	c.OpenSky.RequestTimeout = 30 * time.Second

	c.Scheduler.Interval = time.Hour
	c.Scheduler.FetchOnStart = false
	c.Scheduler.ManualRate = 10 * time.Second
	c.Scheduler.ManualBurst = 1

	c.Snapshot.Backend = BackendFile
	c.Snapshot.Path = snapshot.DefaultPath

	c.History.Size = 50

	c.Console.Enabled = false
	c.Console.MaxRows = 20

	c.Logging.Level = "INFO"
}

func (c *Config) loadFromEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}

	if baseURL := os.Getenv("OPENSKY_BASE_URL"); baseURL != "" {
		c.OpenSky.BaseURL = baseURL
	}

	if username := os.Getenv("OPENSKY_USERNAME"); username != "" {
		c.OpenSky.Username = username
	}

	if password := os.Getenv("OPENSKY_PASSWORD"); password != "" {
		c.OpenSky.Password = password
	}

	if interval := os.Getenv("POLL_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Scheduler.Interval = d
	}

	if path := os.Getenv("SNAPSHOT_PATH"); path != "" {
		c.Snapshot.Path = path
	}

	if backend := os.Getenv("SNAPSHOT_BACKEND"); backend != "" {
		c.Snapshot.Backend = strings.ToLower(backend)
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Snapshot.DatabaseURL = dsn
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if c.OpenSky.BaseURL == "" {
		return fmt.Errorf("opensky base URL cannot be empty")
	}

	if c.OpenSky.RequestTimeout <= 0 {
		return fmt.Errorf("opensky request timeout must be positive")
	}

	if (c.OpenSky.Username == "") != (c.OpenSky.Password == "") {
		return fmt.Errorf("opensky username and password must be set together")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	if c.Scheduler.ManualRate < 0 {
		return fmt.Errorf("scheduler manual rate cannot be negative")
	}

	if c.Scheduler.ManualBurst < 1 {
		return fmt.Errorf("scheduler manual burst must be at least 1")
	}

	switch c.Snapshot.Backend {
	case BackendFile:
		if c.Snapshot.Path == "" {
			return fmt.Errorf("snapshot path cannot be empty")
		}
	case BackendPostgres:
		if c.Snapshot.DatabaseURL == "" {
			return fmt.Errorf("snapshot database URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("snapshot backend must be 'file' or 'postgres'")
	}

	if c.History.Size < 1 {
		return fmt.Errorf("history size must be at least 1")
	}

	if c.Console.MaxRows < 0 {
		return fmt.Errorf("console max rows cannot be negative")
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("log level must be 'DEBUG', 'INFO', 'WARN', or 'ERROR'")
	}

	return nil
}
