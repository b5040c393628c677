package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Database  DatabaseConfig  `toml:"database"`
	Refresh   RefreshConfig   `toml:"refresh"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig points the console at the remote record-store.
type APIConfig struct {
	BaseURL   string   `toml:"base_url"`
	Timeout   Duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"` // requests per second, 0 disables limiting
	PageSize  int      `toml:"page_size"`  // 0 lets the server decide
}

// StorageConfig selects the persistent key-value store shared by list and form views.
type StorageConfig struct {
	Driver    string       `toml:"driver"` // sqlite, redis or memory
	KeyPrefix string       `toml:"key_prefix"`
	SQLite    SQLiteConfig `toml:"sqlite"`
	Redis     RedisConfig  `toml:"redis"`
}

// SQLiteConfig contains the path of the local store file.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `toml:"max_open_conns"`
	MaxIdleConns int `toml:"max_idle_conns"`
}

// RefreshConfig configures the cross-context refresh protocol.
type RefreshConfig struct {
	Origin       string   `toml:"origin"`        // origin this console claims and accepts
	Listen       string   `toml:"listen"`        // local listener for form-closed messages
	OpenerURL    string   `toml:"opener_url"`    // base URL of the list view that opened a form
	NATSURL      string   `toml:"nats_url"`      // optional NATS server for cross-machine delivery
	PollInterval Duration `toml:"poll_interval"` // 0 checks the persisted signal only on load
	DedupeSize   int      `toml:"dedupe_size"`
}

// TelemetryConfig toggles tracing and metrics.
type TelemetryConfig struct {
	TraceStdout bool `toml:"trace_stdout"`
	Metrics     bool `toml:"metrics"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the settings that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Refresh.Origin == "" {
		return fmt.Errorf("%w: refresh.origin is empty", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
