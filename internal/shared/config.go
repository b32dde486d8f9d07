package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Session     SessionConfig     `toml:"session"`
	Credentials CredentialsConfig `toml:"credentials"`
	Output      OutputConfig      `toml:"output"`
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
}

// SessionConfig contains the catalog proxy connection settings.
type SessionConfig struct {
	ProxyURL          string  `toml:"proxy_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	ChunkSize         int64   `toml:"chunk_size"`
	RequestTimeoutMS  int     `toml:"request_timeout_ms"`
	PollIntervalMS    int     `toml:"poll_interval_ms"`
}

// CredentialsConfig locates the stored credentials.
type CredentialsConfig struct {
	Path string `toml:"path"`
}

// OutputConfig controls file mode delivery.
type OutputConfig struct {
	Directory string `toml:"directory"`
}

// DatabaseConfig contains retrieval journal settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	Enabled      bool   `toml:"enabled"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// RequestTimeout returns the per-request timeout.
func (s SessionConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// PollInterval returns the bound of one event loop advance during stream reads.
func (s SessionConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// CredentialsPath resolves the credentials file location.
func (c *Config) CredentialsPath() string {
	if c.Credentials.Path != "" {
		return c.Credentials.Path
	}
	return ConfigPath("credentials.toml")
}

// DatabasePath resolves the retrieval journal location.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return ConfigPath("history.db")
}

// Validate checks values the session and pipeline cannot work without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Session.ProxyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: session.proxy_url %q", ErrInvalidConfig, c.Session.ProxyURL)
	}
	if c.Session.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: session.requests_per_second must be positive", ErrInvalidConfig)
	}
	if c.Session.Burst < 1 {
		return fmt.Errorf("%w: session.burst must be at least 1", ErrInvalidConfig)
	}
	if c.Session.ChunkSize <= 0 {
		return fmt.Errorf("%w: session.chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Session.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: session.poll_interval_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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
