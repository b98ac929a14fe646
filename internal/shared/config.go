package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
	Remote   RemoteConfig   `toml:"remote"`
	Local    LocalConfig    `toml:"local"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// BackendConfig selects where sessions, stats and identities live.
type BackendConfig struct {
	Mode     string `toml:"mode"`      // "local" (SQLite) or "remote" (hosted REST backend)
	PageSize int    `toml:"page_size"` // Rows per page in session browsers
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RemoteConfig contains the hosted backend endpoint and credentials.
type RemoteConfig struct {
	URL       string  `toml:"url"`
	AnonKey   string  `toml:"anon_key"`
	TokenPath string  `toml:"token_path"`
	RateLimit float64 `toml:"rate_limit"` // Requests per second
}

// LocalConfig identifies the reader when running against the local database.
type LocalConfig struct {
	Email string `toml:"email"`
	Name  string `toml:"name"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // Log destination while the TUI owns the terminal
}

// Addr returns the host:port pair the web server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResolvedTokenPath expands a leading ~ in the token path.
func (r RemoteConfig) ResolvedTokenPath() string {
	return ExpandHome(r.TokenPath)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
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
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values with READLOG_* environment variables.
func (c *Config) ApplyEnv() {
	if mode := os.Getenv("READLOG_BACKEND"); mode != "" {
		c.Backend.Mode = mode
	}
	if url := os.Getenv("READLOG_REMOTE_URL"); url != "" {
		c.Remote.URL = url
	}
	if key := os.Getenv("READLOG_ANON_KEY"); key != "" {
		c.Remote.AnonKey = key
	}
}

// Validate checks the values a running command depends on.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendLocal:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required in local mode", ErrInvalidConfig)
		}
	case BackendRemote:
		if c.Remote.URL == "" {
			return fmt.Errorf("%w: remote.url is required in remote mode", ErrInvalidConfig)
		}
		if c.Remote.AnonKey == "" {
			return fmt.Errorf("%w: remote.anon_key is required in remote mode", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown backend mode %q", ErrInvalidConfig, c.Backend.Mode)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
