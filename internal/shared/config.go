package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Identity IdentityConfig `toml:"identity"`
	Database DatabaseConfig `toml:"database"`
	Export   ExportConfig   `toml:"export"`
}

// APIConfig contains catalog API settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	PageSize       int    `toml:"page_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the configured request timeout as a [time.Duration].
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// IdentityConfig contains identity provider settings.
type IdentityConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// DatabaseConfig contains local session store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ExportConfig contains catalog export settings.
type ExportConfig struct {
	Format    string  `toml:"format"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Environment variables (optionally sourced from a .env file beforehand via
// [LoadDotenv]) override file values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.ApplyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidConfig, path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotenv loads a .env file from the working directory into the process
// environment. A missing file is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides config values from KINO_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("KINO_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("KINO_IDENTITY_URL"); v != "" {
		c.Identity.URL = v
	}
	if v := os.Getenv("KINO_IDENTITY_KEY"); v != "" {
		c.Identity.APIKey = v
	}
	if v := os.Getenv("KINO_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("KINO_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.API.PageSize = n
		}
	}
}

// Validate checks required fields for commands that reach the network.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Identity.URL == "" {
		return fmt.Errorf("%w: identity.url is required", ErrInvalidConfig)
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("%w: api.page_size must be positive", ErrInvalidConfig)
	}
	return nil
}
