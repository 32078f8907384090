// ABOUTME: Configuration loading and parsing for shop-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete shop-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Chatwoot ChatwootConfig `yaml:"chatwoot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// AllowedOrigins is a comma-separated browser origin allow-list for the
	// MCP endpoint. Empty allows any origin.
	AllowedOrigins string `yaml:"allowed_origins"`

	// RateLimit is the per-second request budget on the MCP endpoint.
	// Zero disables rate limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ChatwootConfig holds the Chatwoot CRM integration configuration. All
// fields empty means the integration is disabled; the Chatwoot tools then
// fail with a domain error instead of reaching out.
type ChatwootConfig struct {
	BaseURL   string `yaml:"base_url"`
	AccountID string `yaml:"account_id"`
	APIToken  string `yaml:"api_token"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}

	// Chatwoot is all-or-nothing: partial credentials are a configuration
	// mistake, not a disabled integration.
	cw := c.Chatwoot
	configured := cw.BaseURL != "" || cw.AccountID != "" || cw.APIToken != ""
	if configured && (cw.BaseURL == "" || cw.AccountID == "" || cw.APIToken == "") {
		return fmt.Errorf("chatwoot requires base_url, account_id and api_token together")
	}

	return nil
}

// ParsedOrigins splits the allowed_origins list into individual origins,
// dropping empty entries. A nil result means any origin is allowed.
func (c *Config) ParsedOrigins() []string {
	if c.Server.AllowedOrigins == "" {
		return nil
	}

	var origins []string
	for _, o := range strings.Split(c.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Chatwoot.TimeoutRaw != "" {
		cfg.Chatwoot.Timeout, err = time.ParseDuration(cfg.Chatwoot.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing chatwoot timeout %q: %w", cfg.Chatwoot.TimeoutRaw, err)
		}
	}

	return nil
}
