// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/parsing"
)

// Environment variables that override built-in defaults.
const (
	EnvBaseURL   = "EXAMPAPERS_BASE_URL"
	EnvOutputDir = "EXAMPAPERS_OUTPUT_DIR"
	EnvUserAgent = "EXAMPAPERS_USER_AGENT"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Source
	BaseURL     string `json:"base_url,omitempty" validate:"omitempty,http_url"`         // Site root, e.g. https://www.actuariesindia.org
	ListingPath string `json:"listing_path,omitempty" validate:"omitempty,startswith=/"` // Path of the question paper listing

	// Selection
	Start   string `json:"start,omitempty"`   // First session, e.g. "Jun 2019"
	End     string `json:"end,omitempty"`     // Last session, e.g. "May 2025"
	Subject string `json:"subject,omitempty"` // Subject code, name or filter value

	// Output
	OutputDir string `json:"output_dir,omitempty"`                                  // Parent of the session_<timestamp> run folders
	Prefix    string `json:"prefix,omitempty" validate:"omitempty,excludesall=/\\"` // Merged file name prefix

	// Fetching
	MaxPages           int    `json:"max_pages,omitempty" validate:"gte=0,lte=500"`
	UserAgent          string `json:"user_agent,omitempty"`
	TimeoutSeconds     int    `json:"timeout_seconds,omitempty" validate:"gte=0"`
	RequestIntervalMS  int    `json:"request_interval_ms,omitempty" validate:"gte=0"`
	UseBrowser         bool   `json:"use_browser,omitempty"`          // Re-render empty listing pages in a headless browser
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"` // Skip TLS certificate verification

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:           "https://www.actuariesindia.org",
		ListingPath:       "/question-paper-solutions",
		OutputDir:         "downloads",
		Prefix:            "Actuaries",
		MaxPages:          21,
		UserAgent:         fetch.DefaultUserAgent,
		TimeoutSeconds:    int(fetch.DefaultTimeout / time.Second),
		RequestIntervalMS: int(fetch.DefaultRequestInterval / time.Millisecond),
	}
}

// FromEnv returns a Config holding only the values set in the environment.
func FromEnv() Config {
	return Config{
		BaseURL:   strings.TrimSpace(os.Getenv(EnvBaseURL)),
		OutputDir: strings.TrimSpace(os.Getenv(EnvOutputDir)),
		UserAgent: strings.TrimSpace(os.Getenv(EnvUserAgent)),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if (c.Start == "") != (c.End == "") {
		return fmt.Errorf("config error: 'start' and 'end' must be given together")
	}
	if c.Start != "" {
		if _, err := parsing.ParseDateRange(c.Start, c.End); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.ListingPath == "" {
		result.ListingPath = defaults.ListingPath
	}
	if result.Start == "" {
		result.Start = defaults.Start
	}
	if result.End == "" {
		result.End = defaults.End
	}
	if result.Subject == "" {
		result.Subject = defaults.Subject
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.Prefix == "" {
		result.Prefix = defaults.Prefix
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}

	// Int fields: use default if zero
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.RequestIntervalMS == 0 {
		result.RequestIntervalMS = defaults.RequestIntervalMS
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ListingURL joins the base URL and listing path.
func (c *Config) ListingURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.ListingPath
}

// FetchOptions converts the fetching settings to client options.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	if c.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	if c.RequestIntervalMS > 0 {
		opts.RequestInterval = time.Duration(c.RequestIntervalMS) * time.Millisecond
	}
	opts.InsecureSkipVerify = c.InsecureSkipVerify
	return opts
}
