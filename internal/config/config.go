// Package config provides configuration management for the fetch worker.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Source names accepted in the sources map.
const (
	SourceBooks    = "books"
	SourceGames    = "games"
	SourceArtists  = "artists"
	SourcePodcasts = "podcasts"
	SourceMovies   = "movies"
	SourceTV       = "tv"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "FAVFETCH_CONFIG"

// DefaultConfigPath is used when no path is given and the file exists.
const DefaultConfigPath = "configs/favfetch.yaml"

// Configuration validation errors.
var (
	ErrUnknownSource            = errors.New("unknown source")
	ErrSourceMissingInput       = errors.New("input path is required")
	ErrSourceMissingOutput      = errors.New("output path is required")
	ErrSourceMissingCollection  = errors.New("collection name is required")
	ErrSourceMissingBaseURL     = errors.New("base_url is required")
	ErrSourceMissingUserAgent   = errors.New("user_agent is required")
	ErrInvalidDelay             = errors.New("delay_ms and item_delay_ms must be non-negative")
	ErrInvalidMaxRPS            = errors.New("max_rps must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidBreaker           = errors.New("breaker values must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'console' or 'json'")
)

// Config represents the complete fetch configuration.
type Config struct {
	Sources map[string]SourceConfig `yaml:"sources"`
	Fetch   FetchConfig             `yaml:"fetch"`
}

// FetchConfig contains settings shared by every source.
type FetchConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Breaker BreakerConfig `yaml:"breaker"`
	Retry   RetryPolicy   `yaml:"retry"`
}

// SourceConfig describes one upstream metadata source and its files.
type SourceConfig struct {
	Input             string  `yaml:"input"`
	Output            string  `yaml:"output"`
	Collection        string  `yaml:"collection"`
	BaseURL           string  `yaml:"base_url"`
	SecondaryURL      string  `yaml:"secondary_url,omitempty"`
	ImageURL          string  `yaml:"image_url,omitempty"`
	AuthURL           string  `yaml:"auth_url,omitempty"`
	UserAgent         string  `yaml:"user_agent"`
	PlaceholderImage  string  `yaml:"placeholder_image"`
	WebsiteCategories []int   `yaml:"website_categories,omitempty"`
	DelayMs           int     `yaml:"delay_ms"`
	ItemDelayMs       int     `yaml:"item_delay_ms"`
	MaxRPS            float64 `yaml:"max_rps"`
}

// Delay is the fixed wait enforced before every outbound call.
func (s *SourceConfig) Delay() time.Duration {
	return time.Duration(s.DelayMs) * time.Millisecond
}

// ItemDelay is the fixed wait between consecutive queries.
func (s *SourceConfig) ItemDelay() time.Duration {
	return time.Duration(s.ItemDelayMs) * time.Millisecond
}

// RetryPolicy defines retry behavior for a single outbound call.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// BreakerConfig configures the opt-in per-source circuit breaker.
// MaxConsecutiveFailures of 0, the default, disables it.
type BreakerConfig struct {
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
	OpenTimeoutSec         int `yaml:"open_timeout_sec"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	PrettyPrint bool `yaml:"pretty_print"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Resolve picks the config file to load: the explicit path, then
// FAVFETCH_CONFIG, then DefaultConfigPath if it exists. An empty result means
// built-in defaults.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if env := os.Getenv(ConfigPathEnvVar); env != "" {
		return env
	}

	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}

	return ""
}

// Load returns the defaults when path is empty, otherwise LoadConfig(path).
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}

		return cfg, nil
	}

	return LoadConfig(path)
}

// LoadConfig loads configuration from a YAML file layered over Default().
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applySourceDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file, creating its directory.
func (c *Config) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applySourceDefaults fills fields a YAML source entry left empty. yaml.v3
// replaces map values wholesale, so partial entries would otherwise lose
// their defaults.
func (c *Config) applySourceDefaults() {
	defaults := defaultSources()

	for name, src := range c.Sources {
		def, ok := defaults[name]
		if !ok {
			continue
		}

		src.fillFrom(&def)
		c.Sources[name] = src
	}
}

func (s *SourceConfig) fillFrom(def *SourceConfig) {
	setString := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}

	setString(&s.Input, def.Input)
	setString(&s.Output, def.Output)
	setString(&s.Collection, def.Collection)
	setString(&s.BaseURL, def.BaseURL)
	setString(&s.SecondaryURL, def.SecondaryURL)
	setString(&s.ImageURL, def.ImageURL)
	setString(&s.AuthURL, def.AuthURL)
	setString(&s.UserAgent, def.UserAgent)
	setString(&s.PlaceholderImage, def.PlaceholderImage)

	if len(s.WebsiteCategories) == 0 {
		s.WebsiteCategories = def.WebsiteCategories
	}

	if s.DelayMs == 0 {
		s.DelayMs = def.DelayMs
	}

	if s.ItemDelayMs == 0 {
		s.ItemDelayMs = def.ItemDelayMs
	}

	if s.MaxRPS == 0 {
		s.MaxRPS = def.MaxRPS
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, name := range c.SourceNames() {
		src := c.Sources[name]

		if _, known := defaultSources()[name]; !known {
			return fmt.Errorf("%w: sources.%s", ErrUnknownSource, name)
		}

		if src.Input == "" {
			return fmt.Errorf("%w: sources.%s", ErrSourceMissingInput, name)
		}

		if src.Output == "" {
			return fmt.Errorf("%w: sources.%s", ErrSourceMissingOutput, name)
		}

		if src.Collection == "" {
			return fmt.Errorf("%w: sources.%s", ErrSourceMissingCollection, name)
		}

		if src.BaseURL == "" {
			return fmt.Errorf("%w: sources.%s", ErrSourceMissingBaseURL, name)
		}

		if src.UserAgent == "" {
			return fmt.Errorf("%w: sources.%s", ErrSourceMissingUserAgent, name)
		}

		if src.DelayMs < 0 || src.ItemDelayMs < 0 {
			return fmt.Errorf("%w: sources.%s", ErrInvalidDelay, name)
		}

		if src.MaxRPS < 0 {
			return fmt.Errorf("%w: sources.%s", ErrInvalidMaxRPS, name)
		}
	}

	// Validate retry policy
	if c.Fetch.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Fetch.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Fetch.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Fetch.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Fetch.Breaker.MaxConsecutiveFailures < 0 || c.Fetch.Breaker.OpenTimeoutSec < 0 {
		return ErrInvalidBreaker
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Fetch.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Fetch.Logging.Format != "console" && c.Fetch.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// Source returns the configuration of a named source.
func (c *Config) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	return src, nil
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// OpenTimeout returns how long the breaker stays open before probing again.
func (b *BreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(b.OpenTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d, MaxAttempts: %d, LogLevel: %s}",
		len(c.Sources),
		c.Fetch.Retry.MaxAttempts,
		c.Fetch.Logging.Level,
	)
}
