package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/resilience"
)

// Config holds every tunable of the rxq client. Precedence, lowest to
// highest: built-in defaults, the YAML config file, environment
// variables, command-line flags.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxResults     int           `yaml:"max_results"`
	Debug          bool          `yaml:"debug"`
	LogFile        string        `yaml:"log_file"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the HTTP client.
type BreakerConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MinRequests     int     `yaml:"min_requests"`
	FailureRatio    float64 `yaml:"failure_ratio"`
	CooldownSeconds int     `yaml:"cooldown_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:         api.DefaultBaseURL,
		TimeoutSeconds: 15,
		MaxResults:     20,
		Breaker: BreakerConfig{
			Enabled:         true,
			MinRequests:     3,
			FailureRatio:    0.6,
			CooldownSeconds: 30,
		},
	}
}

// Load builds the effective configuration from defaults, the optional
// config file, and the environment. A missing file at the default path is
// fine; a file named via RXQ_CONFIG must exist.
func Load() (*Config, error) {
	// .env is optional; ignore a missing one.
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := configPath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file. Defaults apply.
	default:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field the rest of the program relies on.
func (c *Config) Validate() error {
	if err := validateURL(c.APIURL); err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, have %d", c.TimeoutSeconds)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return fmt.Errorf("max_results must be between 1 and 100, have %d", c.MaxResults)
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], have %g", c.Breaker.FailureRatio)
	}
	return nil
}

// Timeout is the transport timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GuardConfig maps the breaker block onto the resilience package.
func (c *Config) GuardConfig() resilience.Config {
	return resilience.Config{
		MinRequests:      uint32(c.Breaker.MinRequests),
		FailureRatio:     c.Breaker.FailureRatio,
		OpenTimeout:      time.Duration(c.Breaker.CooldownSeconds) * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

func configPath() (string, bool) {
	if path := os.Getenv("RXQ_CONFIG"); path != "" {
		return expandPath(path), true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", "rxq", "config.yaml"), false
}

// applyEnv overlays RXQ_* variables. Unset or empty variables keep the
// current value; set-but-unparseable ones are an error rather than a
// silent fallback, so a typo never runs with surprise settings.
func applyEnv(cfg *Config) error {
	cfg.APIURL = getEnvWithDefault("RXQ_API_URL", cfg.APIURL)
	cfg.LogFile = getEnvWithDefault("RXQ_LOG_FILE", cfg.LogFile)

	var err error
	if cfg.TimeoutSeconds, err = getIntEnvWithDefault("RXQ_TIMEOUT_SECONDS", cfg.TimeoutSeconds); err != nil {
		return err
	}
	if cfg.MaxResults, err = getIntEnvWithDefault("RXQ_MAX_RESULTS", cfg.MaxResults); err != nil {
		return err
	}
	if cfg.Debug, err = getBoolEnvWithDefault("RXQ_DEBUG", cfg.Debug); err != nil {
		return err
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return parsed, nil
}

func getBoolEnvWithDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return parsed, nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("must not be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
