package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmharte/rxq/internal/config"
)

// resetEnv points HOME at an empty directory and blanks every RXQ
// variable so the ambient environment cannot leak into a test.
func resetEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"RXQ_CONFIG", "RXQ_API_URL", "RXQ_TIMEOUT_SECONDS",
		"RXQ_MAX_RESULTS", "RXQ_DEBUG", "RXQ_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 15, cfg.TimeoutSeconds)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, 0.6, cfg.Breaker.FailureRatio)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	resetEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.Default().APIURL, cfg.APIURL)
	assert.Equal(t, 20, cfg.MaxResults)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	resetEnv(t)
	path := writeConfigFile(t, `
api_url: http://localhost:9999
max_results: 50
breaker:
  enabled: false
`)
	t.Setenv("RXQ_CONFIG", path)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.APIURL)
	assert.Equal(t, 50, cfg.MaxResults)
	assert.False(t, cfg.Breaker.Enabled)
	// Fields the file does not mention keep their defaults.
	assert.Equal(t, 15, cfg.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Breaker.MinRequests)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	resetEnv(t)
	path := writeConfigFile(t, `
api_url: http://from-file:1111
max_results: 50
`)
	t.Setenv("RXQ_CONFIG", path)
	t.Setenv("RXQ_API_URL", "http://from-env:2222")
	t.Setenv("RXQ_MAX_RESULTS", "75")
	t.Setenv("RXQ_DEBUG", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://from-env:2222", cfg.APIURL)
	assert.Equal(t, 75, cfg.MaxResults)
	assert.True(t, cfg.Debug)
}

func TestLoad_ExpandsLogFilePath(t *testing.T) {
	resetEnv(t)
	t.Setenv("RXQ_LOG_FILE", "~/logs/rxq.log")

	cfg, err := config.Load()

	require.NoError(t, err)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "rxq.log"), cfg.LogFile)
}

func TestLoad_ExplicitMissingFileErrors(t *testing.T) {
	resetEnv(t)
	t.Setenv("RXQ_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	resetEnv(t)
	path := writeConfigFile(t, "max_results: [broken")
	t.Setenv("RXQ_CONFIG", path)

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	resetEnv(t)
	t.Setenv("RXQ_MAX_RESULTS", "0")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_results")
}

func TestLoad_RejectsUnparseableEnv(t *testing.T) {
	resetEnv(t)
	t.Setenv("RXQ_MAX_RESULTS", "plenty")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RXQ_MAX_RESULTS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults pass", mutate: func(*config.Config) {}},
		{name: "empty url", mutate: func(c *config.Config) { c.APIURL = "" }, wantErr: "api_url"},
		{name: "bad scheme", mutate: func(c *config.Config) { c.APIURL = "ftp://host" }, wantErr: "unsupported scheme"},
		{name: "missing host", mutate: func(c *config.Config) { c.APIURL = "http://" }, wantErr: "missing host"},
		{name: "zero timeout", mutate: func(c *config.Config) { c.TimeoutSeconds = 0 }, wantErr: "timeout_seconds"},
		{name: "max too low", mutate: func(c *config.Config) { c.MaxResults = 0 }, wantErr: "max_results"},
		{name: "max too high", mutate: func(c *config.Config) { c.MaxResults = 101 }, wantErr: "max_results"},
		{name: "ratio zero", mutate: func(c *config.Config) { c.Breaker.FailureRatio = 0 }, wantErr: "failure_ratio"},
		{name: "ratio above one", mutate: func(c *config.Config) { c.Breaker.FailureRatio = 1.5 }, wantErr: "failure_ratio"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.wantErr == "" {
			assert.NoError(t, err, tt.name)
			continue
		}
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.wantErr, tt.name)
	}
}

func TestTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.TimeoutSeconds = 7

	assert.Equal(t, 7*time.Second, cfg.Timeout())
}

func TestGuardConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Breaker.MinRequests = 5
	cfg.Breaker.FailureRatio = 0.8
	cfg.Breaker.CooldownSeconds = 45

	guard := cfg.GuardConfig()

	assert.Equal(t, uint32(5), guard.MinRequests)
	assert.Equal(t, 0.8, guard.FailureRatio)
	assert.Equal(t, 45*time.Second, guard.OpenTimeout)
}
