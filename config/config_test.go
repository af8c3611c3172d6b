package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, time.Hour, cfg.JWT.TokenTTL)
}

func TestValidateRejectsEmptyAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Address = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Rate = 0
	assert.Error(t, cfg.Validate())
}

func TestLoaderAppliesDefaultsWithoutFiles(t *testing.T) {
	cfg := &Config{}
	err := NewLoader().
		WithYAMLFile(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnvFile(filepath.Join(t.TempDir(), "missing.env")).
		Load(cfg)

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoaderReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server:\n  address: \":9090\"\nlogger:\n  level: debug\n",
	), 0o644))

	cfg := &Config{}
	err := NewLoader().
		WithYAMLFile(path).
		WithDotEnvFile(filepath.Join(dir, "missing.env")).
		Load(cfg)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestLoaderRejectsInvalidResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"logger:\n  level: loud\n",
	), 0o644))

	cfg := &Config{}
	err := NewLoader().
		WithYAMLFile(path).
		WithDotEnvFile(filepath.Join(dir, "missing.env")).
		Load(cfg)

	assert.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	logger, err := BuildLogger(DefaultConfig().Logger)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = BuildLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o644))

	loader := NewLoader().WithYAMLFile(path).WithDotEnvFile(filepath.Join(dir, "missing.env"))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, loader, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":7070\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":7070", cfg.Server.Address)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration change was not observed")
	}
}
