package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apet97/worklens/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.Token)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklens.yaml")
	data := "token: tok123\nlog_level: debug\nhttp_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok123", cfg.Token)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("WORKLENS_LOG_LEVEL", "warning")
	t.Setenv("WORKLENS_TOKEN", "env-token")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.LogLevel)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}
	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	cfg = &config.Config{LogLevel: "bogus"}
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
