package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FPP_HOST", "fpp.local")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fpp.local", cfg.FPP.Host)
	assert.Equal(t, 80, cfg.FPP.Port)
	assert.Equal(t, 10*time.Second, cfg.FPP.Timeout)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadMissingHost(t *testing.T) {
	t.Setenv("FPP_HOST", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFullConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FPP_PORT", "8080")
	t.Setenv("FPP_USERNAME", "admin")
	t.Setenv("FPP_PASSWORD", "falcon")
	t.Setenv("FPP_TIMEOUT", "2s")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("POLL_INTERVAL", "1s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.FPP.Port)
	assert.Equal(t, "admin", cfg.FPP.Username)
	assert.Equal(t, "falcon", cfg.FPP.Password)
	assert.Equal(t, 2*time.Second, cfg.FPP.Timeout)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "FPP_PORT", "not-a-port"},
		{"port out of range", "FPP_PORT", "70000"},
		{"bad timeout", "FPP_TIMEOUT", "fast"},
		{"negative timeout", "FPP_TIMEOUT", "-1s"},
		{"bad poll interval", "POLL_INTERVAL", "often"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
