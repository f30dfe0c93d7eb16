package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/court")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := load(source{})
	require.NoError(t, err)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, "0 3 * * *", cfg.AutoCompleteCron)
	assert.Equal(t, "US", cfg.WaitlistDefaultRegion)
	assert.Equal(t, "court.events", cfg.AMQPExchange)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	_, err := load(source{})
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/court")
	t.Setenv("JWT_SECRET", "")
	_, err = load(source{})
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"AUTO_COMPLETE_CRON", "every night"},
		{"TX_MAX_ATTEMPTS", "zero"},
		{"TX_MAX_ATTEMPTS", "0"},
		{"JWT_ACCESS_TOKEN_TTL", "15"},
		{"LOG_LEVEL", "loud"},
		{"WAITLIST_DEFAULT_REGION", "XX"},
		{"SES_REGION", "eu-west-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := load(source{})
			assert.Error(t, err)
		})
	}
}

func TestFileOverlay(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
APP_ENV: prod
TX_MAX_ATTEMPTS: 5
AUTO_COMPLETE_CRON: "*/15 * * * *"
WAITLIST_DEFAULT_REGION: es
`), 0o600))

	file, err := readFile(path)
	require.NoError(t, err)

	t.Setenv("TX_MAX_ATTEMPTS", "7")
	cfg, err := load(source{file: file})
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction)
	assert.Equal(t, 7, cfg.TxMaxAttempts, "environment wins over the file")
	assert.Equal(t, "*/15 * * * *", cfg.AutoCompleteCron)
	assert.Equal(t, "ES", cfg.WaitlistDefaultRegion)
}

func TestReadFileErrors(t *testing.T) {
	_, err := readFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))
	_, err = readFile(path)
	assert.Error(t, err)
}
