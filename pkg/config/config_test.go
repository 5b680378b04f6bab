package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0.5, cfg.Chat.LowConfidenceThreshold)
	assert.Equal(t, 30*time.Second, cfg.Reminders.PollInterval)
	assert.Equal(t, 15, cfg.Reminders.DefaultNotifyBefore)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
database:
  driver: redis
chat:
  low_confidence_threshold: 0.6
reminders:
  poll_interval: 1m
  timezone: Europe/Berlin
log:
  level: debug
  format: console
`)
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("REDIS_URL", "redis://:secret@cache:6379/2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, DriverRedis, cfg.Database.Driver)
	assert.Equal(t, "redis://:secret@cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, 0.6, cfg.Chat.LowConfidenceThreshold)
	assert.Equal(t, time.Minute, cfg.Reminders.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)

	loc, err := cfg.Reminders.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfig_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://bot:pw@db.internal:6543/desk?sslmode=require")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DatabaseConfig{
		Driver:       DriverPostgres,
		Host:         "db.internal",
		Port:         6543,
		User:         "bot",
		Password:     "pw",
		DBName:       "desk",
		SSLMode:      "require",
		MaxOpenConns: 10,
	}, cfg.Database)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown driver", body: "database:\n  driver: mongo\n"},
		{name: "threshold out of range", body: "chat:\n  low_confidence_threshold: 1.5\n"},
		{name: "zero poll interval", body: "reminders:\n  poll_interval: 0s\n"},
		{name: "bad timezone", body: "reminders:\n  timezone: Mars/Olympus\n"},
		{name: "bad database url", env: map[string]string{"DATABASE_URL": "mysql://localhost/db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseDatabaseURL_DefaultPort(t *testing.T) {
	db, err := parseDatabaseURL("postgresql://u@localhost/app")
	require.NoError(t, err)

	assert.Equal(t, 5432, db.Port)
	assert.Equal(t, "disable", db.SSLMode)
	assert.Equal(t, "app", db.DBName)
}
