package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8000", cfg.ServerAddr)
	assert.Equal(t, database.DriverDynamo, cfg.StoreDriver)
	assert.Equal(t, database.DefaultTableNames, cfg.Tables)
	assert.Equal(t, VerifierStore, cfg.Verifier)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, float64(10), cfg.RateLimit)
	assert.False(t, cfg.AdminEnabled)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("store:\n  driver: memory\ntables:\n  users: custom-users\nauth:\n  verifier: header\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("TASKS_HTTP_BASE_PATH", "/api/")
	t.Setenv("TASKS_AUTH_VERIFIER", "store")

	cfg, err := Load([]string{"--config", path, "--addr", ":9000", "--verifier", "header"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr, "expected flag to set the address")
	assert.Equal(t, database.DriverMemory, cfg.StoreDriver, "expected file to set the driver")
	assert.Equal(t, "custom-users", cfg.Tables.Users)
	assert.Equal(t, database.DefaultTableNames.Groups, cfg.Tables.Groups)
	assert.Equal(t, "/api", cfg.BasePath, "expected env to set the base path without trailing slash")
	assert.Equal(t, VerifierHeader, cfg.Verifier, "expected flag to win over env")
}

func TestLoadValidation(t *testing.T) {
	tcases := []struct {
		name string
		args []string
		err  bool
	}{
		{
			name: "valid memory store",
			args: []string{"--store", "memory"},
			err:  false,
		},
		{
			name: "unknown driver",
			args: []string{"--store", "redis"},
			err:  true,
		},
		{
			name: "postgres without DSN",
			args: []string{"--store", "postgres"},
			err:  true,
		},
		{
			name: "unknown verifier",
			args: []string{"--verifier", "oauth"},
			err:  true,
		},
		{
			name: "admin without token",
			args: []string{"--admin"},
			err:  true,
		},
		{
			name: "relative base path",
			args: []string{"--base-path", "api"},
			err:  true,
		},
		{
			name: "bad log level",
			args: []string{"--log-level", "loud"},
			err:  true,
		},
		{
			name: "admin with token",
			args: []string{"--admin", "--admin-token", "secret"},
			err:  false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.args)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestStoreOptions(t *testing.T) {
	cfg, err := Load([]string{"--store", "postgres", "--dsn", "postgres://localhost/tasks"})
	require.NoError(t, err)

	opts := cfg.StoreOptions()
	assert.Equal(t, database.DriverPostgres, opts.Driver)
	assert.Equal(t, "postgres://localhost/tasks", opts.DSN)
	assert.Equal(t, database.DefaultTableNames, opts.Tables)
}
