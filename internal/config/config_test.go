package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "listsync.db", cfg.DBDSN)
	assert.Equal(t, 5, cfg.DBMaxConns)
	assert.Equal(t, 32, cfg.BusCapacity)
	assert.Equal(t, 4*time.Second, cfg.PongWait)
	assert.Equal(t, 60*time.Second, cfg.IdleWait)
	assert.Equal(t, 10*time.Second, cfg.WriteWait)
	assert.Equal(t, 4*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LISTSYNC_ADDR", "127.0.0.1:8080")
	t.Setenv("LISTSYNC_DB_DRIVER", "postgres")
	t.Setenv("LISTSYNC_DB_DSN", "postgres://localhost/lists")
	t.Setenv("LISTSYNC_AUTH_USER", "admin")
	t.Setenv("LISTSYNC_AUTH_PASSWORD_HASH", "$2a$10$abc")
	t.Setenv("LISTSYNC_PONG_WAIT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.PongWait)
	assert.True(t, cfg.AuthEnabled())

	opts := cfg.StoreOptions()
	assert.Equal(t, store.DriverPostgres, opts.Driver)
	assert.Equal(t, "postgres://localhost/lists", opts.DSN)
	assert.Equal(t, 5, opts.MaxOpenConns)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("LISTSYNC_BUS_CAPACITY", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"), err.Error())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }, "LISTSYNC_ADDR"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "LISTSYNC_DB_DRIVER"},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, "LISTSYNC_DB_DSN"},
		{"zero conns", func(c *Config) { c.DBMaxConns = 0 }, "LISTSYNC_DB_MAX_CONNS"},
		{"user without hash", func(c *Config) { c.AuthUser = "admin" }, "set together"},
		{"hash without user", func(c *Config) { c.AuthPasswordHash = "x" }, "set together"},
		{"zero capacity", func(c *Config) { c.BusCapacity = 0 }, "LISTSYNC_BUS_CAPACITY"},
		{"zero pong wait", func(c *Config) { c.PongWait = 0 }, "LISTSYNC_PONG_WAIT"},
		{"negative idle wait", func(c *Config) { c.IdleWait = -time.Second }, "LISTSYNC_IDLE_WAIT"},
		{"zero write wait", func(c *Config) { c.WriteWait = 0 }, "LISTSYNC_WRITE_WAIT"},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, "LISTSYNC_REQUEST_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"LISTSYNC_ADDR", "LISTSYNC_DB_DSN", "LISTSYNC_BUS_CAPACITY", "LISTSYNC_PONG_WAIT"} {
		assert.Contains(t, err.Error(), name)
	}
}
