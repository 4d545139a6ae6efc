// Package config loads server settings from LISTSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/listsync/internal/store"
)

// Config holds every tunable of the serve command.
type Config struct {
	Addr string `env:"LISTSYNC_ADDR" envDefault:":9000"`

	DBDriver   string `env:"LISTSYNC_DB_DRIVER" envDefault:"sqlite"`
	DBDSN      string `env:"LISTSYNC_DB_DSN" envDefault:"listsync.db"`
	DBMaxConns int    `env:"LISTSYNC_DB_MAX_CONNS" envDefault:"5"`

	// Basic auth is enabled when both are set. The hash is a bcrypt hash,
	// see the hash-password command.
	AuthUser         string `env:"LISTSYNC_AUTH_USER"`
	AuthPasswordHash string `env:"LISTSYNC_AUTH_PASSWORD_HASH"`

	BusCapacity int `env:"LISTSYNC_BUS_CAPACITY" envDefault:"32"`

	PongWait       time.Duration `env:"LISTSYNC_PONG_WAIT" envDefault:"4s"`
	IdleWait       time.Duration `env:"LISTSYNC_IDLE_WAIT" envDefault:"60s"`
	WriteWait      time.Duration `env:"LISTSYNC_WRITE_WAIT" envDefault:"10s"`
	RequestTimeout time.Duration `env:"LISTSYNC_REQUEST_TIMEOUT" envDefault:"4s"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AuthEnabled reports whether basic auth should guard the REST routes.
func (c Config) AuthEnabled() bool {
	return c.AuthUser != "" && c.AuthPasswordHash != ""
}

// StoreOptions converts the database settings for store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:       store.Driver(c.DBDriver),
		DSN:          c.DBDSN,
		MaxOpenConns: c.DBMaxConns,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("LISTSYNC_ADDR must not be empty"))
	}
	if !slices.Contains(store.Drivers, store.Driver(c.DBDriver)) {
		errs = append(errs, fmt.Errorf("LISTSYNC_DB_DRIVER %q: must be one of %v", c.DBDriver, store.Drivers))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("LISTSYNC_DB_DSN must not be empty"))
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, fmt.Errorf("LISTSYNC_DB_MAX_CONNS must be positive, got %d", c.DBMaxConns))
	}
	if (c.AuthUser == "") != (c.AuthPasswordHash == "") {
		errs = append(errs, errors.New("LISTSYNC_AUTH_USER and LISTSYNC_AUTH_PASSWORD_HASH must be set together"))
	}
	if c.BusCapacity < 1 {
		errs = append(errs, fmt.Errorf("LISTSYNC_BUS_CAPACITY must be positive, got %d", c.BusCapacity))
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"LISTSYNC_PONG_WAIT", c.PongWait},
		{"LISTSYNC_IDLE_WAIT", c.IdleWait},
		{"LISTSYNC_WRITE_WAIT", c.WriteWait},
		{"LISTSYNC_REQUEST_TIMEOUT", c.RequestTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
