// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Kotelnikov

package config

import (
	"time"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// StructuredConfig is the top-level configuration container for the sync
// engine. It is populated by merging values from environment variables,
// command-line flags, and an optional JSON file, in that order of
// precedence.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string
	// exposed on the version endpoint.
	App App `envPrefix:"APP_"`

	// Storage holds the relational database connection settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP
	// server.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds engine-level settings: the set of record collections the
	// adapter registry serves.
	Sync Sync `envPrefix:"SYNC_"`

	// Workers holds configuration for background workers, currently the
	// automatic conflict resolution policy.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application,
	// exposed via the /api/version endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups persistence configuration.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds the relational database connection settings.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Server holds HTTP server settings.
type Server struct {
	// HTTPAddress is the listen address in host:port form.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single sync request end to end. The engine
	// itself models no timeouts; this caller-supplied deadline wraps each
	// request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds engine-level settings.
type Sync struct {
	// Collections is the list of record collections the engine serves.
	// Each name is registered in the adapter registry at startup; pushes
	// and pulls referencing other collections are rejected.
	// Env: SYNC_COLLECTIONS (comma-separated)
	Collections []string `env:"COLLECTIONS"`
}

// Workers groups background worker configuration.
type Workers struct {
	AutoResolve AutoResolve `envPrefix:"AUTO_RESOLVE_"`
}

// AutoResolve configures the automatic conflict resolution worker. When
// disabled, conflicts wait for an operator.
type AutoResolve struct {
	// Enabled turns the worker on.
	// Env: WORKERS_AUTO_RESOLVE_ENABLED
	Enabled bool `env:"ENABLED"`

	// Interval is the delay between resolution sweeps.
	// Env: WORKERS_AUTO_RESOLVE_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// Strategy is the resolution strategy the worker applies
	// (server_wins, client_wins, last_write_wins or merge).
	// Env: WORKERS_AUTO_RESOLVE_STRATEGY
	Strategy string `env:"STRATEGY"`
}

const (
	defaultHTTPAddress    = "localhost:8080"
	defaultRequestTimeout = 30 * time.Second
)

// GetStructuredConfig loads, merges, and validates the application
// configuration from, in order of precedence: environment variables,
// command-line flags, and an optional JSON file.
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, cfg.validate()
}

func (c *StructuredConfig) applyDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = defaultHTTPAddress
	}

	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = defaultRequestTimeout
	}
}

func (c *StructuredConfig) validate() error {
	if c.Storage.DB.DSN == "" {
		return ErrNoDatabaseDSN
	}

	if len(c.Sync.Collections) == 0 {
		return ErrNoCollections
	}

	if c.Workers.AutoResolve.Enabled {
		if c.Workers.AutoResolve.Interval <= 0 {
			return ErrBadAutoResolveInterval
		}

		if !models.ResolutionStrategy(c.Workers.AutoResolve.Strategy).Valid() {
			return ErrBadAutoResolveStrategy
		}
	}

	return nil
}
