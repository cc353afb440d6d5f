package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration values are missing or inconsistent.
var (
	// ErrNoDatabaseDSN is returned when no PostgreSQL connection string
	// was provided by any configuration source.
	ErrNoDatabaseDSN = errors.New("database DSN is not specified")

	// ErrNoCollections is returned when the engine is started without a
	// single record collection to serve.
	ErrNoCollections = errors.New("no sync collections configured")

	// ErrBadAutoResolveInterval is returned when the auto-resolve worker
	// is enabled with a non-positive sweep interval.
	ErrBadAutoResolveInterval = errors.New("auto-resolve interval must be positive")

	// ErrBadAutoResolveStrategy is returned when the auto-resolve worker
	// is enabled with an unknown resolution strategy.
	ErrBadAutoResolveStrategy = errors.New("auto-resolve strategy is not supported")
)
