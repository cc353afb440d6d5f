package config

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// ResolverConfig configures the operator conflict console.
type ResolverConfig struct {
	// EngineAddress is the base URL (or host:port) of the sync engine.
	// Env: RESOLVER_ADDRESS
	EngineAddress string `env:"RESOLVER_ADDRESS"`

	// Operator is the identity recorded as the resolver on every
	// resolution applied from the console.
	// Env: RESOLVER_OPERATOR
	Operator string `env:"RESOLVER_OPERATOR"`

	// RequestTimeout bounds each call to the engine.
	// Env: RESOLVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"RESOLVER_REQUEST_TIMEOUT"`
}

const (
	defaultEngineAddress   = "http://localhost:8080"
	defaultOperator        = "operator"
	defaultResolverTimeout = 15 * time.Second
)

// GetResolverConfig loads the console configuration from environment
// variables and command-line flags; env values win. The console uses its
// own flag set so it never collides with the server flags in this package.
func GetResolverConfig() (*ResolverConfig, error) {
	cfg := &ResolverConfig{}

	fs := flag.NewFlagSet("resolver", flag.ExitOnError)
	address := fs.String("a", "", "Sync engine address")
	operator := fs.String("o", "", "Operator identity recorded on resolutions")
	timeout := fs.Duration("t", 0, "Request timeout (e.g., 15s)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	cfg.EngineAddress = *address
	cfg.Operator = *operator
	cfg.RequestTimeout = *timeout

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.EngineAddress == "" {
		cfg.EngineAddress = defaultEngineAddress
	}
	if cfg.Operator == "" {
		cfg.Operator = defaultOperator
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultResolverTimeout
	}

	return cfg, nil
}
