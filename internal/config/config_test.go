package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{DB: DB{DSN: "postgres://localhost:5432/sync"}},
		Sync:    Sync{Collections: []string{"entries"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StructuredConfig)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(c *StructuredConfig) {},
			wantErr: nil,
		},
		{
			name:    "missing DSN",
			mutate:  func(c *StructuredConfig) { c.Storage.DB.DSN = "" },
			wantErr: ErrNoDatabaseDSN,
		},
		{
			name:    "missing collections",
			mutate:  func(c *StructuredConfig) { c.Sync.Collections = nil },
			wantErr: ErrNoCollections,
		},
		{
			name: "auto-resolve enabled without interval",
			mutate: func(c *StructuredConfig) {
				c.Workers.AutoResolve = AutoResolve{Enabled: true, Strategy: "server_wins"}
			},
			wantErr: ErrBadAutoResolveInterval,
		},
		{
			name: "auto-resolve enabled with unknown strategy",
			mutate: func(c *StructuredConfig) {
				c.Workers.AutoResolve = AutoResolve{Enabled: true, Interval: time.Minute, Strategy: "coin_flip"}
			},
			wantErr: ErrBadAutoResolveStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.applyDefaults()

	assert.Equal(t, defaultHTTPAddress, cfg.Server.HTTPAddress)
	assert.Equal(t, defaultRequestTimeout, cfg.Server.RequestTimeout)
}

func TestConfigBuilder_EarlierSourcesWin(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Storage: Storage{DB: DB{DSN: "postgres://primary"}}},
		&StructuredConfig{
			Storage: Storage{DB: DB{DSN: "postgres://fallback"}},
			Server:  Server{HTTPAddress: "localhost:9090"},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)

	assert.Equal(t, "postgres://primary", cfg.Storage.DB.DSN)
	assert.Equal(t, "localhost:9090", cfg.Server.HTTPAddress)
}

func TestSplitCollections(t *testing.T) {
	assert.Nil(t, splitCollections(""))
	assert.Equal(t, []string{"entries", "shifts"}, splitCollections("entries, shifts"))
	assert.Equal(t, []string{"entries"}, splitCollections("entries,,"))
}
