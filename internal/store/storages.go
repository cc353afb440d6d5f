package store

import (
	"context"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/migrations"
)

// Storages bundles every repository the service layer depends on.
type Storages struct {
	Versions VersionLedger
	Devices  DeviceRepository
	Pending  PendingChangeRepository

	// Registry dispatches record CRUD to the store registered for each
	// collection.
	Registry *AdapterRegistry
}

// NewStorages connects to PostgreSQL, applies pending migrations, and
// wires every repository over the shared connection. The configured
// collections are all registered against the default JSONB record store;
// callers may register further collections with custom adapters before
// serving traffic.
func NewStorages(ctx context.Context, cfg config.Storage, collections []string, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}

	if err = migrations.Migrate(db.DB); err != nil {
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	registry := NewAdapterRegistry()
	recordStore := NewJSONBRecordStore(db, log)
	for _, collection := range collections {
		if err = registry.RegisterCollection(collection, recordStore); err != nil {
			return nil, fmt.Errorf("error registering collection %q: %w", collection, err)
		}
	}

	return &Storages{
		Versions: NewVersionRepository(db, log),
		Devices:  NewDeviceRepository(db, log),
		Pending:  NewPendingChangeRepository(db, log),
		Registry: registry,
	}, nil
}
