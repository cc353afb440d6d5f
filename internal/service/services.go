// Package service contains the synchronization engine's business logic:
// device registration, pull and push processing, and conflict resolution.
package service

import (
	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
)

// Services bundles every business-logic service behind one handle.
type Services struct {
	DeviceService
	SyncService
	ConflictService
	AppInfoService
}

// NewServices wires the full service graph over the given storages.
func NewServices(storages *store.Storages, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	deviceService := NewDeviceService(storages.Devices, logger)

	return &Services{
		DeviceService:   deviceService,
		SyncService:     NewSyncService(storages, deviceService, logger),
		ConflictService: NewConflictService(storages, logger),
		AppInfoService:  NewAppInfoService(cfg, logger),
	}
}
