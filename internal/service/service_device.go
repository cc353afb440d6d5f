package service

import (
	"context"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

type deviceService struct {
	devices store.DeviceRepository

	logger *logger.Logger
}

// NewDeviceService constructs a [DeviceService] over the device registry.
func NewDeviceService(devices store.DeviceRepository, logger *logger.Logger) DeviceService {
	return &deviceService{
		devices: devices,
		logger:  logger,
	}
}

// Register implements [DeviceService]. A fresh token is generated for
// every call but only stored on first registration; the repository upsert
// preserves the existing token for known devices.
func (s *deviceService) Register(ctx context.Context, deviceID string, info models.DeviceInfo) (models.DeviceSync, error) {
	log := logger.FromContext(ctx)

	if deviceID == "" {
		return models.DeviceSync{}, ErrNoDeviceIDProvided
	}

	token, err := utils.NewSessionToken()
	if err != nil {
		log.Err(err).
			Str("func", "deviceService.Register").
			Str("device_id", deviceID).
			Msg("failed to generate session token")
		return models.DeviceSync{}, err
	}

	return s.devices.Register(ctx, deviceID, info, token)
}
