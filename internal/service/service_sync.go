package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// syncService implements [SyncService]: the pull engine, the push engine,
// and the register → pull → push orchestration on top of the version
// ledger, the device registry, the pending-change queue, and the record
// store adapter registry.
type syncService struct {
	versions store.VersionLedger
	devices  store.DeviceRepository
	pending  store.PendingChangeRepository
	registry *store.AdapterRegistry

	deviceSvc DeviceService
	ids       *utils.UUIDGenerator

	logger *logger.Logger
}

// NewSyncService constructs a [SyncService] over the given storages.
func NewSyncService(storages *store.Storages, deviceSvc DeviceService, logger *logger.Logger) SyncService {
	return &syncService{
		versions:  storages.Versions,
		devices:   storages.Devices,
		pending:   storages.Pending,
		registry:  storages.Registry,
		deviceSvc: deviceSvc,
		ids:       utils.NewUUIDGenerator(),
		logger:    logger,
	}
}

// Pull implements [SyncService].
func (s *syncService) Pull(ctx context.Context, deviceID string, since *time.Time, collections []string) (models.PullResult, error) {
	log := logger.FromContext(ctx)

	device, err := s.devices.Get(ctx, deviceID)
	if errors.Is(err, store.ErrDeviceNotFound) {
		return models.PullResult{}, fmt.Errorf("%w: %s", ErrDeviceNotRegistered, deviceID)
	}
	if err != nil {
		return models.PullResult{}, err
	}

	if len(collections) == 0 {
		collections = s.registry.Collections()
	} else {
		for _, collection := range collections {
			if _, lookupErr := s.registry.Lookup(collection); lookupErr != nil {
				return models.PullResult{}, fmt.Errorf("%w: %s", store.ErrUnknownCollection, collection)
			}
		}
	}

	changed, err := s.versions.ListChangedSince(ctx, store.ChangesSinceRequest{
		Since:       since,
		Collections: collections,
	})
	if err != nil {
		return models.PullResult{}, err
	}

	changes := make([]models.PullChange, 0, len(changed))
	for _, vr := range changed {
		change, ok, buildErr := s.buildPullChange(ctx, vr)
		if buildErr != nil {
			return models.PullResult{}, buildErr
		}
		if !ok {
			// Record vanished from the store without a deletion marker;
			// nothing can be delivered for it.
			log.Debug().
				Str("func", "syncService.Pull").
				Str("collection", vr.Collection).
				Str("record_id", vr.RecordID).
				Msg("skipping change: record missing from store")
			continue
		}

		changes = append(changes, change)
	}

	if err = s.devices.RecordSyncAttempt(ctx, deviceID, true); err != nil {
		return models.PullResult{}, err
	}

	log.Info().
		Str("func", "syncService.Pull").
		Str("device_id", deviceID).
		Int("changes_count", len(changes)).
		Msg("pull completed")

	return models.PullResult{
		Changes:    changes,
		Token:      device.Token,
		ServerTime: time.Now().UTC(),
	}, nil
}

// buildPullChange turns a ledger row into a deliverable change. The
// second return value is false when the backing record is gone and no
// deletion was recorded.
func (s *syncService) buildPullChange(ctx context.Context, vr models.VersionRecord) (models.PullChange, bool, error) {
	change := models.PullChange{
		Collection:   vr.Collection,
		RecordID:     vr.RecordID,
		Version:      vr.Version,
		LastModified: vr.LastModified,
		Deleted:      vr.Deleted,
	}

	if vr.Deleted {
		change.Operation = models.OperationDelete
		return change, true, nil
	}

	data, err := s.registry.Get(ctx, vr.Collection, vr.RecordID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return models.PullChange{}, false, nil
	}
	if err != nil {
		return models.PullChange{}, false, err
	}

	change.Data = data
	if vr.Version == 1 {
		change.Operation = models.OperationCreate
	} else {
		change.Operation = models.OperationUpdate
	}

	return change, true, nil
}

// Sync implements [SyncService]. The pull runs over all registered
// collections; its result reflects the state just before the device's own
// changes were applied.
func (s *syncService) Sync(ctx context.Context, deviceID string, info models.DeviceInfo, since *time.Time, changes []models.Change) (models.SyncResult, error) {
	device, err := s.deviceSvc.Register(ctx, deviceID, info)
	if err != nil {
		return models.SyncResult{}, err
	}

	pull, err := s.Pull(ctx, deviceID, since, nil)
	if err != nil {
		return models.SyncResult{}, err
	}

	push, err := s.Push(ctx, deviceID, changes)
	if err != nil {
		return models.SyncResult{}, err
	}

	return models.SyncResult{
		Device: device,
		Pull:   pull,
		Push:   push,
	}, nil
}
