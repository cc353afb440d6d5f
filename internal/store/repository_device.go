package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// deviceRepository is the PostgreSQL-backed implementation of
// [DeviceRepository], keeping all per-device sync state in the "devices"
// table.
type deviceRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the
// provided database connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	return &deviceRepository{
		DB:     db,
		logger: logger,
	}
}

// Register implements [DeviceRepository]. The upsert's DO UPDATE clause
// touches only the display metadata columns, so the session token issued
// on first registration survives every re-registration.
func (d *deviceRepository) Register(ctx context.Context, deviceID string, info models.DeviceInfo, token string) (models.DeviceSync, error) {
	log := logger.FromContext(ctx)

	device, err := d.scanDevice(d.DB.QueryRowContext(ctx, registerDevice,
		deviceID,
		info.Name,
		info.Type,
		info.AppVersion,
		token,
	))
	if err != nil {
		log.Err(err).
			Str("func", "deviceRepository.Register").
			Str("device_id", deviceID).
			Msg("failed to upsert device")
		return models.DeviceSync{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "deviceRepository.Register").
		Str("device_id", deviceID).
		Str("device_type", device.Type).
		Msg("device registered")

	return device, nil
}

// Get implements [DeviceRepository].
func (d *deviceRepository) Get(ctx context.Context, deviceID string) (models.DeviceSync, error) {
	log := logger.FromContext(ctx)

	device, err := d.scanDevice(d.DB.QueryRowContext(ctx, getDevice, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeviceSync{}, ErrDeviceNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "deviceRepository.Get").
			Str("device_id", deviceID).
			Msg("failed to query device")
		return models.DeviceSync{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return device, nil
}

// RecordSyncAttempt implements [DeviceRepository].
func (d *deviceRepository) RecordSyncAttempt(ctx context.Context, deviceID string, success bool) error {
	return d.execForDevice(ctx, "deviceRepository.RecordSyncAttempt", recordSyncAttempt, deviceID, success)
}

// UpdateConflictCounters implements [DeviceRepository]. The pending count
// is overwritten with the latest batch's conflicts; the total accumulates.
func (d *deviceRepository) UpdateConflictCounters(ctx context.Context, deviceID string, newConflicts int64) error {
	return d.execForDevice(ctx, "deviceRepository.UpdateConflictCounters", updateConflictCounters, deviceID, newConflicts)
}

// DecrementPendingConflicts implements [DeviceRepository].
func (d *deviceRepository) DecrementPendingConflicts(ctx context.Context, deviceID string) error {
	return d.execForDevice(ctx, "deviceRepository.DecrementPendingConflicts", decrementPendingConflicts, deviceID)
}

// execForDevice runs a single-row device update and maps an empty result
// to ErrDeviceNotFound.
func (d *deviceRepository) execForDevice(ctx context.Context, caller, query string, deviceID string, args ...any) error {
	log := logger.FromContext(ctx)

	queryArgs := append([]any{deviceID}, args...)

	var updatedID string
	err := d.DB.QueryRowContext(ctx, query, queryArgs...).Scan(&updatedID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().
			Str("func", caller).
			Str("device_id", deviceID).
			Msg("device not found")
		return ErrDeviceNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Str("device_id", deviceID).
			Msg("failed to update device")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (d *deviceRepository) scanDevice(row *sql.Row) (models.DeviceSync, error) {
	var device models.DeviceSync
	var lastSync sql.NullTime

	err := row.Scan(
		&device.DeviceID,
		&device.Name,
		&device.Type,
		&device.AppVersion,
		&lastSync,
		&device.LastSyncSuccess,
		&device.Token,
		&device.PendingConflicts,
		&device.ConflictTotal,
		&device.RegisteredAt,
	)
	if err != nil {
		return models.DeviceSync{}, err
	}

	if lastSync.Valid {
		t := lastSync.Time
		device.LastSync = &t
	}

	return device, nil
}
