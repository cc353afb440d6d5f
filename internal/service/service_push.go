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

// changeOutcome classifies one processed change into exactly one of the
// three result lists.
type changeOutcome struct {
	synced   *models.SyncedChange
	conflict *models.ConflictedChange
	err      *models.ChangeError
}

// Push implements [SyncService].
//
// Changes are processed sequentially in submission order to keep
// per-record ordering simple within one batch; batches from different
// devices interleave arbitrarily at the store, which is safe because the
// version test and bump execute as one conditional statement in the
// ledger. A batch can end partially applied: per-change failures are
// collected, never raised.
func (s *syncService) Push(ctx context.Context, deviceID string, changes []models.Change) (models.PushResult, error) {
	log := logger.FromContext(ctx)

	if _, err := s.devices.Get(ctx, deviceID); err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			return models.PushResult{}, fmt.Errorf("%w: %s", ErrDeviceNotRegistered, deviceID)
		}
		return models.PushResult{}, err
	}

	result := models.PushResult{
		Synced:    make([]models.SyncedChange, 0, len(changes)),
		Conflicts: make([]models.ConflictedChange, 0),
		Errors:    make([]models.ChangeError, 0),
	}

	for idx, change := range changes {
		outcome := s.applyChange(ctx, deviceID, change)

		switch {
		case outcome.synced != nil:
			result.Synced = append(result.Synced, *outcome.synced)
		case outcome.conflict != nil:
			result.Conflicts = append(result.Conflicts, *outcome.conflict)
		case outcome.err != nil:
			log.Warn().
				Str("func", "syncService.Push").
				Str("device_id", deviceID).
				Int("iteration", idx+1).
				Str("collection", change.Collection).
				Str("record_id", change.RecordID).
				Str("reason", outcome.err.Message).
				Msg("change failed")
			result.Errors = append(result.Errors, *outcome.err)
		}
	}

	newConflicts := int64(len(result.Conflicts))
	if err := s.devices.UpdateConflictCounters(ctx, deviceID, newConflicts); err != nil {
		return models.PushResult{}, err
	}
	if err := s.devices.RecordSyncAttempt(ctx, deviceID, len(result.Errors) == 0); err != nil {
		return models.PushResult{}, err
	}

	log.Info().
		Str("func", "syncService.Push").
		Str("device_id", deviceID).
		Int("synced", len(result.Synced)).
		Int("conflicts", len(result.Conflicts)).
		Int("errors", len(result.Errors)).
		Msg("push completed")

	return result, nil
}

// applyChange processes a single change end to end: validation, the
// version conflict test, the ledger bump, and the record store write.
func (s *syncService) applyChange(ctx context.Context, deviceID string, change models.Change) changeOutcome {
	if !change.Operation.Valid() {
		return errorOutcome(change, fmt.Sprintf("operation %q is not supported", change.Operation))
	}

	if _, err := s.registry.Lookup(change.Collection); err != nil {
		return errorOutcome(change, fmt.Sprintf("collection %q is not registered", change.Collection))
	}

	recordID := change.RecordID
	if recordID == "" {
		if change.Operation != models.OperationCreate {
			return errorOutcome(change, "record id is required")
		}
		recordID = s.ids.Generate()
	}

	var content models.Record
	if change.Operation != models.OperationDelete {
		content = change.Data
	}
	fingerprint, err := utils.Fingerprint(content)
	if err != nil {
		return errorOutcome(change, err.Error())
	}

	vr, created, err := s.versions.GetOrCreate(ctx, change.Collection, recordID, fingerprint, deviceID, deviceID)
	if err != nil {
		return errorOutcome(change, err.Error())
	}

	// Conflict test: the device edited data it no longer has the latest
	// view of. An identical fingerprint is exempt — resubmitting content
	// the server already holds is a no-op, not a conflict.
	if !created && vr.Version > change.Version && vr.Fingerprint != fingerprint {
		return s.queueConflict(ctx, deviceID, change, recordID, vr)
	}

	// The bump runs before the record store write: a change refused by the
	// conditional bump must never touch the stored record. If the store
	// write below fails after a successful bump, the resubmission no-ops
	// on the matching fingerprint and retries the write.
	bumped, err := s.versions.Bump(ctx, store.BumpRequest{
		Collection:       change.Collection,
		RecordID:         recordID,
		Fingerprint:      fingerprint,
		SubmittedVersion: change.Version,
		Actor:            deviceID,
		DeviceID:         deviceID,
		Deleted:          change.Operation == models.OperationDelete,
	})
	if errors.Is(err, store.ErrVersionConflict) {
		// A concurrent push won the conditional bump between our version
		// test and the write.
		return s.queueConflict(ctx, deviceID, change, recordID, vr)
	}
	if err != nil {
		return errorOutcome(change, err.Error())
	}

	if storeErr := s.applyToStore(ctx, change, recordID); storeErr != nil {
		return errorOutcome(change, storeErr.Error())
	}

	return changeOutcome{synced: &models.SyncedChange{
		Collection: change.Collection,
		RecordID:   recordID,
		Version:    bumped.Version,
	}}
}

// applyToStore routes the operation to the record store adapter.
func (s *syncService) applyToStore(ctx context.Context, change models.Change, recordID string) error {
	switch change.Operation {
	case models.OperationCreate:
		_, err := s.registry.Create(ctx, change.Collection, recordID, change.Data)
		return err
	case models.OperationUpdate:
		_, err := s.registry.Update(ctx, change.Collection, recordID, change.Data)
		return err
	case models.OperationDelete:
		return s.registry.Delete(ctx, change.Collection, recordID)
	default:
		return fmt.Errorf("operation %q is not supported", change.Operation)
	}
}

// queueConflict persists the refused change with both snapshots and flags
// the ledger row. Conflicts are an expected, first-class outcome; failures
// while queuing degrade to an error entry so the batch keeps going.
func (s *syncService) queueConflict(ctx context.Context, deviceID string, change models.Change, recordID string, vr models.VersionRecord) changeOutcome {
	serverSnapshot, err := s.registry.Get(ctx, change.Collection, recordID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return errorOutcome(change, err.Error())
	}

	submittedAt := change.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	pendingID, err := s.pending.Queue(ctx, models.PendingChange{
		DeviceID:         deviceID,
		Collection:       change.Collection,
		RecordID:         recordID,
		Operation:        change.Operation,
		Payload:          change.Data,
		SubmittedVersion: change.Version,
		SubmittedAt:      submittedAt,
		Status:           models.StatusConflict,
	})
	if err != nil {
		return errorOutcome(change, err.Error())
	}

	err = s.versions.MarkConflict(ctx, change.Collection, recordID, models.ConflictResolution{
		Strategy:       models.StrategyUnresolved,
		ClientSnapshot: change.Data,
		ServerSnapshot: serverSnapshot,
	})
	if err != nil {
		return errorOutcome(change, err.Error())
	}

	return changeOutcome{conflict: &models.ConflictedChange{
		PendingChangeID:  pendingID,
		Collection:       change.Collection,
		RecordID:         recordID,
		ServerVersion:    vr.Version,
		SubmittedVersion: change.Version,
	}}
}

func errorOutcome(change models.Change, message string) changeOutcome {
	return changeOutcome{err: &models.ChangeError{
		Collection: change.Collection,
		RecordID:   change.RecordID,
		Message:    message,
	}}
}
