package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// conflictService closes queued conflicts by applying one of the resolution
// strategies and releasing the version ledger row back into synced state.
type conflictService struct {
	versions store.VersionLedger
	devices  store.DeviceRepository
	pending  store.PendingChangeRepository
	registry *store.AdapterRegistry

	logger *logger.Logger
}

// NewConflictService constructs a [ConflictService] over the given storages.
func NewConflictService(storages *store.Storages, logger *logger.Logger) ConflictService {
	return &conflictService{
		versions: storages.Versions,
		devices:  storages.Devices,
		pending:  storages.Pending,
		registry: storages.Registry,
		logger:   logger,
	}
}

// Resolve implements [ConflictService].
func (s *conflictService) Resolve(ctx context.Context, conflictID int64, strategy models.ResolutionStrategy, resolvedBy string, mergedData models.Record) (models.ResolveResult, error) {
	log := logger.FromContext(ctx)

	if !strategy.Valid() {
		return models.ResolveResult{}, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}

	pc, err := s.pending.Get(ctx, conflictID)
	if err != nil {
		return models.ResolveResult{}, err
	}
	if pc.Status != models.StatusConflict {
		return models.ResolveResult{}, fmt.Errorf("%w: pending change %d", ErrConflictAlreadyResolved, conflictID)
	}

	vr, err := s.versions.Get(ctx, pc.Collection, pc.RecordID)
	if err != nil {
		return models.ResolveResult{}, err
	}

	winner, err := s.pickWinner(ctx, strategy, pc, vr, mergedData)
	if err != nil {
		return models.ResolveResult{}, err
	}

	newVersion := vr.Version
	if winner != nil {
		newVersion, err = s.applyWinner(ctx, pc, vr, *winner, resolvedBy)
		if err != nil {
			return models.ResolveResult{}, err
		}
	}

	if err = s.versions.MarkResolved(ctx, pc.Collection, pc.RecordID, strategy, resolvedBy); err != nil {
		return models.ResolveResult{}, err
	}
	if err = s.pending.MarkSynced(ctx, conflictID); err != nil {
		return models.ResolveResult{}, err
	}
	if err = s.devices.DecrementPendingConflicts(ctx, pc.DeviceID); err != nil {
		return models.ResolveResult{}, err
	}

	log.Info().
		Str("func", "conflictService.Resolve").
		Int64("conflict_id", conflictID).
		Str("collection", pc.Collection).
		Str("record_id", pc.RecordID).
		Str("strategy", string(strategy)).
		Str("resolved_by", resolvedBy).
		Int64("new_version", newVersion).
		Msg("conflict resolved")

	return models.ResolveResult{
		Collection: pc.Collection,
		RecordID:   pc.RecordID,
		NewVersion: newVersion,
	}, nil
}

// resolutionOutcome is the content a resolution settles on. A delete
// outcome tombstones the record instead of writing data.
type resolutionOutcome struct {
	data   models.Record
	delete bool
}

// pickWinner decides what the record should contain after resolution. A
// nil outcome means the server copy stands and no write is needed.
func (s *conflictService) pickWinner(ctx context.Context, strategy models.ResolutionStrategy, pc models.PendingChange, vr models.VersionRecord, mergedData models.Record) (*resolutionOutcome, error) {
	switch strategy {
	case models.StrategyServerWins:
		return nil, nil

	case models.StrategyClientWins:
		return clientOutcome(pc), nil

	case models.StrategyLastWriteWins:
		// The client's edit clock against the server's last accepted
		// write. Ties go to the server, the copy already in place.
		if pc.SubmittedAt.After(vr.LastModified) {
			return clientOutcome(pc), nil
		}
		return nil, nil

	case models.StrategyMerge:
		if pc.Operation == models.OperationDelete {
			// Nothing to merge with; keep the surviving server copy.
			return nil, nil
		}
		if mergedData != nil {
			return &resolutionOutcome{data: mergedData.Clone()}, nil
		}
		merged, err := s.mergeSnapshots(ctx, pc, vr)
		if err != nil {
			return nil, err
		}
		return &resolutionOutcome{data: merged}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
}

func clientOutcome(pc models.PendingChange) *resolutionOutcome {
	if pc.Operation == models.OperationDelete {
		return &resolutionOutcome{delete: true}
	}
	return &resolutionOutcome{data: pc.Payload.Clone()}
}

// mergeSnapshots unions the server record with the client payload, client
// fields taking precedence. The record's original creation stamp survives
// from the server side; the update stamp moves to the resolution time.
func (s *conflictService) mergeSnapshots(ctx context.Context, pc models.PendingChange, vr models.VersionRecord) (models.Record, error) {
	server, err := s.registry.Get(ctx, pc.Collection, pc.RecordID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	merged := server.Clone()
	if merged == nil {
		merged = models.Record{}
	}
	if err = mergo.Merge(&merged, pc.Payload, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging conflict snapshots: %w", err)
	}
	if createdAt, ok := server["created_at"]; ok {
		merged["created_at"] = createdAt
	}
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	return merged, nil
}

// applyWinner writes the winning content through the record store adapter
// and bumps the ledger. The bump uses the server's current version as the
// submitted one so it always succeeds regardless of how stale the queued
// change was.
func (s *conflictService) applyWinner(ctx context.Context, pc models.PendingChange, vr models.VersionRecord, winner resolutionOutcome, resolvedBy string) (int64, error) {
	var (
		fingerprint string
		err         error
	)

	if winner.delete {
		if err = s.registry.Delete(ctx, pc.Collection, pc.RecordID); err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return 0, err
		}
		fingerprint, err = utils.Fingerprint(nil)
	} else {
		if _, err = s.registry.Update(ctx, pc.Collection, pc.RecordID, winner.data); err != nil {
			if !errors.Is(err, store.ErrRecordNotFound) {
				return 0, err
			}
			// Conflicts over a record the store no longer holds, e.g. a
			// server-side delete raced the queued edit.
			if _, err = s.registry.Create(ctx, pc.Collection, pc.RecordID, winner.data); err != nil {
				return 0, err
			}
		}
		fingerprint, err = utils.Fingerprint(winner.data)
	}
	if err != nil {
		return 0, err
	}

	bumped, err := s.versions.Bump(ctx, store.BumpRequest{
		Collection:       pc.Collection,
		RecordID:         pc.RecordID,
		Fingerprint:      fingerprint,
		SubmittedVersion: vr.Version,
		Actor:            resolvedBy,
		DeviceID:         pc.DeviceID,
		Deleted:          winner.delete,
	})
	if err != nil {
		return 0, err
	}

	return bumped.Version, nil
}

// ListPendingConflicts implements [ConflictService].
func (s *conflictService) ListPendingConflicts(ctx context.Context, deviceID string) ([]models.PendingConflict, error) {
	changes, err := s.pending.ListConflicts(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]models.PendingConflict, 0, len(changes))
	for _, pc := range changes {
		conflict := models.PendingConflict{PendingChange: pc}

		if vr, verErr := s.versions.Get(ctx, pc.Collection, pc.RecordID); verErr == nil {
			conflict.ServerVersion = vr.Version
		}
		if snapshot, getErr := s.registry.Get(ctx, pc.Collection, pc.RecordID); getErr == nil {
			conflict.ServerSnapshot = snapshot
		}

		conflicts = append(conflicts, conflict)
	}

	return conflicts, nil
}
