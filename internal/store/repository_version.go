package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// versionRepository is the PostgreSQL-backed implementation of
// [VersionLedger]. All state lives in the "sync_versions" table; rows are
// created on first reference to a record and never removed, so the table
// doubles as the audit trail of every accepted write and conflict event.
//
// The conditional bump is a single CTE statement: the version comparison
// and the update cannot be interleaved by a concurrent push.
type versionRepository struct {
	*DB
	logger *logger.Logger
}

// NewVersionRepository constructs a [VersionLedger] backed by the provided
// database connection and logger.
func NewVersionRepository(db *DB, logger *logger.Logger) VersionLedger {
	return &versionRepository{
		DB:     db,
		logger: logger,
	}
}

// GetOrCreate implements [VersionLedger]. The insert uses ON CONFLICT DO
// NOTHING, so two devices referencing a new record concurrently race
// safely: one insert wins, the loser falls through to the select.
func (v *versionRepository) GetOrCreate(ctx context.Context, collection, recordID, fingerprint, actor, deviceID string) (models.VersionRecord, bool, error) {
	log := logger.FromContext(ctx)

	var vr models.VersionRecord
	err := v.DB.QueryRowContext(ctx, insertVersionRecord, collection, recordID, fingerprint, actor, deviceID).Scan(
		&vr.ID,
		&vr.Collection,
		&vr.RecordID,
		&vr.Version,
		&vr.Fingerprint,
		&vr.LastModified,
		&vr.LastModifiedBy,
		&vr.DeviceID,
		&vr.Status,
		&vr.Deleted,
	)
	if err == nil {
		log.Debug().
			Str("func", "versionRepository.GetOrCreate").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("created version record")
		return vr, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		log.Err(err).
			Str("func", "versionRepository.GetOrCreate").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("failed to insert version record")
		return models.VersionRecord{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	// Insert skipped: the row already exists.
	existing, getErr := v.Get(ctx, collection, recordID)
	if getErr != nil {
		return models.VersionRecord{}, false, getErr
	}

	return existing, false, nil
}

// Get implements [VersionLedger].
func (v *versionRepository) Get(ctx context.Context, collection, recordID string) (models.VersionRecord, error) {
	log := logger.FromContext(ctx)

	var vr models.VersionRecord
	var strategy sql.NullString
	var clientSnapshot, serverSnapshot []byte
	var resolvedBy sql.NullString
	var resolvedAt sql.NullTime

	err := v.DB.QueryRowContext(ctx, getVersionRecord, collection, recordID).Scan(
		&vr.ID,
		&vr.Collection,
		&vr.RecordID,
		&vr.Version,
		&vr.Fingerprint,
		&vr.LastModified,
		&vr.LastModifiedBy,
		&vr.DeviceID,
		&vr.Status,
		&vr.Deleted,
		&strategy,
		&clientSnapshot,
		&serverSnapshot,
		&resolvedBy,
		&resolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VersionRecord{}, ErrVersionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.Get").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("failed to query version record")
		return models.VersionRecord{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	resolution, err := decodeResolution(strategy, clientSnapshot, serverSnapshot, resolvedBy, resolvedAt)
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.Get").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("failed to decode conflict snapshots")
		return models.VersionRecord{}, err
	}
	vr.Resolution = resolution

	return vr, nil
}

// Bump implements [VersionLedger]. The CTE returns the pre-update version
// and fingerprint alongside the post-update version, which is enough to
// tell the four outcomes apart in a single round trip:
//
//   - no row at all                  -> ErrVersionNotFound
//   - bumped version non-NULL        -> applied (version incremented by 1)
//   - bumped NULL, fingerprint equal -> idempotent re-submission, no-op
//   - bumped NULL otherwise          -> ErrVersionConflict
func (v *versionRepository) Bump(ctx context.Context, req BumpRequest) (BumpResult, error) {
	log := logger.FromContext(ctx)

	var currentVersion int64
	var currentFingerprint string
	var bumpedVersion *int64

	err := v.DB.QueryRowContext(ctx, bumpVersionRecord,
		req.Collection,
		req.RecordID,
		req.Fingerprint,
		req.Actor,
		req.DeviceID,
		req.SubmittedVersion,
		req.Deleted,
	).Scan(&currentVersion, &currentFingerprint, &bumpedVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().
			Str("func", "versionRepository.Bump").
			Str("collection", req.Collection).
			Str("record_id", req.RecordID).
			Msg("version record not found")
		return BumpResult{}, ErrVersionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.Bump").
			Str("collection", req.Collection).
			Str("record_id", req.RecordID).
			Msg("failed to execute conditional bump")
		return BumpResult{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if bumpedVersion != nil {
		log.Debug().
			Str("func", "versionRepository.Bump").
			Str("collection", req.Collection).
			Str("record_id", req.RecordID).
			Int64("version", *bumpedVersion).
			Msg("version bumped")
		return BumpResult{Version: *bumpedVersion, Changed: true}, nil
	}

	// Identical content: repeated submission of the same data is a no-op
	// regardless of the claimed version, which is what makes at-least-once
	// delivery safe.
	if currentFingerprint == req.Fingerprint {
		return BumpResult{Version: currentVersion, Changed: false}, nil
	}

	log.Warn().
		Str("func", "versionRepository.Bump").
		Str("collection", req.Collection).
		Str("record_id", req.RecordID).
		Int64("db_version", currentVersion).
		Int64("submitted_version", req.SubmittedVersion).
		Msg("conditional bump rejected: version mismatch")

	return BumpResult{Version: currentVersion}, ErrVersionConflict
}

// MarkConflict implements [VersionLedger].
func (v *versionRepository) MarkConflict(ctx context.Context, collection, recordID string, res models.ConflictResolution) error {
	log := logger.FromContext(ctx)

	clientSnapshot, err := encodeSnapshot(res.ClientSnapshot)
	if err != nil {
		return err
	}
	serverSnapshot, err := encodeSnapshot(res.ServerSnapshot)
	if err != nil {
		return err
	}

	var id int64
	err = v.DB.QueryRowContext(ctx, markVersionConflict,
		collection,
		recordID,
		string(res.Strategy),
		clientSnapshot,
		serverSnapshot,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.MarkConflict").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("failed to mark version record conflicted")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "versionRepository.MarkConflict").
		Str("collection", collection).
		Str("record_id", recordID).
		Msg("version record marked conflicted")

	return nil
}

// MarkResolved implements [VersionLedger].
func (v *versionRepository) MarkResolved(ctx context.Context, collection, recordID string, strategy models.ResolutionStrategy, resolvedBy string) error {
	log := logger.FromContext(ctx)

	var id int64
	err := v.DB.QueryRowContext(ctx, markVersionResolved,
		collection,
		recordID,
		string(strategy),
		resolvedBy,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.MarkResolved").
			Str("collection", collection).
			Str("record_id", recordID).
			Msg("failed to mark version record resolved")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "versionRepository.MarkResolved").
		Str("collection", collection).
		Str("record_id", recordID).
		Str("strategy", string(strategy)).
		Str("resolved_by", resolvedBy).
		Msg("version record marked resolved")

	return nil
}

// ListChangedSince implements [VersionLedger].
func (v *versionRepository) ListChangedSince(ctx context.Context, req ChangesSinceRequest) ([]models.VersionRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildChangesSinceQuery(req)
	if err != nil {
		log.Err(err).
			Str("func", "versionRepository.ListChangedSince").
			Msg("failed to build changes query")
		return nil, err
	}

	rows, queryErr := v.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "versionRepository.ListChangedSince").
			Int("collections_count", len(req.Collections)).
			Msg("failed to execute changes query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	changed := make([]models.VersionRecord, 0, 50)

	for rows.Next() {
		var vr models.VersionRecord

		scanErr := rows.Scan(
			&vr.ID,
			&vr.Collection,
			&vr.RecordID,
			&vr.Version,
			&vr.Fingerprint,
			&vr.LastModified,
			&vr.LastModifiedBy,
			&vr.DeviceID,
			&vr.Status,
			&vr.Deleted,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "versionRepository.ListChangedSince").
				Msg("failed to scan version record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		changed = append(changed, vr)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "versionRepository.ListChangedSince").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return changed, nil
}

// encodeSnapshot serializes a record snapshot for JSONB storage. A nil
// snapshot is stored as SQL NULL.
func encodeSnapshot(r models.Record) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingSnapshot, err)
	}

	return encoded, nil
}

// decodeSnapshot deserializes a JSONB snapshot column; NULL decodes to nil.
func decodeSnapshot(raw []byte) (models.Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var r models.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodingSnapshot, err)
	}

	return r, nil
}

func decodeResolution(strategy sql.NullString, clientSnapshot, serverSnapshot []byte, resolvedBy sql.NullString, resolvedAt sql.NullTime) (*models.ConflictResolution, error) {
	if !strategy.Valid {
		return nil, nil
	}

	client, err := decodeSnapshot(clientSnapshot)
	if err != nil {
		return nil, err
	}
	server, err := decodeSnapshot(serverSnapshot)
	if err != nil {
		return nil, err
	}

	res := &models.ConflictResolution{
		Strategy:       models.ResolutionStrategy(strategy.String),
		ClientSnapshot: client,
		ServerSnapshot: server,
	}

	if resolvedBy.Valid {
		res.ResolvedBy = resolvedBy.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		res.ResolvedAt = &t
	}

	return res, nil
}
