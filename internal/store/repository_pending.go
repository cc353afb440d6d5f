package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// pendingChangeRepository is the PostgreSQL-backed implementation of
// [PendingChangeRepository]. Queued conflicts live in the
// "pending_changes" table and are never deleted; resolution flips their
// status to synced.
type pendingChangeRepository struct {
	*DB
	logger *logger.Logger
}

// NewPendingChangeRepository constructs a [PendingChangeRepository] backed
// by the provided database connection and logger.
func NewPendingChangeRepository(db *DB, logger *logger.Logger) PendingChangeRepository {
	return &pendingChangeRepository{
		DB:     db,
		logger: logger,
	}
}

// Queue implements [PendingChangeRepository].
func (p *pendingChangeRepository) Queue(ctx context.Context, pc models.PendingChange) (int64, error) {
	log := logger.FromContext(ctx)

	payload, err := encodeSnapshot(pc.Payload)
	if err != nil {
		return 0, err
	}

	var id int64
	err = p.DB.QueryRowContext(ctx, queuePendingChange,
		pc.DeviceID,
		pc.Collection,
		pc.RecordID,
		string(pc.Operation),
		payload,
		pc.SubmittedVersion,
		pc.SubmittedAt,
	).Scan(&id)
	if err != nil {
		log.Err(err).
			Str("func", "pendingChangeRepository.Queue").
			Str("device_id", pc.DeviceID).
			Str("collection", pc.Collection).
			Str("record_id", pc.RecordID).
			Msg("failed to queue pending change")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "pendingChangeRepository.Queue").
		Int64("pending_change_id", id).
		Str("device_id", pc.DeviceID).
		Str("collection", pc.Collection).
		Str("record_id", pc.RecordID).
		Msg("queued pending change")

	return id, nil
}

// Get implements [PendingChangeRepository].
func (p *pendingChangeRepository) Get(ctx context.Context, id int64) (models.PendingChange, error) {
	log := logger.FromContext(ctx)

	var pc models.PendingChange
	var payload []byte

	err := p.DB.QueryRowContext(ctx, getPendingChange, id).Scan(
		&pc.ID,
		&pc.DeviceID,
		&pc.Collection,
		&pc.RecordID,
		&pc.Operation,
		&payload,
		&pc.SubmittedVersion,
		&pc.SubmittedAt,
		&pc.ReceivedAt,
		&pc.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingChange{}, ErrPendingChangeNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "pendingChangeRepository.Get").
			Int64("pending_change_id", id).
			Msg("failed to query pending change")
		return models.PendingChange{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	pc.Payload, err = decodeSnapshot(payload)
	if err != nil {
		log.Err(err).
			Str("func", "pendingChangeRepository.Get").
			Int64("pending_change_id", id).
			Msg("failed to decode pending change payload")
		return models.PendingChange{}, err
	}

	return pc, nil
}

// MarkSynced implements [PendingChangeRepository].
func (p *pendingChangeRepository) MarkSynced(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	var updatedID int64
	err := p.DB.QueryRowContext(ctx, markPendingSynced, id).Scan(&updatedID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPendingChangeNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "pendingChangeRepository.MarkSynced").
			Int64("pending_change_id", id).
			Msg("failed to mark pending change synced")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// ListConflicts implements [PendingChangeRepository].
func (p *pendingChangeRepository) ListConflicts(ctx context.Context, deviceID string) ([]models.PendingChange, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListConflictsQuery(deviceID)
	if err != nil {
		log.Err(err).
			Str("func", "pendingChangeRepository.ListConflicts").
			Msg("failed to build conflicts query")
		return nil, err
	}

	rows, queryErr := p.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "pendingChangeRepository.ListConflicts").
			Str("device_id", deviceID).
			Msg("failed to execute conflicts query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	conflicts := make([]models.PendingChange, 0, 20)

	for rows.Next() {
		var pc models.PendingChange
		var payload []byte

		scanErr := rows.Scan(
			&pc.ID,
			&pc.DeviceID,
			&pc.Collection,
			&pc.RecordID,
			&pc.Operation,
			&payload,
			&pc.SubmittedVersion,
			&pc.SubmittedAt,
			&pc.ReceivedAt,
			&pc.Status,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "pendingChangeRepository.ListConflicts").
				Msg("failed to scan pending change row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		pc.Payload, scanErr = decodeSnapshot(payload)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "pendingChangeRepository.ListConflicts").
				Int64("pending_change_id", pc.ID).
				Msg("failed to decode pending change payload")
			return nil, scanErr
		}

		conflicts = append(conflicts, pc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "pendingChangeRepository.ListConflicts").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return conflicts, nil
}
