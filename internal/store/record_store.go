package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// jsonbRecordStore is the default [RecordStore] implementation: record
// snapshots held as JSONB rows in the "records" table, one row per
// (collection, record id). Every call is a single statement, which gives
// the atomic single-record granularity the engine requires from any
// adapter.
type jsonbRecordStore struct {
	*DB
	logger *logger.Logger
}

// NewJSONBRecordStore constructs the PostgreSQL JSONB record store.
func NewJSONBRecordStore(db *DB, logger *logger.Logger) RecordStore {
	return &jsonbRecordStore{
		DB:     db,
		logger: logger,
	}
}

// Get implements [RecordStore].
func (s *jsonbRecordStore) Get(ctx context.Context, collection, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	var raw []byte
	err := s.DB.QueryRowContext(ctx, getRecord, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "jsonbRecordStore.Get").
			Str("collection", collection).
			Str("record_id", id).
			Msg("failed to query record")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return decodeSnapshot(raw)
}

// Create implements [RecordStore]. The insert upserts on conflict because
// push delivery is at-least-once and a retried create must succeed.
func (s *jsonbRecordStore) Create(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	return s.write(ctx, "jsonbRecordStore.Create", createRecord, collection, id, data)
}

// Update implements [RecordStore].
func (s *jsonbRecordStore) Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	return s.write(ctx, "jsonbRecordStore.Update", updateRecord, collection, id, data)
}

// Delete implements [RecordStore].
func (s *jsonbRecordStore) Delete(ctx context.Context, collection, id string) error {
	log := logger.FromContext(ctx)

	var deletedID string
	err := s.DB.QueryRowContext(ctx, deleteRecord, collection, id).Scan(&deletedID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "jsonbRecordStore.Delete").
			Str("collection", collection).
			Str("record_id", id).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (s *jsonbRecordStore) write(ctx context.Context, caller, query, collection, id string, data models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	encoded, err := encodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = s.DB.QueryRowContext(ctx, query, collection, id, encoded).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Str("collection", collection).
			Str("record_id", id).
			Msg("failed to write record")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return decodeSnapshot(raw)
}
