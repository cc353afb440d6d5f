package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Version ledger queries. The bump query is the critical one: the version
// comparison and the update are a single conditional statement, so two
// concurrent pushes for the same record cannot both pass the version test.
const (
	insertVersionRecord = `
		INSERT INTO sync_versions (
			collection,
			record_id,
			version,
			fingerprint,
			last_modified,
			last_modified_by,
			device_id,
			status,
			deleted
		) VALUES ($1, $2, 1, $3, now(), $4, $5, 'synced', false)
		ON CONFLICT (collection, record_id) DO NOTHING
		RETURNING
			id, collection, record_id, version, fingerprint,
			last_modified, last_modified_by, device_id, status, deleted;`

	getVersionRecord = `
		SELECT
			id, collection, record_id, version, fingerprint,
			last_modified, last_modified_by, device_id, status, deleted,
			resolution_strategy, client_snapshot, server_snapshot,
			resolved_by, resolved_at
		FROM sync_versions
		WHERE collection = $1 AND record_id = $2;`

	// bumpVersionRecord applies the conditional bump and reports, in one
	// round trip, enough state to tell apart the four outcomes:
	//   - no row              -> version record not found
	//   - bumped non-NULL     -> applied, version incremented
	//   - same fingerprint    -> idempotent re-submission, no-op
	//   - otherwise           -> version conflict
	//
	// The fingerprint/version predicates and the increment must sit on the
	// updated relation itself, not on the target CTE: when a concurrent
	// bump commits first, the qual re-check under READ COMMITTED runs
	// against the live row, so the loser fails the version test instead of
	// applying a stale increment. target only feeds the diagnostics select.
	// A row flagged 'conflict' keeps that status through clean bumps; only
	// resolution clears it.
	bumpVersionRecord = `
		WITH target AS (
			SELECT id, version, fingerprint
			FROM sync_versions
			WHERE collection = $1 AND record_id = $2
		), bumped AS (
			UPDATE sync_versions v
			SET version          = v.version + 1,
			    fingerprint      = $3,
			    last_modified    = now(),
			    last_modified_by = $4,
			    device_id        = $5,
			    status           = CASE WHEN v.status = 'conflict' THEN v.status ELSE 'synced' END,
			    deleted          = $7
			WHERE v.collection = $1
			  AND v.record_id = $2
			  AND v.fingerprint <> $3
			  AND v.version <= $6
			RETURNING v.version
		)
		SELECT t.version, t.fingerprint, b.version
		FROM target t
		LEFT JOIN bumped b ON TRUE;`

	markVersionConflict = `
		UPDATE sync_versions
		SET status              = 'conflict',
		    resolution_strategy = $3,
		    client_snapshot     = $4,
		    server_snapshot     = $5,
		    resolved_by         = NULL,
		    resolved_at         = NULL
		WHERE collection = $1 AND record_id = $2
		RETURNING id;`

	markVersionResolved = `
		UPDATE sync_versions
		SET status              = 'resolved',
		    resolution_strategy = $3,
		    resolved_by         = $4,
		    resolved_at         = now()
		WHERE collection = $1 AND record_id = $2
		RETURNING id;`
)

// Device registry queries. The upsert deliberately leaves the token column
// out of the DO UPDATE set so re-registration preserves the original
// session token.
const (
	registerDevice = `
		INSERT INTO devices (
			device_id, name, type, app_version, token,
			last_sync_success, pending_conflicts, conflict_total, registered_at
		) VALUES ($1, $2, $3, $4, $5, false, 0, 0, now())
		ON CONFLICT (device_id) DO UPDATE
		SET name        = EXCLUDED.name,
		    type        = EXCLUDED.type,
		    app_version = EXCLUDED.app_version
		RETURNING
			device_id, name, type, app_version, last_sync, last_sync_success,
			token, pending_conflicts, conflict_total, registered_at;`

	getDevice = `
		SELECT
			device_id, name, type, app_version, last_sync, last_sync_success,
			token, pending_conflicts, conflict_total, registered_at
		FROM devices
		WHERE device_id = $1;`

	recordSyncAttempt = `
		UPDATE devices
		SET last_sync = now(), last_sync_success = $2
		WHERE device_id = $1
		RETURNING device_id;`

	updateConflictCounters = `
		UPDATE devices
		SET pending_conflicts = $2,
		    conflict_total    = conflict_total + $2
		WHERE device_id = $1
		RETURNING device_id;`

	decrementPendingConflicts = `
		UPDATE devices
		SET pending_conflicts = GREATEST(pending_conflicts - 1, 0)
		WHERE device_id = $1
		RETURNING device_id;`
)

// Pending change queue queries.
const (
	queuePendingChange = `
		INSERT INTO pending_changes (
			device_id, collection, record_id, operation, payload,
			submitted_version, submitted_at, received_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), 'conflict')
		RETURNING id;`

	getPendingChange = `
		SELECT
			id, device_id, collection, record_id, operation, payload,
			submitted_version, submitted_at, received_at, status
		FROM pending_changes
		WHERE id = $1;`

	markPendingSynced = `
		UPDATE pending_changes
		SET status = 'synced'
		WHERE id = $1
		RETURNING id;`
)

// JSONB record store queries. Create is an upsert because push delivery is
// at-least-once and a retried create must not fail.
const (
	getRecord = `
		SELECT data
		FROM records
		WHERE collection = $1 AND record_id = $2;`

	createRecord = `
		INSERT INTO records (collection, record_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (collection, record_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()
		RETURNING data;`

	updateRecord = `
		UPDATE records
		SET data = $3, updated_at = now()
		WHERE collection = $1 AND record_id = $2
		RETURNING data;`

	deleteRecord = `
		DELETE FROM records
		WHERE collection = $1 AND record_id = $2
		RETURNING record_id;`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildChangesSinceQuery builds the pull selection: every ledger row in
// the requested collections modified after the checkpoint and not
// currently in conflict, ordered ascending by last-modified so replay on
// the device is deterministic.
func buildChangesSinceQuery(req ChangesSinceRequest) (string, []any, error) {
	builder := psql.
		Select(
			"id", "collection", "record_id", "version", "fingerprint",
			"last_modified", "last_modified_by", "device_id", "status", "deleted",
		).
		From("sync_versions").
		Where(sq.NotEq{"status": "conflict"}).
		Where(sq.Eq{"collection": req.Collections}).
		OrderBy("last_modified ASC", "id ASC")

	if req.Since != nil {
		builder = builder.Where(sq.Gt{"last_modified": *req.Since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

// buildListConflictsQuery builds the unresolved pending-change listing,
// optionally restricted to a single device.
func buildListConflictsQuery(deviceID string) (string, []any, error) {
	builder := psql.
		Select(
			"id", "device_id", "collection", "record_id", "operation", "payload",
			"submitted_version", "submitted_at", "received_at", "status",
		).
		From("pending_changes").
		Where(sq.Eq{"status": "conflict"}).
		OrderBy("received_at ASC", "id ASC")

	if deviceID != "" {
		builder = builder.Where(sq.Eq{"device_id": deviceID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}
