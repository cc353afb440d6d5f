package store

import (
	"context"
	"time"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// BumpRequest carries everything the version ledger needs to perform one
// atomic conditional bump for a record.
type BumpRequest struct {
	Collection string
	RecordID   string

	// Fingerprint is the digest of the content being applied. An
	// unchanged fingerprint turns the bump into a no-op.
	Fingerprint string

	// SubmittedVersion is the version the device last saw. The bump is
	// applied only when the server's current version is not ahead of it.
	SubmittedVersion int64

	Actor    string
	DeviceID string

	// Deleted marks the record as soft-deleted so the deletion propagates
	// on subsequent pulls.
	Deleted bool
}

// BumpResult reports the outcome of a successful bump call.
type BumpResult struct {
	// Version is the record's version after the call: incremented by one
	// when the content changed, unchanged when the call was a no-op.
	Version int64

	// Changed is false when the fingerprint matched the stored one and
	// nothing was written.
	Changed bool
}

// ChangesSinceRequest selects ledger rows for a pull: every row in the
// given collections whose last-modified time is after Since and whose
// status is not conflict, ordered ascending by last-modified.
type ChangesSinceRequest struct {
	// Since is the device's checkpoint. Nil means the earliest possible
	// instant, i.e. full history.
	Since *time.Time

	Collections []string
}

// VersionLedger tracks per-record version numbers, content fingerprints
// and conflict state. Ledger rows are created on first reference and never
// deleted.
type VersionLedger interface {
	// GetOrCreate returns the existing version row for the record, or
	// creates one with version 1, the given fingerprint, and synced
	// status. The created flag reports which happened.
	GetOrCreate(ctx context.Context, collection, recordID, fingerprint, actor, deviceID string) (vr models.VersionRecord, created bool, err error)

	// Get returns the version row or ErrVersionNotFound.
	Get(ctx context.Context, collection, recordID string) (models.VersionRecord, error)

	// Bump performs the atomic conditional version bump: a single
	// compare-and-swap statement, never a split read-modify-write.
	// Returns ErrVersionConflict when the server's current version is
	// ahead of req.SubmittedVersion and the content differs, and
	// ErrVersionNotFound when no row exists.
	Bump(ctx context.Context, req BumpRequest) (BumpResult, error)

	// MarkConflict transitions the row to conflict status and records
	// both snapshots with the default unresolved strategy. The version is
	// left untouched.
	MarkConflict(ctx context.Context, collection, recordID string, res models.ConflictResolution) error

	// MarkResolved transitions the row to resolved status, recording the
	// chosen strategy and the resolver identity and time.
	MarkResolved(ctx context.Context, collection, recordID string, strategy models.ResolutionStrategy, resolvedBy string) error

	// ListChangedSince returns the ledger rows a pull should deliver.
	ListChangedSince(ctx context.Context, req ChangesSinceRequest) ([]models.VersionRecord, error)
}

// DeviceRepository tracks per-device sync state and session tokens.
type DeviceRepository interface {
	// Register upserts the device. On first registration the provided
	// token is stored and counters start at zero; on re-registration the
	// display metadata is updated and the existing token is preserved.
	Register(ctx context.Context, deviceID string, info models.DeviceInfo, token string) (models.DeviceSync, error)

	// Get returns the device or ErrDeviceNotFound.
	Get(ctx context.Context, deviceID string) (models.DeviceSync, error)

	// RecordSyncAttempt stamps the device's last-sync time and success flag.
	RecordSyncAttempt(ctx context.Context, deviceID string, success bool) error

	// UpdateConflictCounters overwrites the pending-conflict count with
	// the number of conflicts queued by the latest batch and adds it to
	// the cumulative total.
	UpdateConflictCounters(ctx context.Context, deviceID string, newConflicts int64) error

	// DecrementPendingConflicts reduces the pending count by one after a
	// resolution, never below zero.
	DecrementPendingConflicts(ctx context.Context, deviceID string) error
}

// PendingChangeRepository is the queue of conflicted pushes awaiting
// resolution. Rows are never deleted.
type PendingChangeRepository interface {
	// Queue persists a new pending change in conflict status and returns
	// its id.
	Queue(ctx context.Context, pc models.PendingChange) (int64, error)

	// Get returns the pending change or ErrPendingChangeNotFound.
	Get(ctx context.Context, id int64) (models.PendingChange, error)

	// MarkSynced closes the pending change after resolution.
	MarkSynced(ctx context.Context, id int64) error

	// ListConflicts returns unresolved pending changes, optionally
	// restricted to one device (empty deviceID means all devices).
	ListConflicts(ctx context.Context, deviceID string) ([]models.PendingChange, error)
}

// RecordStore is the record store adapter contract consumed by the engine:
// atomic CRUD at single-record granularity. The engine never assumes
// anything about the backing storage beyond this interface.
type RecordStore interface {
	// Get returns the record snapshot or ErrRecordNotFound.
	Get(ctx context.Context, collection, id string) (models.Record, error)

	// Create persists a new record under the given id. Because push
	// delivery is at-least-once, a repeated create for an existing id
	// overwrites rather than fails.
	Create(ctx context.Context, collection, id string, data models.Record) (models.Record, error)

	// Update overwrites an existing record or returns ErrRecordNotFound.
	Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error)

	// Delete removes the record or returns ErrRecordNotFound.
	Delete(ctx context.Context, collection, id string) error
}
