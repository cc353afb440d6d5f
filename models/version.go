package models

import "time"

// SyncStatus is the synchronization state of a versioned record or of a
// queued pending change.
type SyncStatus string

const (
	// StatusSynced means the record's latest accepted write is visible to
	// pulls and no conflict is outstanding.
	StatusSynced SyncStatus = "synced"

	// StatusConflict means a push arrived with a stale version and the
	// record is awaiting resolution.
	StatusConflict SyncStatus = "conflict"

	// StatusResolved means an operator or policy has closed the conflict;
	// the next clean update returns the record to StatusSynced.
	StatusResolved SyncStatus = "resolved"
)

// VersionRecord is one row of the version ledger: the per-record version
// counter, content fingerprint, and conflict state for a single
// (collection, record id) pair. Ledger rows are created on first reference
// and never deleted, so the ledger doubles as an audit trail.
//
// Invariant: Version starts at 1 and increases by exactly 1 only when the
// fingerprint actually changes; identical re-submissions are no-ops.
type VersionRecord struct {
	ID             int64      `json:"-"`
	Collection     string     `json:"collection"`
	RecordID       string     `json:"record_id"`
	Version        int64      `json:"version"`
	Fingerprint    string     `json:"fingerprint"`
	LastModified   time.Time  `json:"last_modified"`
	LastModifiedBy string     `json:"last_modified_by"`
	DeviceID       string     `json:"device_id"`
	Status         SyncStatus `json:"status"`

	// Deleted marks the record as soft-deleted so that deletions propagate
	// to other devices on pull instead of vanishing without a trace.
	Deleted bool `json:"deleted"`

	// Resolution carries the conflict snapshots and the resolver identity
	// once a conflict has been flagged or closed. Nil for clean records.
	Resolution *ConflictResolution `json:"resolution,omitempty"`
}

// ConflictResolution captures both sides of a detected conflict and, after
// resolution, who closed it and how.
type ConflictResolution struct {
	Strategy       ResolutionStrategy `json:"strategy"`
	ClientSnapshot Record             `json:"client_snapshot,omitempty"`
	ServerSnapshot Record             `json:"server_snapshot,omitempty"`
	ResolvedBy     string             `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
}
