package models

import "time"

// Change is one element of a push batch: a single operation a device
// performed locally while offline.
type Change struct {
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id"`
	Operation  Operation `json:"operation"`
	Data       Record    `json:"data,omitempty"`

	// Version is the record version the device last saw for this record.
	// The push engine treats the change as a conflict when the server's
	// current version is ahead of it.
	Version int64 `json:"version"`

	// SubmittedAt is the client-reported time of the local edit.
	SubmittedAt time.Time `json:"submitted_at"`
}

// PullChange is one server-side change delivered to a device during pull.
type PullChange struct {
	Collection   string    `json:"collection"`
	RecordID     string    `json:"record_id"`
	Operation    Operation `json:"operation"`
	Data         Record    `json:"data,omitempty"`
	Version      int64     `json:"version"`
	LastModified time.Time `json:"last_modified"`
	Deleted      bool      `json:"deleted"`
}

// PullResult is the outcome of a pull call: every change the device has not
// yet seen, the device's session token, and the server clock reading the
// device should use as its next checkpoint.
type PullResult struct {
	Changes    []PullChange `json:"changes"`
	Token      string       `json:"token"`
	ServerTime time.Time    `json:"server_time"`
}

// SyncedChange confirms one applied change so the device can drop it from
// its local outbox.
type SyncedChange struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	Version    int64  `json:"version"`
}

// ConflictedChange reports one change queued for resolution instead of
// being applied.
type ConflictedChange struct {
	PendingChangeID  int64  `json:"pending_change_id"`
	Collection       string `json:"collection"`
	RecordID         string `json:"record_id"`
	ServerVersion    int64  `json:"server_version"`
	SubmittedVersion int64  `json:"submitted_version"`
}

// ChangeError reports one change that failed for a reason other than a
// version conflict (bad operation, unknown collection, store failure).
type ChangeError struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	Message    string `json:"message"`
}

// PushResult itemizes the outcome of a push batch. Every submitted change
// lands in exactly one of the three lists; callers retry Errors, keep
// Conflicts in their outbox pending resolution, and discard Synced items.
type PushResult struct {
	Synced    []SyncedChange     `json:"synced"`
	Conflicts []ConflictedChange `json:"conflicts"`
	Errors    []ChangeError      `json:"errors"`
}

// ResolveResult reports the record state after a conflict resolution.
type ResolveResult struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	NewVersion int64  `json:"new_version"`
}

// SyncResult is the combined outcome of a full register → pull → push
// cycle.
type SyncResult struct {
	Device DeviceSync `json:"device"`
	Pull   PullResult `json:"pull"`
	Push   PushResult `json:"push"`
}
