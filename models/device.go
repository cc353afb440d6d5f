package models

import "time"

// DeviceInfo is the display metadata a device submits on registration.
type DeviceInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	AppVersion string `json:"app_version"`
}

// DeviceSync is the per-device synchronization state kept by the device
// registry. A row is created on first registration and updated on every
// sync call; devices are never deleted.
type DeviceSync struct {
	DeviceID        string     `json:"device_id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	AppVersion      string     `json:"app_version"`
	LastSync        *time.Time `json:"last_sync,omitempty"`
	LastSyncSuccess bool       `json:"last_sync_success"`

	// Token is the opaque session credential issued on first registration
	// and preserved across re-registrations.
	Token string `json:"token"`

	// PendingConflicts is the number of conflicts queued by the device's
	// most recent push batch; ConflictTotal accumulates across all batches.
	PendingConflicts int64 `json:"pending_conflicts"`
	ConflictTotal    int64 `json:"conflict_total"`

	RegisteredAt time.Time `json:"registered_at"`
}
