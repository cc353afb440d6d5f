package models

import "time"

// RegisterDeviceRequest is the body of POST /api/devices/register.
type RegisterDeviceRequest struct {
	DeviceID string     `json:"device_id"`
	Info     DeviceInfo `json:"info"`
}

// PullRequest is the body of POST /api/sync/pull. A nil Since requests the
// full history; an empty Collections slice requests every registered
// collection.
type PullRequest struct {
	DeviceID    string     `json:"device_id"`
	Since       *time.Time `json:"since,omitempty"`
	Collections []string   `json:"collections,omitempty"`
}

// PushRequest is the body of POST /api/sync/push.
type PushRequest struct {
	DeviceID string   `json:"device_id"`
	Changes  []Change `json:"changes"`
}

// SyncRequest is the body of POST /api/sync: a full register → pull → push
// cycle in one round trip.
type SyncRequest struct {
	DeviceID string     `json:"device_id"`
	Info     DeviceInfo `json:"info"`
	Since    *time.Time `json:"since,omitempty"`
	Changes  []Change   `json:"changes,omitempty"`
}

// ResolveConflictRequest is the body of POST /api/conflicts/{id}/resolve.
// MergedData is honored only with the merge strategy and overrides the
// automatic field union.
type ResolveConflictRequest struct {
	Strategy   ResolutionStrategy `json:"strategy"`
	ResolvedBy string             `json:"resolved_by"`
	MergedData Record             `json:"merged_data,omitempty"`
}

// ConflictListResponse is the body returned by GET /api/conflicts.
type ConflictListResponse struct {
	Conflicts []PendingConflict `json:"conflicts"`
	Length    int               `json:"length"`
}
