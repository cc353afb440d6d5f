package service

import (
	"context"
	"time"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// DeviceService registers devices and issues their session tokens.
type DeviceService interface {
	// Register upserts the device. First registration generates a
	// cryptographically random session token and zeroes the conflict
	// counters; re-registration updates display metadata but preserves
	// the existing token.
	Register(ctx context.Context, deviceID string, info models.DeviceInfo) (models.DeviceSync, error)
}

// SyncService is the bidirectional synchronization engine exposed to the
// transport layer.
type SyncService interface {
	// Pull computes the set of server-side changes the device has not yet
	// seen: every version record modified after since (nil means full
	// history) in the requested collections (nil means all registered
	// collections), excluding records currently in conflict, ordered
	// ascending by last-modified. Delivery is at-least-once: re-delivery
	// of an unchanged record is safe because applying it is a no-op.
	Pull(ctx context.Context, deviceID string, since *time.Time, collections []string) (models.PullResult, error)

	// Push applies a batch of client changes. Each change is processed
	// independently in submission order with no cross-change transaction;
	// the result itemizes every change as synced, conflicted, or errored.
	// Only setup-level failures (e.g. an unregistered device) are
	// returned as errors.
	Push(ctx context.Context, deviceID string, changes []models.Change) (models.PushResult, error)

	// Sync runs a full cycle: register, pull, then push. Pulling first
	// lets the device see the latest server state before uploading, which
	// reduces the chance of conflicts on its own changes.
	Sync(ctx context.Context, deviceID string, info models.DeviceInfo, since *time.Time, changes []models.Change) (models.SyncResult, error)
}

// ConflictService closes queued conflicts and lists the open ones.
type ConflictService interface {
	// Resolve applies the chosen strategy to a queued conflict. Unlike
	// conflict detection, resolution is an explicit operator or policy
	// action, so failures (unknown conflict, already resolved) propagate
	// loudly.
	Resolve(ctx context.Context, conflictID int64, strategy models.ResolutionStrategy, resolvedBy string, mergedData models.Record) (models.ResolveResult, error)

	// ListPendingConflicts returns unresolved conflicts, optionally for a
	// single device, enriched with the current server snapshot so a human
	// or policy can compare both sides before picking a strategy.
	ListPendingConflicts(ctx context.Context, deviceID string) ([]models.PendingConflict, error)
}

// AppInfoService reports application metadata.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
