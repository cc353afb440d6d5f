package models

import "time"

// ResolutionStrategy names how a queued conflict is (or will be) closed.
type ResolutionStrategy string

const (
	// StrategyUnresolved is the default recorded when a conflict is queued
	// and no strategy has been chosen yet.
	StrategyUnresolved ResolutionStrategy = "unresolved"

	// StrategyServerWins discards the client snapshot; no data changes.
	StrategyServerWins ResolutionStrategy = "server_wins"

	// StrategyClientWins overwrites the server record with the client's
	// submitted snapshot.
	StrategyClientWins ResolutionStrategy = "client_wins"

	// StrategyLastWriteWins applies whichever snapshot carries the newer
	// timestamp: the client's submission time or the server's last-modified.
	StrategyLastWriteWins ResolutionStrategy = "last_write_wins"

	// StrategyMerge performs a field-level union with client values taking
	// precedence, except for system-managed fields.
	StrategyMerge ResolutionStrategy = "merge"
)

// Valid reports whether s is a strategy that Resolve accepts.
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case StrategyServerWins, StrategyClientWins, StrategyLastWriteWins, StrategyMerge:
		return true
	}
	return false
}

// PendingChange is one queued conflict: a client-submitted change the push
// engine refused to apply because the server's version was ahead. Rows
// transition from StatusConflict to StatusSynced when resolved and are
// never deleted (audit trail).
type PendingChange struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"device_id"`
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id"`
	Operation  Operation `json:"operation"`

	// Payload is the data snapshot exactly as the device submitted it.
	Payload Record `json:"payload,omitempty"`

	// SubmittedVersion is the version the device believed it was editing.
	SubmittedVersion int64 `json:"submitted_version"`

	// SubmittedAt is the client-reported edit time; ReceivedAt is the
	// server receipt time, kept so a deployment can switch the
	// last-write-wins clock source without a schema change.
	SubmittedAt time.Time `json:"submitted_at"`
	ReceivedAt  time.Time `json:"received_at"`

	Status SyncStatus `json:"status"`
}

// PendingConflict is a PendingChange enriched with the current server-side
// view of the record, as returned by ListPendingConflicts for display
// before a human or policy picks a strategy.
type PendingConflict struct {
	PendingChange

	ServerSnapshot Record `json:"server_snapshot,omitempty"`
	ServerVersion  int64  `json:"server_version"`
}
