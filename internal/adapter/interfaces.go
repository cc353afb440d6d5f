// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Kotelnikov

// Package adapter provides transport-layer access to the sync engine's REST
// API for out-of-process callers such as the operator console.
//
// The primary abstraction is [EngineClient], which decouples callers from
// the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPEngineClient]). Error values defined in errors.go are mapped from
// HTTP status codes by mapHTTPError so that callers can use [errors.Is] for
// transport-agnostic error handling.
package adapter

import (
	"context"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/engine_client_mock.go -package=mock

// EngineClient defines transport-agnostic communication with the sync
// engine. Implementations are responsible for serialisation and for mapping
// transport-level errors to the sentinel values defined in this package.
type EngineClient interface {
	// RegisterDevice registers (or re-registers) a device and returns its
	// synchronization state including the session token.
	RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSync, error)

	// Pull fetches the server-side changes the device has not seen yet.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResult, error)

	// Push submits a batch of local changes and returns the per-change
	// classification.
	Push(ctx context.Context, req models.PushRequest) (models.PushResult, error)

	// Sync performs a full register, pull, push cycle in one round trip.
	Sync(ctx context.Context, req models.SyncRequest) (models.SyncResult, error)

	// ListConflicts returns unresolved conflicts, optionally filtered by
	// device (empty deviceID means all devices).
	ListConflicts(ctx context.Context, deviceID string) ([]models.PendingConflict, error)

	// ResolveConflict applies a resolution strategy to a queued conflict.
	ResolveConflict(ctx context.Context, conflictID int64, req models.ResolveConflictRequest) (models.ResolveResult, error)

	// ServerVersion returns the engine's application version string.
	ServerVersion(ctx context.Context) (string, error)
}
