// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Kotelnikov

package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

type fakeConflictService struct {
	mu       sync.Mutex
	pending  []models.PendingConflict
	resolved []int64

	resolveErr error
}

func (f *fakeConflictService) Resolve(_ context.Context, conflictID int64, _ models.ResolutionStrategy, _ string, _ models.Record) (models.ResolveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resolveErr != nil {
		return models.ResolveResult{}, f.resolveErr
	}

	f.resolved = append(f.resolved, conflictID)
	remaining := f.pending[:0]
	for _, p := range f.pending {
		if p.ID != conflictID {
			remaining = append(remaining, p)
		}
	}
	f.pending = remaining

	return models.ResolveResult{}, nil
}

func (f *fakeConflictService) ListPendingConflicts(context.Context, string) ([]models.PendingConflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.PendingConflict, len(f.pending))
	copy(out, f.pending)

	return out, nil
}

func (f *fakeConflictService) resolvedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int64, len(f.resolved))
	copy(out, f.resolved)

	return out
}

func TestAutoResolveWorker_SweepsQueue(t *testing.T) {
	svc := &fakeConflictService{
		pending: []models.PendingConflict{
			{PendingChange: models.PendingChange{ID: 1}},
			{PendingChange: models.PendingChange{ID: 2}},
		},
	}

	w := newAutoResolveWorker(config.AutoResolve{
		Enabled:  true,
		Interval: 5 * time.Millisecond,
		Strategy: string(models.StrategyServerWins),
	}, svc, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(svc.resolvedIDs()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.ElementsMatch(t, []int64{1, 2}, svc.resolvedIDs())
}

func TestAutoResolveWorker_KeepsRunningAfterFailure(t *testing.T) {
	svc := &fakeConflictService{
		pending:    []models.PendingConflict{{PendingChange: models.PendingChange{ID: 1}}},
		resolveErr: assert.AnError,
	}

	w := newAutoResolveWorker(config.AutoResolve{
		Enabled:  true,
		Interval: 5 * time.Millisecond,
		Strategy: string(models.StrategyServerWins),
	}, svc, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Give the worker a few sweeps; failures must not stop the loop.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}

	assert.Empty(t, svc.resolvedIDs())
}
