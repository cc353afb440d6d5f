package workers

import (
	"context"
	"time"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/service"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

const autoResolveActor = "auto-resolve-worker"

// autoResolveWorker periodically sweeps the pending conflict queue and
// closes every conflict with the configured strategy. Deployments that want
// human review leave the worker disabled.
type autoResolveWorker struct {
	conflicts service.ConflictService
	interval  time.Duration
	strategy  models.ResolutionStrategy

	logger *logger.Logger
}

func newAutoResolveWorker(cfg config.AutoResolve, conflicts service.ConflictService, logger *logger.Logger) *autoResolveWorker {
	return &autoResolveWorker{
		conflicts: conflicts,
		interval:  cfg.Interval,
		strategy:  models.ResolutionStrategy(cfg.Strategy),
		logger:    logger,
	}
}

func (w *autoResolveWorker) Run(ctx context.Context) {
	w.logger.Info().
		Str("strategy", string(w.strategy)).
		Dur("interval", w.interval).
		Msg("auto-resolve worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("auto-resolve worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *autoResolveWorker) sweep(ctx context.Context) {
	pending, err := w.conflicts.ListPendingConflicts(ctx, "")
	if err != nil {
		w.logger.Err(err).
			Str("func", "autoResolveWorker.sweep").
			Msg("listing pending conflicts failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	resolved := 0
	for _, conflict := range pending {
		if ctx.Err() != nil {
			return
		}

		if _, err = w.conflicts.Resolve(ctx, conflict.ID, w.strategy, autoResolveActor, nil); err != nil {
			// A concurrent operator resolution is fine; everything else is
			// logged and retried on the next sweep.
			w.logger.Warn().
				Err(err).
				Str("func", "autoResolveWorker.sweep").
				Int64("conflict_id", conflict.ID).
				Msg("resolution failed")
			continue
		}
		resolved++
	}

	w.logger.Info().
		Str("func", "autoResolveWorker.sweep").
		Int("pending", len(pending)).
		Int("resolved", resolved).
		Msg("sweep completed")
}
