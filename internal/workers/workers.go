// Package workers hosts the engine's background loops. Workers share one
// lifecycle: started together under a cancellable context and awaited on
// shutdown.
package workers

import (
	"context"
	"sync"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/service"
)

// Worker is a background loop that runs until its context is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// Workers owns every configured background worker.
type Workers struct {
	workers []Worker
	wg      sync.WaitGroup

	logger *logger.Logger
}

// NewWorkers builds the worker set from configuration. Workers that are not
// enabled are simply not constructed.
func NewWorkers(cfg config.Workers, services *service.Services, logger *logger.Logger) *Workers {
	w := &Workers{logger: logger}

	if cfg.AutoResolve.Enabled {
		w.workers = append(w.workers, newAutoResolveWorker(cfg.AutoResolve, services.ConflictService, logger))
	}

	return w
}

// Run launches every worker on its own goroutine. Returns immediately.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		w.wg.Add(1)
		go func(worker Worker) {
			defer w.wg.Done()
			worker.Run(ctx)
		}(worker)
	}
}

// Wait blocks until every worker has observed cancellation and returned.
func (w *Workers) Wait() {
	w.wg.Wait()
}
