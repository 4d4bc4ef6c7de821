// internal/bot/worker.go
package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPool fans one scan cycle out over the configured networks. Each
// worker drains network names from the jobs channel until it closes.
type WorkerPool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	jobs   <-chan string
	logger *zap.Logger
	runner *Runner
}

func NewWorkerPool(ctx context.Context, runner *Runner, jobs <-chan string, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		ctx:    ctx,
		jobs:   jobs,
		logger: logger,
		runner: runner,
	}
}

func (wp *WorkerPool) Start(n int) {
	for i := 0; i < n; i++ {
		wp.wg.Add(1)
		go wp.worker(i + 1)
	}
}

func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	log := wp.logger.With(zap.Int("worker_id", id))
	log.Debug("Scan worker started")

	for {
		select {
		case <-wp.ctx.Done():
			log.Debug("Scan worker stopped, run cancelled")
			return
		case network, ok := <-wp.jobs:
			if !ok {
				log.Debug("Scan worker finished, queue drained")
				return
			}
			wp.runner.scanNetwork(wp.ctx, network, log)
		}
	}
}
