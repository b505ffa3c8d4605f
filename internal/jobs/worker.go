package jobs

import (
	"context"
	"sync"

	"github.com/gifpress/gifpress/internal/logger"
)

// ProcessFunc performs the optimization for one claimed job. On success
// it returns the written output path, its size, and the winning
// strategy name.
type ProcessFunc func(ctx context.Context, job *Job) (outputPath string, outputSize int64, strategy string, err error)

// WorkerPool drains a queue of batch jobs with a fixed number of
// concurrent workers. It is a run-to-completion pool: Run returns when
// every job is terminal or the context is cancelled.
type WorkerPool struct {
	queue   *Queue
	workers int
	process ProcessFunc
}

// NewWorkerPool creates a pool with the given concurrency.
func NewWorkerPool(queue *Queue, workers int, process ProcessFunc) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{queue: queue, workers: workers, process: process}
}

// Run processes the queue until it is drained. Cancellation marks the
// remaining pending jobs cancelled and returns the context error.
func (p *WorkerPool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.runWorker(ctx, workerID)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for _, job := range p.queue.All() {
			if !job.IsTerminal() {
				p.queue.Cancel(job.ID)
			}
		}
		return err
	}
	return nil
}

func (p *WorkerPool) runWorker(ctx context.Context, workerID int) {
	for {
		if ctx.Err() != nil {
			return
		}
		job := p.queue.ClaimNext()
		if job == nil {
			return
		}

		logger.Info("Job started", "worker", workerID, "job_id", job.ID, "input", job.InputPath)
		outputPath, outputSize, strategy, err := p.process(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				p.queue.Cancel(job.ID)
				logger.Info("Job cancelled", "job_id", job.ID)
				return
			}
			p.queue.Fail(job.ID, err.Error())
			logger.Warn("Job failed", "job_id", job.ID, "input", job.InputPath, "error", err)
			continue
		}

		p.queue.Complete(job.ID, outputPath, outputSize, strategy)
		logger.Info("Job complete", "job_id", job.ID, "output", outputPath, "saved", job.InputSize-outputSize)
	}
}
