package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"scribe/internal/logging"
	"scribe/internal/queue"
)

const localBufferSize = 64

// Local dispatches jobs over an in-process channel to a fixed worker pool.
// The channel is buffered so Publish returns as soon as the job is handed
// off; backpressure only appears once the buffer fills.
type Local struct {
	jobs        chan queue.Job
	concurrency int
	logger      *slog.Logger
	closeOnce   sync.Once
}

// NewLocal builds an in-process dispatcher with the given worker count.
func NewLocal(concurrency int, logger *slog.Logger) *Local {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Local{
		jobs:        make(chan queue.Job, localBufferSize),
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Publish hands the job to the worker pool.
func (l *Local) Publish(ctx context.Context, job queue.Job) error {
	select {
	case l.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes jobs with the configured worker pool until the context is
// cancelled or Close is called. Handler errors are logged here; user-facing
// failure reporting already happened inside the pipeline.
func (l *Local) Run(ctx context.Context, handler Handler) error {
	var wg sync.WaitGroup
	for i := 0; i < l.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-l.jobs:
					if !ok {
						return
					}
					if err := handler(ctx, job); err != nil {
						l.logger.Error("job handler failed",
							logging.String(logging.FieldJobID, job.ID),
							logging.Error(err),
						)
					}
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// Close stops accepting jobs and lets workers drain the buffer.
func (l *Local) Close() error {
	l.closeOnce.Do(func() {
		close(l.jobs)
	})
	return nil
}
