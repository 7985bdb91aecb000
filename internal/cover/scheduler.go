package cover

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Scheduler owns the backfill queue and worker pool.
//
// # Backpressure
//
// Enqueue never blocks the request path. When the buffer is full the task
// is dropped and logged; a dropped backfill only means the album keeps its
// placeholder cover until something schedules it again.
type Scheduler struct {
	pipeline *Pipeline
	tasks    chan Task
	workers  int
	logger   *slog.Logger
}

func NewScheduler(pipeline *Pipeline, workers, queueSize int, logger *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}

	return &Scheduler{
		pipeline: pipeline,
		tasks:    make(chan Task, queueSize),
		workers:  workers,
		logger:   logger,
	}
}

// Enqueue schedules a backfill task. It reports whether the task was
// accepted; callers treat a full queue as a non-event.
func (scheduler *Scheduler) Enqueue(task Task) bool {
	select {
	case scheduler.tasks <- task:
		return true
	default:
		scheduler.logger.Warn("cover_queue_full",
			slog.String("target_id", task.TargetID),
		)
		return false
	}
}

// Run starts the worker pool and blocks until ctx is canceled. Tasks still
// buffered at shutdown are abandoned; backfill is always re-schedulable.
func (scheduler *Scheduler) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for i := 0; i < scheduler.workers; i++ {
		group.Go(func() error {
			return scheduler.work(groupCtx)
		})
	}

	scheduler.logger.Info("cover_scheduler_started",
		slog.Int("workers", scheduler.workers),
		slog.Int("queue_size", cap(scheduler.tasks)),
	)

	return group.Wait()
}

func (scheduler *Scheduler) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-scheduler.tasks:
			scheduler.pipeline.Backfill(ctx, task)
		}
	}
}
