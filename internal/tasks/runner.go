package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Runner executes background tasks with bounded concurrency. Callers
// submit work and either observe the returned completion channel or
// fire and forget; there is no ordering guarantee across tasks.
type Runner struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewRunner creates a runner allowing at most maxConcurrent tasks.
func NewRunner(maxConcurrent int64) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// Submit schedules fn on a background goroutine and returns a buffered
// completion channel carrying fn's error. The channel always receives
// exactly one value.
func (r *Runner) Submit(ctx context.Context, name string, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	opID := uuid.New()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).
				Str("task", name).
				Str("op_id", opID.String()).
				Msg("Background task abandoned before start")
			done <- err
			return
		}
		defer r.sem.Release(1)

		err := fn(ctx)
		if err != nil {
			log.Error().Err(err).
				Str("task", name).
				Str("op_id", opID.String()).
				Msg("Background task failed")
		} else {
			log.Debug().
				Str("task", name).
				Str("op_id", opID.String()).
				Msg("Background task finished")
		}
		done <- err
	}()

	return done
}

// Wait blocks until all submitted tasks have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
