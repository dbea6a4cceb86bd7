// Package scheduler runs conversion tasks on a bounded worker pool. Workers
// pull pending tasks in submission order, consult the retry policy after
// each failed attempt, and emit exactly one terminal result per task onto a
// completion channel. A single collector owns all shared bookkeeping; no
// counters are mutated concurrently. Backoff waits happen off-worker, so a
// retrying task never holds a slot.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kbforge/kbforge/internal/converter"
	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/internal/retry"
	"github.com/kbforge/kbforge/pkg/logger"
)

const (
	DefaultConcurrency = 5
	DefaultItemTimeout = 2 * time.Minute
)

// Config bounds a scheduler run.
type Config struct {
	// Concurrency is the maximum number of simultaneously running tasks.
	// Zero means DefaultConcurrency; negative is rejected.
	Concurrency int

	// ItemTimeout bounds each converter invocation. A timeout counts as a
	// transient error. Zero means DefaultItemTimeout; negative disables the
	// per-item timeout.
	ItemTimeout time.Duration

	// Policy drives retry decisions. The zero value uses retry defaults.
	Policy retry.Policy
}

func (c Config) withDefaults() Config {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ItemTimeout == 0 {
		c.ItemTimeout = DefaultItemTimeout
	}
	return c
}

// Scheduler executes batches of conversion tasks.
type Scheduler struct {
	cfg      Config
	registry *converter.Registry
	logger   logger.Logger
}

// New validates the configuration and builds a scheduler.
func New(registry *converter.Registry, log logger.Logger, cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	if cfg.Concurrency < 1 {
		return nil, &errdefs.SchedulerError{Reason: "concurrency must be at least 1"}
	}
	if registry == nil {
		return nil, &errdefs.SchedulerError{Reason: "nil converter registry"}
	}
	return &Scheduler{cfg: cfg, registry: registry, logger: log}, nil
}

// Run executes all tasks and returns one terminal result per task, in the
// original submission order. Individual failures never abort the run; the
// returned error is non-nil only for a wholesale scheduler failure.
func (s *Scheduler) Run(ctx context.Context, tasks []*models.ConversionTask) ([]models.ConversionResult, error) {
	n := len(tasks)
	if n == 0 {
		return nil, nil
	}

	index := make(map[string]int, n)
	for i, t := range tasks {
		if _, dup := index[t.ID]; dup {
			return nil, &errdefs.SchedulerError{Reason: "duplicate task id " + t.ID}
		}
		index[t.ID] = i
	}

	// Capacity n guarantees sends never block: at most n tasks exist and a
	// task is re-enqueued only after it has been consumed.
	ready := make(chan *models.ConversionTask, n)
	done := make(chan models.ConversionResult, n)
	for _, t := range tasks {
		t.Status = models.StatusPending
		ready <- t
	}

	workers := s.cfg.Concurrency
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, ready, done)
		}()
	}

	// Single consumer: completion order is arbitrary, submission order is
	// restored here.
	results := make([]models.ConversionResult, n)
	for received := 0; received < n; received++ {
		r := <-done
		results[index[r.TaskID]] = r
	}

	// Every task is terminal; no retry timer can still be pending.
	close(ready)
	wg.Wait()

	return results, nil
}

func (s *Scheduler) work(ctx context.Context, ready chan *models.ConversionTask, done chan<- models.ConversionResult) {
	for task := range ready {
		task.Status = models.StatusRunning

		markdown, err := s.attempt(ctx, task)
		if err == nil {
			task.Status = models.StatusSucceeded
			done <- models.NewSuccessResult(task, markdown)
			continue
		}

		task.LastErr = err
		decision := s.cfg.Policy.Decide(err, task.Attempt)
		if !decision.Retry {
			task.Status = models.StatusFailed
			s.logger.Warn("task failed",
				logger.String("taskId", task.ID),
				logger.String("input", task.Input.Raw),
				logger.Int("attempts", task.Attempt),
				logger.Error(err),
			)
			done <- models.NewFailureResult(task, err)
			continue
		}

		task.Status = models.StatusRetrying
		s.logger.Info("retrying task",
			logger.String("taskId", task.ID),
			logger.String("input", task.Input.Raw),
			logger.Int("attempt", task.Attempt),
			logger.Duration("backoff", decision.Delay),
		)

		// The wait happens on a timer, not in this worker; the slot is free
		// for other tasks immediately.
		t := task
		time.AfterFunc(decision.Delay, func() {
			ready <- t
		})
	}
}

// attempt performs one converter invocation under the per-item timeout.
func (s *Scheduler) attempt(ctx context.Context, task *models.ConversionTask) (string, error) {
	conv, err := s.registry.Lookup(task.Input.Kind)
	if err != nil {
		// Classification should make this unreachable.
		task.Attempt++
		return "", errdefs.Permanent(task.Input.Raw, err)
	}

	cctx := ctx
	if s.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.cfg.ItemTimeout)
		defer cancel()
	}

	task.Attempt++
	markdown, err := conv.Convert(cctx, task.Input)
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", errdefs.Transient(task.Input.Raw, context.DeadlineExceeded)
		}
		return "", err
	}
	return markdown, nil
}
