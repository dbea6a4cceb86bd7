package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbforge/kbforge/internal/converter"
	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/internal/retry"
	"github.com/kbforge/kbforge/pkg/logger"
)

// stubConverter lets tests script converter behavior per input.
type stubConverter struct {
	kind models.InputKind
	fn   func(ctx context.Context, in models.ClassifiedInput) (string, error)
}

func (s *stubConverter) Kind() models.InputKind { return s.kind }

func (s *stubConverter) Convert(ctx context.Context, in models.ClassifiedInput) (string, error) {
	return s.fn(ctx, in)
}

func stubRegistry(fn func(ctx context.Context, in models.ClassifiedInput) (string, error)) *converter.Registry {
	return converter.NewRegistry(&stubConverter{kind: models.KindURL, fn: fn})
}

func urlTask(id, raw string) *models.ConversionTask {
	return &models.ConversionTask{
		ID:         id,
		Input:      models.ClassifiedInput{Raw: raw, Kind: models.KindURL},
		OutputPath: raw + ".md",
		CreatedAt:  time.Now(),
	}
}

func fastPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{MaxAttempts: maxAttempts, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
}

func TestRunTerminalStateTotality(t *testing.T) {
	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		if in.Raw == "https://bad" {
			return "", errdefs.Permanentf(in.Raw, "malformed")
		}
		return "# ok", nil
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: 3, Policy: fastPolicy(3)})
	require.NoError(t, err)

	tasks := []*models.ConversionTask{
		urlTask("a", "https://one"),
		urlTask("b", "https://bad"),
		urlTask("c", "https://two"),
	}
	results, err := s.Run(context.Background(), tasks)
	require.NoError(t, err, "individual failures never fail the run")
	require.Len(t, results, 3)

	assert.Equal(t, models.OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, models.OutcomeFailure, results[1].Outcome)
	assert.Equal(t, models.OutcomeSuccess, results[2].Outcome)
	for _, task := range tasks {
		assert.True(t, task.Status.Terminal(), "task %s ended in %s", task.ID, task.Status)
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	const concurrency = 3
	var running, peak int64

	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		cur := atomic.AddInt64(&running, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return "# ok", nil
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: concurrency})
	require.NoError(t, err)

	var tasks []*models.ConversionTask
	for i := 0; i < 12; i++ {
		tasks = append(tasks, urlTask(fmt.Sprintf("t%d", i), fmt.Sprintf("https://host/%d", i)))
	}
	results, err := s.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 12)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(concurrency))
}

func TestRunRetryBoundTransient(t *testing.T) {
	var calls int64
	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "", errdefs.Transientf(in.Raw, "http status 503")
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: 1, Policy: fastPolicy(3)})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{urlTask("a", "https://flaky")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.OutcomeFailure, results[0].Outcome)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls), "exactly maxAttempts invocations")
	assert.Equal(t, 3, results[0].Attempts)
}

func TestRunRetryBoundPermanent(t *testing.T) {
	var calls int64
	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "", errdefs.Permanentf(in.Raw, "http status 404")
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: 1, Policy: fastPolicy(3)})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{urlTask("a", "https://gone")})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailure, results[0].Outcome)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "permanent errors get a single invocation")
}

func TestRunRecoversAfterTransientFailures(t *testing.T) {
	var calls int64
	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		if atomic.AddInt64(&calls, 1) < 3 {
			return "", errdefs.Transientf(in.Raw, "timeout")
		}
		return "# recovered", nil
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: 2, Policy: fastPolicy(3)})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{urlTask("a", "https://flaky")})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, 3, results[0].Attempts)
}

func TestRunPreservesSubmissionOrder(t *testing.T) {
	delays := map[string]time.Duration{
		"https://a": 60 * time.Millisecond,
		"https://b": 5 * time.Millisecond,
		"https://c": 30 * time.Millisecond,
	}
	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		time.Sleep(delays[in.Raw])
		return "# " + in.Raw, nil
	})

	s, err := New(reg, logger.NewTestLogger(), Config{Concurrency: 3})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{
		urlTask("a", "https://a"),
		urlTask("b", "https://b"),
		urlTask("c", "https://c"),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "https://a", results[0].Input)
	assert.Equal(t, "https://b", results[1].Input)
	assert.Equal(t, "https://c", results[2].Input)
}

func TestRunBackoffDoesNotHoldWorkerSlot(t *testing.T) {
	var mu sync.Mutex
	finished := make(map[string]time.Time)
	var aCalls int64

	reg := stubRegistry(func(_ context.Context, in models.ClassifiedInput) (string, error) {
		defer func() {
			mu.Lock()
			finished[in.Raw] = time.Now()
			mu.Unlock()
		}()
		if in.Raw == "https://a" && atomic.AddInt64(&aCalls, 1) == 1 {
			return "", errdefs.Transientf(in.Raw, "reset")
		}
		return "# ok", nil
	})

	// One worker: while a backs off, b must still run.
	s, err := New(reg, logger.NewTestLogger(), Config{
		Concurrency: 1,
		Policy:      retry.Policy{MaxAttempts: 2, BaseDelay: 80 * time.Millisecond, MaxDelay: time.Second},
	})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{
		urlTask("a", "https://a"),
		urlTask("b", "https://b"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, models.OutcomeSuccess, results[1].Outcome)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished["https://b"].Before(finished["https://a"]),
		"b should complete while a waits out its backoff")
}

func TestRunItemTimeoutIsTransient(t *testing.T) {
	var calls int64
	reg := stubRegistry(func(ctx context.Context, in models.ClassifiedInput) (string, error) {
		atomic.AddInt64(&calls, 1)
		<-ctx.Done()
		return "", ctx.Err()
	})

	s, err := New(reg, logger.NewTestLogger(), Config{
		Concurrency: 1,
		ItemTimeout: 15 * time.Millisecond,
		Policy:      fastPolicy(2),
	})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), []*models.ConversionTask{urlTask("a", "https://slow")})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailure, results[0].Outcome)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "timeouts feed the retry policy as transient")
}

func TestNewRejectsBadConfig(t *testing.T) {
	reg := stubRegistry(func(_ context.Context, _ models.ClassifiedInput) (string, error) { return "", nil })

	_, err := New(reg, logger.NewTestLogger(), Config{Concurrency: -1})
	var serr *errdefs.SchedulerError
	require.ErrorAs(t, err, &serr)

	_, err = New(nil, logger.NewTestLogger(), Config{})
	require.ErrorAs(t, err, &serr)
}

func TestRunEmptyBatch(t *testing.T) {
	reg := stubRegistry(func(_ context.Context, _ models.ClassifiedInput) (string, error) { return "", nil })
	s, err := New(reg, logger.NewTestLogger(), Config{})
	require.NoError(t, err)

	results, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
