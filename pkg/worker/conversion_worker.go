package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/queue"
)

// ConversionWorker consumes batch conversion jobs and runs them through the
// conversion service, recording status transitions in the queue.
type ConversionWorker struct {
	BaseWorker
	service *conversion.Service
	queue   queue.Queue
}

func NewConversionWorker(cfg *Config, svc *conversion.Service, q queue.Queue, log logger.Logger) (*ConversionWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
		},
	)

	w := &ConversionWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		service: svc,
		queue:   q,
	}

	w.mux.HandleFunc(queue.TaskTypeBatchConvert, w.handleBatchConvert)
	return w, nil
}

func (w *ConversionWorker) handleBatchConvert(ctx context.Context, t *asynq.Task) error {
	var job queue.BatchJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		w.logger.Error("Failed to unmarshal batch job",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal batch job: %w", err)
	}

	w.logger.Info("Processing batch job",
		logger.String("jobId", job.ID),
		logger.Int("inputs", len(job.Inputs)),
	)

	status := &queue.JobStatus{
		JobID:      job.ID,
		State:      queue.JobStateRunning,
		EnqueuedAt: job.CreatedAt,
		StartedAt:  time.Now(),
	}
	if err := w.queue.SaveStatus(ctx, status); err != nil {
		w.logger.Error("Failed to save job status", logger.Error(err))
	}

	summary, err := w.service.RunBatch(ctx, job.Inputs)
	status.FinishedAt = time.Now()
	if err != nil {
		status.State = queue.JobStateFailed
		status.Error = err.Error()
		if serr := w.queue.SaveStatus(ctx, status); serr != nil {
			w.logger.Error("Failed to save job failure", logger.Error(serr))
		}
		return err
	}

	status.State = queue.JobStateCompleted
	status.Summary = &summary
	if err := w.queue.SaveStatus(ctx, status); err != nil {
		w.logger.Error("Failed to save job completion", logger.Error(err))
	}

	return nil
}

func (w *ConversionWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
