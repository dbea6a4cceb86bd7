package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/kbforge/kbforge/internal/models"
)

const TaskTypeBatchConvert = "batch:convert"

const statusTTL = 24 * time.Hour

// BatchJob is one queued batch conversion request.
type BatchJob struct {
	ID        string    `json:"id"`
	Inputs    []string  `json:"inputs"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobState is the queue-level lifecycle of a batch job.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// JobStatus is the externally visible state of a batch job. Summary is set
// once the job completes.
type JobStatus struct {
	JobID      string               `json:"jobId"`
	State      JobState             `json:"state"`
	Error      string               `json:"error,omitempty"`
	Summary    *models.BatchSummary `json:"summary,omitempty"`
	EnqueuedAt time.Time            `json:"enqueuedAt"`
	StartedAt  time.Time            `json:"startedAt,omitempty"`
	FinishedAt time.Time            `json:"finishedAt,omitempty"`
}

// Queue moves batch jobs between the API and the workers.
type Queue interface {
	Enqueue(ctx context.Context, job *BatchJob) error
	GetStatus(ctx context.Context, jobID string) (*JobStatus, error)
	SaveStatus(ctx context.Context, status *JobStatus) error
}

// Config holds the Redis connection settings for the queue.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// AsynqQueue is the Redis-backed Queue implementation.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
}

func NewAsynqQueue(cfg *Config) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
	}, nil
}

// Enqueue submits a batch job and records its pending status. Retries are
// disabled at the queue level: the engine retries individual items itself,
// so re-running a whole batch would double-convert the ones that succeeded.
func (q *AsynqQueue) Enqueue(ctx context.Context, job *BatchJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	t := asynq.NewTask(TaskTypeBatchConvert, payload,
		asynq.TaskID(job.ID),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return q.SaveStatus(ctx, &JobStatus{
		JobID:      job.ID,
		State:      JobStatePending,
		EnqueuedAt: time.Now(),
	})
}

// GetStatus returns the recorded status of a job, falling back to the asynq
// inspector for jobs that were enqueued but never picked up.
func (q *AsynqQueue) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(jobID)).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}
	if err == nil {
		var status JobStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	info, err := q.inspector.GetTaskInfo("default", jobID)
	if err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	return convertTaskInfo(info), nil
}

// SaveStatus records a job status with a bounded TTL.
func (q *AsynqQueue) SaveStatus(ctx context.Context, status *JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.JobID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func statusKey(jobID string) string {
	return fmt.Sprintf("batch_status:%s", jobID)
}

func convertTaskInfo(info *asynq.TaskInfo) *JobStatus {
	status := &JobStatus{JobID: info.ID}

	switch info.State {
	case asynq.TaskStateActive:
		status.State = JobStateRunning
	case asynq.TaskStateCompleted:
		status.State = JobStateCompleted
	case asynq.TaskStateArchived:
		status.State = JobStateFailed
		status.Error = info.LastErr
	default:
		status.State = JobStatePending
	}

	return status
}
