package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FoodFox/internal/pkg/mail"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "notify:job:"
	JobQueueKey      = "notify:queue"
	JobProcessingKey = "notify:processing"
	JobStatsKey      = "notify:stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour
)

// JobStatus defines the status of a delivery job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job is one queued mail delivery
type Job struct {
	ID           string       `json:"id"`
	Status       JobStatus    `json:"status"`
	Notification Notification `json:"notification"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ErrorMsg     string       `json:"error_msg,omitempty"`
	RetryCount   int          `json:"retry_count"`
	MaxRetries   int          `json:"max_retries"`
}

// IsRetryable reports whether another attempt is allowed
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// Queue stores notifications in Redis and delivers them by mail from a pool
// of workers. Enqueueing is the Dispatch step; delivery happens later.
type Queue struct {
	client     *redis.Client
	send       mail.Sender
	workers    int
	retryDelay time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a queue backed by client that delivers through send
func NewQueue(client *redis.Client, send mail.Sender, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:     client,
		send:       send,
		workers:    workers,
		retryDelay: 30 * time.Second,
		stopCh:     make(chan struct{}),
	}
}

// Dispatch enqueues n for delivery
func (q *Queue) Dispatch(ctx context.Context, n Notification) error {
	if n.Destination == "" {
		return fmt.Errorf("notification %s has no destination", n.Kind)
	}
	now := time.Now()
	job := &Job{
		ID:           uuid.New().String(),
		Status:       JobStatusPending,
		Notification: n,
		CreatedAt:    now,
		UpdatedAt:    now,
		MaxRetries:   DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	log.Infof("[Notify] Enqueued job %s (%s for order %s)", job.ID, n.Kind, n.Order.Reference)
	return nil
}

// Start launches the delivery workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[Notify] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the workers and waits for in-flight deliveries
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[Notify] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[Notify] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[Notify] Worker %d stopping", id)
			return
		default:
		}

		job, err := q.dequeueJob(ctx)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[Notify] Worker %d: Error dequeuing job: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		q.processJob(ctx, job)
	}
}

func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("job data not found for ID %s", jobID)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.Status = JobStatusProcessing
	job.UpdatedAt = time.Now()
	q.updateJob(ctx, job)

	n := job.Notification
	err := q.send(n.Destination, Subject(n), Body(n))
	if err != nil {
		log.Errorf("[Notify] Job %s failed: %v", job.ID, err)
		job.ErrorMsg = err.Error()
		job.RetryCount++
		if job.IsRetryable() {
			job.Status = JobStatusRetrying
			log.Infof("[Notify] Retrying job %s (Attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			delay := q.retryDelay * time.Duration(job.RetryCount)
			time.AfterFunc(delay, func() {
				q.client.LPush(context.Background(), JobQueueKey, job.ID)
			})
		} else {
			job.Status = JobStatusFailed
			log.Errorf("[Notify] Job %s permanently failed after %d retries", job.ID, job.RetryCount)
			q.updateJobStats(ctx, JobStatusFailed, 1)
		}
		q.updateJob(ctx, job)
	} else {
		log.Infof("[Notify] Job %s delivered to %s", job.ID, n.Destination)
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		if err := q.client.Del(ctx, JobKeyPrefix+job.ID).Err(); err != nil {
			log.Errorf("[Notify] Failed to remove completed job %s: %v", job.ID, err)
		}
	}

	if err := q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err(); err != nil {
		log.Errorf("[Notify] Failed to remove job %s from processing queue: %v", job.ID, err)
	}
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[Notify] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[Notify] Failed to update job %s: %v", job.ID, err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[Notify] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetStats returns delivery counters by status
func (q *Queue) GetStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}
	result := make(map[JobStatus]int64, len(stats))
	for status, count := range stats {
		if n, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = n
		}
	}
	return result, nil
}
