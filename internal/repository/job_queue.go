package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingJobsKey = "media:jobs:pending"

// Job is one unit of background work handed to the derivative workers.
// Lower priority numbers are picked up first.
type Job struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Priority int                    `json:"priority"`
	Payload  map[string]interface{} `json:"payload"`
	Queued   time.Time              `json:"queued"`
}

type JobQueue interface {
	// Available is a cheap liveness probe, checked before every enqueue
	// attempt so a dead substrate degrades dispatch instead of failing it.
	Available(ctx context.Context) bool

	Enqueue(ctx context.Context, job Job) error
}

type redisJobQueue struct {
	rdb *redis.Client
}

func NewRedisJobQueue(rdb *redis.Client) JobQueue {
	return &redisJobQueue{rdb: rdb}
}

func (q *redisJobQueue) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return q.rdb.Ping(ctx).Err() == nil
}

func (q *redisJobQueue) Enqueue(ctx context.Context, job Job) error {
	if job.Type == "" {
		return fmt.Errorf("job type cannot be empty")
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Queued.IsZero() {
		job.Queued = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// Sorted set keyed by priority; workers ZPOPMIN the most urgent job.
	err = q.rdb.ZAdd(ctx, pendingJobsKey, redis.Z{
		Score:  float64(job.Priority),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.Type, err)
	}
	return nil
}
