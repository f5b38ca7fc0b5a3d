package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

const redisKeyPrefix = "nexus:job:"

// RedisRegistry stores job records in Redis so pollers can hit any
// replica behind a load balancer. TTL enforcement comes from Redis key
// expiry; every write refreshes it.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry connects to Redis at addr and verifies the connection.
func NewRedisRegistry(ctx context.Context, addr string, ttl time.Duration) (*RedisRegistry, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "jobs: redis ping")
	}
	return &RedisRegistry{client: client, ttl: ttl}, nil
}

func (r *RedisRegistry) Create(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	now := time.Now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.put(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "jobs: redis get %s", id)
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, eris.Wrap(err, "jobs: unmarshal job")
	}
	return &job, nil
}

func (r *RedisRegistry) MarkRunning(ctx context.Context, id string) error {
	return r.transition(ctx, id, func(job *model.Job) {
		job.Status = model.JobStatusRunning
	})
}

func (r *RedisRegistry) Complete(ctx context.Context, id string, result any) error {
	return r.transition(ctx, id, func(job *model.Job) {
		job.Status = model.JobStatusCompleted
		job.Result = result
	})
}

func (r *RedisRegistry) Fail(ctx context.Context, id string, message string) error {
	return r.transition(ctx, id, func(job *model.Job) {
		job.Status = model.JobStatusFailed
		job.Error = message
	})
}

// transition is read-modify-write without a lock: the runner is the only
// writer after creation, so lost updates are not a concern here.
func (r *RedisRegistry) transition(ctx context.Context, id string, apply func(*model.Job)) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return r.put(ctx, job)
}

func (r *RedisRegistry) put(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "jobs: marshal job")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+job.ID, data, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "jobs: redis set %s", job.ID)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
