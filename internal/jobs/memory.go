package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// MemoryRegistry is an in-process Registry bounded by entry count and
// TTL, for single-node deployments.
type MemoryRegistry struct {
	mu         sync.Mutex
	jobs       map[string]*model.Job
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryRegistry creates a bounded in-memory registry. Entries older
// than ttl are evicted lazily; when maxEntries is reached the oldest
// terminal entries go first.
func NewMemoryRegistry(ttl time.Duration, maxEntries int) *MemoryRegistry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryRegistry{
		jobs:       make(map[string]*model.Job),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (r *MemoryRegistry) Create(_ context.Context, kind model.JobKind) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()

	now := r.now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job

	copied := *job
	return &copied, nil
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || r.expired(job) {
		delete(r.jobs, id)
		return nil, ErrNotFound
	}

	copied := *job
	return &copied, nil
}

func (r *MemoryRegistry) MarkRunning(_ context.Context, id string) error {
	return r.transition(id, func(job *model.Job) {
		job.Status = model.JobStatusRunning
	})
}

func (r *MemoryRegistry) Complete(_ context.Context, id string, result any) error {
	return r.transition(id, func(job *model.Job) {
		job.Status = model.JobStatusCompleted
		job.Result = result
	})
}

func (r *MemoryRegistry) Fail(_ context.Context, id string, message string) error {
	return r.transition(id, func(job *model.Job) {
		job.Status = model.JobStatusFailed
		job.Error = message
	})
}

func (r *MemoryRegistry) transition(id string, apply func(*model.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || r.expired(job) {
		delete(r.jobs, id)
		return ErrNotFound
	}
	// Terminal states are write-once.
	if job.Status.Terminal() {
		return nil
	}

	apply(job)
	job.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRegistry) expired(job *model.Job) bool {
	return r.now().Sub(job.UpdatedAt) > r.ttl
}

// evictLocked drops expired entries, then enforces the entry cap by
// removing the oldest terminal jobs. Callers hold r.mu.
func (r *MemoryRegistry) evictLocked() {
	for id, job := range r.jobs {
		if r.expired(job) {
			delete(r.jobs, id)
		}
	}

	for len(r.jobs) >= r.maxEntries {
		oldestID := ""
		var oldest time.Time
		for id, job := range r.jobs {
			if !job.Status.Terminal() {
				continue
			}
			if oldestID == "" || job.UpdatedAt.Before(oldest) {
				oldestID = id
				oldest = job.UpdatedAt
			}
		}
		if oldestID == "" {
			// Every entry is still in flight; drop the oldest anyway
			// rather than grow without bound.
			for id, job := range r.jobs {
				if oldestID == "" || job.UpdatedAt.Before(oldest) {
					oldestID = id
					oldest = job.UpdatedAt
				}
			}
		}
		delete(r.jobs, oldestID)
	}
}
