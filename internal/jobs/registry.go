// Package jobs tracks asynchronous analysis and simulation work. A
// Registry holds ephemeral job records polled by ID; the Runner executes
// queued tasks against the model gateway on a bounded worker pool.
package jobs

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// ErrNotFound is returned when a job ID is unknown or has expired.
var ErrNotFound = eris.New("jobs: job not found")

// ErrQueueFull is returned by Submit when the task queue is at capacity.
// Callers translate it to a retry-later response.
var ErrQueueFull = eris.New("jobs: task queue full")

// Registry stores ephemeral job state. Records expire: a poller that
// waits past the TTL gets ErrNotFound, never a stale terminal state
// presented as current.
type Registry interface {
	Create(ctx context.Context, kind model.JobKind) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result any) error
	Fail(ctx context.Context, id string, message string) error
}
