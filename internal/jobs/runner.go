package jobs

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temporal-nexus/nexus-api/internal/analytics"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
)

// Intelligence is the slice of the model gateway the runner needs.
type Intelligence interface {
	Analyze(ctx context.Context, dt model.DecisionType, userInput string, additional map[string]any) (map[string]any, error)
	Simulate(ctx context.Context, dt model.DecisionType, parameters map[string]any) (map[string]any, error)
}

// Task is one unit of background work tied to a registry job.
type Task struct {
	JobID        string
	Kind         model.JobKind
	DecisionID   string
	DecisionType model.DecisionType
	Parameters   map[string]any
	// UserInput is the text handed to analysis prompts. Simulation tasks
	// leave it empty.
	UserInput string
}

// Runner drains a bounded task queue with a fixed worker pool. Enqueue
// never blocks the HTTP path: a full queue returns ErrQueueFull.
type Runner struct {
	tasks    chan Task
	registry Registry
	store    store.Store
	gw       Intelligence
	workers  int

	mu      sync.Mutex
	stopped bool
	group   *errgroup.Group
}

// NewRunner builds a Runner with the given queue depth and worker count.
func NewRunner(registry Registry, st store.Store, gw Intelligence, queueDepth, workers int) *Runner {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		tasks:    make(chan Task, queueDepth),
		registry: registry,
		store:    st,
		gw:       gw,
		workers:  workers,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed
// or ctx is canceled.
func (r *Runner) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case task, ok := <-r.tasks:
					if !ok {
						return nil
					}
					r.run(ctx, task)
				}
			}
		})
	}
	r.group = g
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.tasks)
	}
	r.mu.Unlock()

	if r.group != nil {
		_ = r.group.Wait()
	}
}

// Submit enqueues a task without blocking.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return eris.New("jobs: runner stopped")
	}

	select {
	case r.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// run executes one task end to end. Failures are captured on the job
// record; nothing propagates to the submitter.
func (r *Runner) run(ctx context.Context, task Task) {
	log := zap.L().With(
		zap.String("job_id", task.JobID),
		zap.String("kind", string(task.Kind)),
		zap.String("decision_id", task.DecisionID),
	)

	if err := r.registry.MarkRunning(ctx, task.JobID); err != nil {
		log.Warn("mark running failed", zap.Error(err))
	}

	var results map[string]any
	var err error
	switch task.Kind {
	case model.JobKindSimulation:
		results, err = r.gw.Simulate(ctx, task.DecisionType, task.Parameters)
	case model.JobKindTimingAnalysis:
		results, err = r.gw.Analyze(ctx, task.DecisionType, task.UserInput, task.Parameters)
	default:
		err = eris.Errorf("jobs: unknown task kind %q", task.Kind)
	}

	if err != nil {
		log.Error("task failed", zap.Error(err))
		r.failTask(ctx, task, err)
		return
	}

	record, err := r.persist(ctx, task, results)
	if err != nil {
		log.Error("persist task result failed", zap.Error(err))
		r.failTask(ctx, task, err)
		return
	}

	r.completeDecision(ctx, task, results, log)

	if err := r.registry.Complete(ctx, task.JobID, record); err != nil {
		log.Warn("complete job failed", zap.Error(err))
	}
	log.Info("task completed")
}

// persist writes the durable record for a finished task and returns it
// as the job result payload.
func (r *Runner) persist(ctx context.Context, task Task, results map[string]any) (any, error) {
	switch task.Kind {
	case model.JobKindSimulation:
		return r.store.CreateSimulation(ctx, model.Simulation{
			DecisionID:     task.DecisionID,
			SimulationType: task.DecisionType,
			Parameters:     task.Parameters,
			Results:        results,
			Status:         model.SimulationStatusCompleted,
		})
	case model.JobKindTimingAnalysis:
		return r.store.CreateTimingAnalysis(ctx, model.TimingAnalysis{
			DecisionID:   task.DecisionID,
			DecisionType: task.DecisionType,
			Parameters:   task.Parameters,
			Results:      results,
			Status:       "completed",
		})
	default:
		return nil, eris.Errorf("jobs: unknown task kind %q", task.Kind)
	}
}

// completeDecision flips the owning decision to completed, attaching the
// results and whatever confidence the model reported.
func (r *Runner) completeDecision(ctx context.Context, task Task, results map[string]any, log *zap.Logger) {
	if task.DecisionID == "" {
		return
	}

	status := model.DecisionStatusCompleted
	upd := model.DecisionUpdate{
		Status:  &status,
		Results: results,
	}
	if conf := analytics.ConfidenceScore(results); conf != nil {
		upd.Confidence = conf
	}

	if _, err := r.store.UpdateDecision(ctx, task.DecisionID, upd); err != nil {
		log.Warn("update decision failed", zap.Error(err))
	}
}

// failTask records the failure on the job and returns the decision to
// pending so the user can retry.
func (r *Runner) failTask(ctx context.Context, task Task, cause error) {
	if err := r.registry.Fail(ctx, task.JobID, cause.Error()); err != nil {
		zap.L().Warn("fail job failed", zap.String("job_id", task.JobID), zap.Error(err))
	}

	if task.DecisionID == "" {
		return
	}
	status := model.DecisionStatusPending
	upd := model.DecisionUpdate{
		Status:  &status,
		Results: map[string]any{"error": cause.Error()},
	}
	if _, err := r.store.UpdateDecision(ctx, task.DecisionID, upd); err != nil {
		zap.L().Warn("reset decision status failed", zap.String("decision_id", task.DecisionID), zap.Error(err))
	}
}
