package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
)

func TestMemoryRegistryLifecycle(t *testing.T) {
	reg := NewMemoryRegistry(time.Hour, 100)
	ctx := context.Background()

	job, err := reg.Create(ctx, model.JobKindSimulation)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusQueued, job.Status)

	require.NoError(t, reg.MarkRunning(ctx, job.ID))
	got, err := reg.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)

	require.NoError(t, reg.Complete(ctx, job.ID, map[string]any{"ok": true}))
	got, err = reg.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.NotNil(t, got.Result)

	// Terminal states are write-once.
	require.NoError(t, reg.Fail(ctx, job.ID, "too late"))
	got, err = reg.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestMemoryRegistryUnknownID(t *testing.T) {
	reg := NewMemoryRegistry(time.Hour, 100)

	_, err := reg.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, reg.MarkRunning(context.Background(), "nope"), ErrNotFound)
}

func TestMemoryRegistryTTLExpiry(t *testing.T) {
	reg := NewMemoryRegistry(time.Minute, 100)
	now := time.Now()
	reg.now = func() time.Time { return now }

	job, err := reg.Create(context.Background(), model.JobKindTimingAnalysis)
	require.NoError(t, err)

	reg.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = reg.Get(context.Background(), job.ID)
	assert.ErrorIs(t, err, ErrNotFound, "expired jobs read as unknown")
}

func TestMemoryRegistryCapacityEviction(t *testing.T) {
	reg := NewMemoryRegistry(time.Hour, 3)
	ctx := context.Background()

	first, err := reg.Create(ctx, model.JobKindSimulation)
	require.NoError(t, err)
	require.NoError(t, reg.Complete(ctx, first.ID, nil))

	for i := 0; i < 3; i++ {
		_, err := reg.Create(ctx, model.JobKindSimulation)
		require.NoError(t, err)
	}

	_, err = reg.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound, "oldest terminal entry evicted at capacity")
}

// fakeIntelligence returns fixed results or an error.
type fakeIntelligence struct {
	analyzeResults  map[string]any
	simulateResults map[string]any
	err             error
}

func (f *fakeIntelligence) Analyze(context.Context, model.DecisionType, string, map[string]any) (map[string]any, error) {
	return f.analyzeResults, f.err
}

func (f *fakeIntelligence) Simulate(context.Context, model.DecisionType, map[string]any) (map[string]any, error) {
	return f.simulateResults, f.err
}

func newRunnerFixture(t *testing.T, gw Intelligence) (*Runner, Registry, store.Store, *model.Decision) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	decision, err := st.CreateDecision(context.Background(), model.Decision{
		UserID:       "user-1",
		DecisionType: model.DecisionCareerChange,
		Title:        "Leave the agency",
		Description:  "Thinking about moving in-house",
		Timeframe:    "3 months",
		Priority:     model.PriorityHigh,
	})
	require.NoError(t, err)

	reg := NewMemoryRegistry(time.Hour, 100)
	runner := NewRunner(reg, st, gw, 8, 2)
	runner.Start(context.Background())
	t.Cleanup(runner.Stop)

	return runner, reg, st, decision
}

func waitTerminal(t *testing.T, reg Registry, jobID string) *model.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := reg.Get(context.Background(), jobID)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestRunnerSimulationSuccess(t *testing.T) {
	gw := &fakeIntelligence{
		simulateResults: map[string]any{"confidence_score": 88.0, "scenarios": map[string]any{}},
	}
	runner, reg, st, decision := newRunnerFixture(t, gw)

	job, err := reg.Create(context.Background(), model.JobKindSimulation)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(Task{
		JobID:        job.ID,
		Kind:         model.JobKindSimulation,
		DecisionID:   decision.ID,
		DecisionType: decision.DecisionType,
		Parameters:   map[string]any{"current_job": "designer"},
	}))

	done := waitTerminal(t, reg, job.ID)
	assert.Equal(t, model.JobStatusCompleted, done.Status)

	// The simulation row was persisted.
	sims, err := st.ListSimulationsByDecision(context.Background(), decision.ID)
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, model.SimulationStatusCompleted, sims[0].Status)

	// The decision completed with the reported confidence.
	d, err := st.GetDecision(context.Background(), decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionStatusCompleted, d.Status)
	require.NotNil(t, d.Confidence)
	assert.InDelta(t, 88.0, *d.Confidence, 1e-9)
}

func TestRunnerTimingAnalysisFailure(t *testing.T) {
	gw := &fakeIntelligence{err: errors.New("model unavailable")}
	runner, reg, st, decision := newRunnerFixture(t, gw)

	job, err := reg.Create(context.Background(), model.JobKindTimingAnalysis)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(Task{
		JobID:        job.ID,
		Kind:         model.JobKindTimingAnalysis,
		DecisionID:   decision.ID,
		DecisionType: decision.DecisionType,
		Parameters:   map[string]any{"timeframe": "3 months"},
		UserInput:    decision.Description,
	}))

	done := waitTerminal(t, reg, job.ID)
	assert.Equal(t, model.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, "model unavailable")

	// The decision returned to pending for retry, with the error noted.
	d, err := st.GetDecision(context.Background(), decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionStatusPending, d.Status)
	assert.Contains(t, d.Results["error"], "model unavailable")
}

func TestRunnerQueueFull(t *testing.T) {
	gw := &fakeIntelligence{simulateResults: map[string]any{}}
	reg := NewMemoryRegistry(time.Hour, 100)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "full.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	// Never started, so the queue only drains into its buffer.
	runner := NewRunner(reg, st, gw, 1, 1)

	require.NoError(t, runner.Submit(Task{JobID: "a", Kind: model.JobKindSimulation}))
	err = runner.Submit(Task{JobID: "b", Kind: model.JobKindSimulation})
	assert.ErrorIs(t, err, ErrQueueFull)
}
