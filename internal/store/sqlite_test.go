package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedDecision(t *testing.T, s *SQLiteStore, userID string, dt model.DecisionType) *model.Decision {
	t.Helper()
	d, err := s.CreateDecision(context.Background(), model.Decision{
		UserID:       userID,
		DecisionType: dt,
		Title:        "A big decision",
		Description:  "Something worth simulating",
		Timeframe:    "6 months",
		Priority:     model.PriorityMedium,
	})
	require.NoError(t, err)
	return d
}

func TestSQLiteStore_DecisionLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	d := seedDecision(t, s, "user-1", model.DecisionCareerChange)
	assert.Equal(t, model.DecisionStatusPending, d.Status)

	got, err := s.GetDecision(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Title, got.Title)
	assert.Nil(t, got.Confidence)

	conf := 85.0
	status := model.DecisionStatusCompleted
	updated, err := s.UpdateDecision(ctx, d.ID, model.DecisionUpdate{
		Status:     &status,
		Confidence: &conf,
		Results:    map[string]any{"confidence_score": 85.0, "reasoning": "solid"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionStatusCompleted, updated.Status)
	require.NotNil(t, updated.Confidence)
	assert.InDelta(t, 85.0, *updated.Confidence, 1e-9)
	assert.Equal(t, "solid", updated.Results["reasoning"])

	require.NoError(t, s.DeleteDecision(ctx, d.ID))
	_, err = s.GetDecision(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListDecisions_NewestFirstAndFiltered(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := seedDecision(t, s, "user-1", model.DecisionCareerChange)
	time.Sleep(10 * time.Millisecond)
	second := seedDecision(t, s, "user-1", model.DecisionInvestment)
	seedDecision(t, s, "user-2", model.DecisionInvestment)

	all, err := s.ListDecisions(ctx, DecisionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)

	byType, err := s.ListDecisions(ctx, DecisionFilter{UserID: "user-1", DecisionType: model.DecisionInvestment})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, second.ID, byType[0].ID)
}

func TestSQLiteStore_ProfileUpsertAndPartialUpdate(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	p, err := s.UpsertProfile(ctx, model.UserProfile{
		ID:      "user-1",
		Name:    "Guest",
		IsGuest: true,
	})
	require.NoError(t, err)
	assert.True(t, p.IsGuest)

	// Upsert with same ID replaces fields.
	p2, err := s.UpsertProfile(ctx, model.UserProfile{
		ID:      "user-1",
		Name:    "Ada",
		Email:   "ada@example.com",
		IsGuest: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p2.Name)

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.False(t, got.IsGuest)

	// Partial update touches only the named field.
	name := "Ada Lovelace"
	updated, err := s.UpdateProfile(ctx, "user-1", model.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email, "email untouched")

	_, err = s.UpdateProfile(ctx, "ghost", model.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SimulationsByDecisionAndUser(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	d := seedDecision(t, s, "user-1", model.DecisionStartupLaunch)
	other := seedDecision(t, s, "user-2", model.DecisionStartupLaunch)

	_, err := s.CreateSimulation(ctx, model.Simulation{
		DecisionID:     d.ID,
		SimulationType: model.DecisionStartupLaunch,
		Parameters:     map[string]any{"capital": 100000},
		Results:        map[string]any{"scenarios": map[string]any{"best_case": map[string]any{"probability": 0.2}}},
	})
	require.NoError(t, err)
	_, err = s.CreateSimulation(ctx, model.Simulation{
		DecisionID:     other.ID,
		SimulationType: model.DecisionStartupLaunch,
		Parameters:     map[string]any{"capital": 5000},
	})
	require.NoError(t, err)

	byDecision, err := s.ListSimulationsByDecision(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, byDecision, 1)
	assert.Equal(t, float64(100000), byDecision[0].Parameters["capital"])

	byUser, err := s.ListSimulationsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, d.ID, byUser[0].DecisionID)
}

func TestSQLiteStore_DeleteDecisionCascadesSimulations(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	d := seedDecision(t, s, "user-1", model.DecisionHealth)
	_, err := s.CreateSimulation(ctx, model.Simulation{
		DecisionID:     d.ID,
		SimulationType: model.DecisionHealth,
		Parameters:     map[string]any{"condition": "knee"},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDecision(ctx, d.ID))

	sims, err := s.ListSimulationsByDecision(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, sims)
}

func TestSQLiteStore_TimingAnalysisAndInsights(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	d := seedDecision(t, s, "user-1", model.DecisionRetirement)

	a, err := s.CreateTimingAnalysis(ctx, model.TimingAnalysis{
		DecisionID:   d.ID,
		DecisionType: model.DecisionRetirement,
		Parameters:   map[string]any{"current_age": 50},
		Results:      map[string]any{"confidence_score": 70.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", a.Status)

	_, err = s.CreateInsight(ctx, model.CollectiveInsight{
		DecisionType: model.DecisionRetirement,
		UserProfile:  map[string]any{"name": "Kim"},
		Insights:     map[string]any{"success_rate": 80},
	})
	require.NoError(t, err)

	insights, err := s.ListInsights(ctx, model.DecisionRetirement, 10)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, float64(80), insights[0].Insights["success_rate"])

	none, err := s.ListInsights(ctx, model.DecisionMarriage, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Accounts(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, model.Account{
		Email:        "kim@example.com",
		Name:         "Kim",
		PasswordHash: "$2a$10$fakehash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	got, err := s.GetAccountByEmail(ctx, "kim@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "$2a$10$fakehash", got.PasswordHash)

	// Duplicate email violates the unique constraint.
	_, err = s.CreateAccount(ctx, model.Account{Email: "kim@example.com", PasswordHash: "x"})
	assert.Error(t, err)

	_, err = s.GetAccountByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
