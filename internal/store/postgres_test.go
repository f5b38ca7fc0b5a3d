package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetDecision_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM decisions WHERE id = \$1`).
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetDecision(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateDecision(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO decisions`).
		WithArgs(pgxmock.AnyArg(), "user-1", "career_change", "Leave consulting",
			"Tired of travel, want product work", "6 months", "high", "pending",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	d, err := s.CreateDecision(context.Background(), model.Decision{
		UserID:       "user-1",
		DecisionType: model.DecisionCareerChange,
		Title:        "Leave consulting",
		Description:  "Tired of travel, want product work",
		Timeframe:    "6 months",
		Priority:     model.PriorityHigh,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID, "id assigned on create")
	assert.Equal(t, model.DecisionStatusPending, d.Status, "status defaults to pending")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateDecision_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE decisions SET`).
		WithArgs(pgxmock.AnyArg(), "New title", "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	title := "New title"
	_, err := s.UpdateDecision(context.Background(), "missing-id", model.DecisionUpdate{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteDecision(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM decisions WHERE id = \$1`).
		WithArgs("dec-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteDecision(context.Background(), "dec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteDecision_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM decisions WHERE id = \$1`).
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteDecision(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDecisions_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "decision_type", "title", "description", "timeframe",
		"priority", "status", "confidence", "results", "created_at", "updated_at",
	}).AddRow("dec-1", "user-1", "investment", "Buy bonds", "Rotate out of equities",
		"1 year", "medium", "completed", float64Ptr(82.5), []byte(`{"confidence_score":82.5}`), now, now)

	mock.ExpectQuery(`SELECT .+ FROM decisions WHERE true AND user_id = \$1 AND decision_type = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("user-1", "investment", 100).
		WillReturnRows(rows)

	decisions, err := s.ListDecisions(context.Background(), DecisionFilter{
		UserID:       "user-1",
		DecisionType: model.DecisionInvestment,
	})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "Buy bonds", decisions[0].Title)
	require.NotNil(t, decisions[0].Confidence)
	assert.InDelta(t, 82.5, *decisions[0].Confidence, 1e-9)
	assert.Equal(t, 82.5, decisions[0].Results["confidence_score"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("user-1", "Ada", "ada@example.com", false, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := s.UpsertProfile(context.Background(), model.UserProfile{
		ID:    "user-1",
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAccountByEmail_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAccountByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSimulation_DefaultsStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO simulations`).
		WithArgs(pgxmock.AnyArg(), "dec-1", "relocation", pgxmock.AnyArg(),
			pgxmock.AnyArg(), "completed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sim, err := s.CreateSimulation(context.Background(), model.Simulation{
		DecisionID:     "dec-1",
		SimulationType: model.DecisionRelocation,
		Parameters:     map[string]any{"from": "NYC", "to": "Austin"},
		Results:        map[string]any{"scenarios": map[string]any{}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SimulationStatusCompleted, sim.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func float64Ptr(f float64) *float64 { return &f }
