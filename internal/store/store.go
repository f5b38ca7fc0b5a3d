// Package store persists profiles, decisions, simulation results, and
// auth accounts behind one interface with postgres and sqlite backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
// Backends translate their driver-specific no-rows errors into this.
var ErrNotFound = eris.New("store: not found")

// DecisionFilter specifies criteria for listing decisions.
type DecisionFilter struct {
	UserID       string             `json:"user_id,omitempty"`
	DecisionType model.DecisionType `json:"decision_type,omitempty"`
	CreatedFrom  time.Time          `json:"created_from,omitempty"`
	CreatedTo    time.Time          `json:"created_to,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Offset       int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the decision platform.
type Store interface {
	// Profiles
	UpsertProfile(ctx context.Context, p model.UserProfile) (*model.UserProfile, error)
	GetProfile(ctx context.Context, id string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.UserProfile, error)

	// Decisions
	CreateDecision(ctx context.Context, d model.Decision) (*model.Decision, error)
	GetDecision(ctx context.Context, id string) (*model.Decision, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.Decision, error)
	UpdateDecision(ctx context.Context, id string, upd model.DecisionUpdate) (*model.Decision, error)
	DeleteDecision(ctx context.Context, id string) error

	// Simulations
	CreateSimulation(ctx context.Context, s model.Simulation) (*model.Simulation, error)
	ListSimulationsByDecision(ctx context.Context, decisionID string) ([]model.Simulation, error)
	ListSimulationsByUser(ctx context.Context, userID string) ([]model.Simulation, error)

	// Timing analyses
	CreateTimingAnalysis(ctx context.Context, a model.TimingAnalysis) (*model.TimingAnalysis, error)

	// Collective insights
	CreateInsight(ctx context.Context, i model.CollectiveInsight) (*model.CollectiveInsight, error)
	ListInsights(ctx context.Context, dt model.DecisionType, limit int) ([]model.CollectiveInsight, error)
	ListInsightsByUser(ctx context.Context, userID string) ([]model.CollectiveInsight, error)

	// Accounts
	CreateAccount(ctx context.Context, a model.Account) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
