package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_profile":       `SELECT id, name, email, is_guest, profile_data, created_at, updated_at FROM user_profiles WHERE id = $1`,
	"insert_decision":   `INSERT INTO decisions (id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"get_decision":      `SELECT id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at FROM decisions WHERE id = $1`,
	"insert_simulation": `INSERT INTO simulations (id, decision_id, simulation_type, parameters, results, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"insert_insight":    `INSERT INTO collective_insights (id, decision_type, user_profile, insights, created_at) VALUES ($1, $2, $3, $4, $5)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	is_guest     BOOLEAN NOT NULL DEFAULT true,
	profile_data JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS decisions (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id       TEXT NOT NULL,
	decision_type TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	timeframe     TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	confidence    DOUBLE PRECISION,
	results       JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_decisions_user_id ON decisions(user_id);
CREATE INDEX IF NOT EXISTS idx_decisions_type ON decisions(decision_type);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at DESC);

CREATE TABLE IF NOT EXISTS simulations (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	decision_id     TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
	simulation_type TEXT NOT NULL,
	parameters      JSONB NOT NULL,
	results         JSONB,
	status          TEXT NOT NULL DEFAULT 'queued',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_simulations_decision_id ON simulations(decision_id);

CREATE TABLE IF NOT EXISTS timing_analyses (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	decision_id   TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
	decision_type TEXT NOT NULL,
	parameters    JSONB NOT NULL,
	results       JSONB,
	status        TEXT NOT NULL DEFAULT 'completed',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_timing_analyses_decision_id ON timing_analyses(decision_id);

CREATE TABLE IF NOT EXISTS collective_insights (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	decision_type TEXT NOT NULL,
	user_profile  JSONB,
	insights      JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_collective_insights_type ON collective_insights(decision_type);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// --- Profiles ---

func (s *PostgresStore) UpsertProfile(ctx context.Context, p model.UserProfile) (*model.UserProfile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	dataJSON, err := json.Marshal(p.ProfileData)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal profile data")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_profiles (id, name, email, is_guest, profile_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			is_guest = EXCLUDED.is_guest,
			profile_data = EXCLUDED.profile_data,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Email, p.IsGuest, dataJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert profile")
	}
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	var p model.UserProfile
	var dataJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, is_guest, profile_data, created_at, updated_at FROM user_profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.IsGuest, &dataJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", id)
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &p.ProfileData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal profile data")
		}
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.UserProfile, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}
	argIdx := 2

	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *upd.Name)
		argIdx++
	}
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *upd.Email)
		argIdx++
	}
	if upd.IsGuest != nil {
		sets = append(sets, fmt.Sprintf("is_guest = $%d", argIdx))
		args = append(args, *upd.IsGuest)
		argIdx++
	}
	if upd.ProfileData != nil {
		dataJSON, err := json.Marshal(upd.ProfileData)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal profile data")
		}
		sets = append(sets, fmt.Sprintf("profile_data = $%d", argIdx))
		args = append(args, dataJSON)
		argIdx++
	}

	query := fmt.Sprintf(`UPDATE user_profiles SET %s WHERE id = $%d`, strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update profile %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

// --- Decisions ---

func (s *PostgresStore) CreateDecision(ctx context.Context, d model.Decision) (*model.Decision, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = model.DecisionStatusPending
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	resultsJSON, err := marshalNullable(d.Results)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal decision results")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO decisions (id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.UserID, string(d.DecisionType), d.Title, d.Description, d.Timeframe,
		string(d.Priority), string(d.Status), d.Confidence, resultsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert decision")
	}
	return &d, nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, id string) (*model.Decision, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at FROM decisions WHERE id = $1`,
		id,
	)
	d, err := scanDecision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get decision %s", id)
	}
	return d, nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.Decision, error) {
	query := `SELECT id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at FROM decisions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.DecisionType != "" {
		query += fmt.Sprintf(` AND decision_type = $%d`, argIdx)
		args = append(args, string(filter.DecisionType))
		argIdx++
	}
	if !filter.CreatedFrom.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedFrom)
		argIdx++
	}
	if !filter.CreatedTo.IsZero() {
		query += fmt.Sprintf(` AND created_at <= $%d`, argIdx)
		args = append(args, filter.CreatedTo)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list decisions")
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan decision")
		}
		decisions = append(decisions, *d)
	}
	return decisions, eris.Wrap(rows.Err(), "postgres: list decisions iterate")
}

func (s *PostgresStore) UpdateDecision(ctx context.Context, id string, upd model.DecisionUpdate) (*model.Decision, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}
	argIdx := 2

	addSet := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if upd.Title != nil {
		addSet("title", *upd.Title)
	}
	if upd.Description != nil {
		addSet("description", *upd.Description)
	}
	if upd.Timeframe != nil {
		addSet("timeframe", *upd.Timeframe)
	}
	if upd.Priority != nil {
		addSet("priority", string(*upd.Priority))
	}
	if upd.Status != nil {
		addSet("status", string(*upd.Status))
	}
	if upd.Confidence != nil {
		addSet("confidence", *upd.Confidence)
	}
	if upd.Results != nil {
		resultsJSON, err := json.Marshal(upd.Results)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal decision results")
		}
		addSet("results", resultsJSON)
	}

	query := fmt.Sprintf(`UPDATE decisions SET %s WHERE id = $%d`, strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update decision %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetDecision(ctx, id)
}

func (s *PostgresStore) DeleteDecision(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM decisions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete decision %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Simulations ---

func (s *PostgresStore) CreateSimulation(ctx context.Context, sim model.Simulation) (*model.Simulation, error) {
	if sim.ID == "" {
		sim.ID = uuid.New().String()
	}
	if sim.Status == "" {
		sim.Status = model.SimulationStatusCompleted
	}
	sim.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(sim.Parameters)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal simulation parameters")
	}
	resultsJSON, err := marshalNullable(sim.Results)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal simulation results")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO simulations (id, decision_id, simulation_type, parameters, results, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sim.ID, sim.DecisionID, string(sim.SimulationType), paramsJSON, resultsJSON, string(sim.Status), sim.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert simulation")
	}
	return &sim, nil
}

func (s *PostgresStore) ListSimulationsByDecision(ctx context.Context, decisionID string) ([]model.Simulation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, decision_id, simulation_type, parameters, results, status, created_at
		 FROM simulations WHERE decision_id = $1 ORDER BY created_at DESC`,
		decisionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list simulations by decision")
	}
	defer rows.Close()
	return collectSimulations(rows)
}

func (s *PostgresStore) ListSimulationsByUser(ctx context.Context, userID string) ([]model.Simulation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.decision_id, s.simulation_type, s.parameters, s.results, s.status, s.created_at
		 FROM simulations s JOIN decisions d ON d.id = s.decision_id
		 WHERE d.user_id = $1 ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list simulations by user")
	}
	defer rows.Close()
	return collectSimulations(rows)
}

// --- Timing analyses ---

func (s *PostgresStore) CreateTimingAnalysis(ctx context.Context, a model.TimingAnalysis) (*model.TimingAnalysis, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = "completed"
	}
	a.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(a.Parameters)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal analysis parameters")
	}
	resultsJSON, err := marshalNullable(a.Results)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal analysis results")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO timing_analyses (id, decision_id, decision_type, parameters, results, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.DecisionID, string(a.DecisionType), paramsJSON, resultsJSON, a.Status, a.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert timing analysis")
	}
	return &a, nil
}

// --- Collective insights ---

func (s *PostgresStore) CreateInsight(ctx context.Context, i model.CollectiveInsight) (*model.CollectiveInsight, error) {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	i.CreatedAt = time.Now().UTC()

	profileJSON, err := marshalNullable(i.UserProfile)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal insight profile")
	}
	insightsJSON, err := json.Marshal(i.Insights)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal insights")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO collective_insights (id, decision_type, user_profile, insights, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		i.ID, string(i.DecisionType), profileJSON, insightsJSON, i.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert insight")
	}
	return &i, nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, dt model.DecisionType, limit int) ([]model.CollectiveInsight, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, decision_type, user_profile, insights, created_at
		 FROM collective_insights WHERE decision_type = $1 ORDER BY created_at DESC LIMIT $2`,
		string(dt), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list insights")
	}
	defer rows.Close()

	var insights []model.CollectiveInsight
	for rows.Next() {
		var i model.CollectiveInsight
		var profileJSON, insightsJSON []byte
		if err := rows.Scan(&i.ID, &i.DecisionType, &profileJSON, &insightsJSON, &i.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan insight")
		}
		if len(profileJSON) > 0 {
			if err := json.Unmarshal(profileJSON, &i.UserProfile); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal insight profile")
			}
		}
		if err := json.Unmarshal(insightsJSON, &i.Insights); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal insights")
		}
		insights = append(insights, i)
	}
	return insights, eris.Wrap(rows.Err(), "postgres: list insights iterate")
}

// ListInsightsByUser matches on the id field inside the stored profile
// snapshot. Insights have no user column of their own.
func (s *PostgresStore) ListInsightsByUser(ctx context.Context, userID string) ([]model.CollectiveInsight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, decision_type, user_profile, insights, created_at
		 FROM collective_insights WHERE user_profile->>'id' = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list insights by user")
	}
	defer rows.Close()

	var insights []model.CollectiveInsight
	for rows.Next() {
		var i model.CollectiveInsight
		var profileJSON, insightsJSON []byte
		if err := rows.Scan(&i.ID, &i.DecisionType, &profileJSON, &insightsJSON, &i.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan insight")
		}
		if len(profileJSON) > 0 {
			if err := json.Unmarshal(profileJSON, &i.UserProfile); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal insight profile")
			}
		}
		if err := json.Unmarshal(insightsJSON, &i.Insights); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal insights")
		}
		insights = append(insights, i)
	}
	return insights, eris.Wrap(rows.Err(), "postgres: list insights by user iterate")
}

// --- Accounts ---

func (s *PostgresStore) CreateAccount(ctx context.Context, a model.Account) (*model.Account, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert account")
	}
	return &a, nil
}

func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM accounts WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get account by email")
	}
	return &a, nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*model.Decision, error) {
	var d model.Decision
	var resultsJSON []byte

	err := row.Scan(&d.ID, &d.UserID, &d.DecisionType, &d.Title, &d.Description,
		&d.Timeframe, &d.Priority, &d.Status, &d.Confidence, &resultsJSON,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &d.Results); err != nil {
			return nil, eris.Wrap(err, "unmarshal decision results")
		}
	}
	return &d, nil
}

func collectSimulations(rows pgx.Rows) ([]model.Simulation, error) {
	var sims []model.Simulation
	for rows.Next() {
		var sim model.Simulation
		var paramsJSON, resultsJSON []byte
		if err := rows.Scan(&sim.ID, &sim.DecisionID, &sim.SimulationType, &paramsJSON, &resultsJSON, &sim.Status, &sim.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan simulation")
		}
		if err := json.Unmarshal(paramsJSON, &sim.Parameters); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal simulation parameters")
		}
		if len(resultsJSON) > 0 {
			if err := json.Unmarshal(resultsJSON, &sim.Results); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal simulation results")
			}
		}
		sims = append(sims, sim)
	}
	return sims, eris.Wrap(rows.Err(), "postgres: collect simulations")
}

func marshalNullable(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

