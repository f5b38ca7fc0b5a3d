package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "nexus.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	is_guest     INTEGER NOT NULL DEFAULT 1,
	profile_data TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS decisions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	decision_type TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	timeframe     TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	confidence    REAL,
	results       TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_decisions_user_id ON decisions(user_id);
CREATE INDEX IF NOT EXISTS idx_decisions_type ON decisions(decision_type);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at DESC);

CREATE TABLE IF NOT EXISTS simulations (
	id              TEXT PRIMARY KEY,
	decision_id     TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
	simulation_type TEXT NOT NULL,
	parameters      TEXT NOT NULL,
	results         TEXT,
	status          TEXT NOT NULL DEFAULT 'queued',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_simulations_decision_id ON simulations(decision_id);

CREATE TABLE IF NOT EXISTS timing_analyses (
	id            TEXT PRIMARY KEY,
	decision_id   TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
	decision_type TEXT NOT NULL,
	parameters    TEXT NOT NULL,
	results       TEXT,
	status        TEXT NOT NULL DEFAULT 'completed',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_timing_analyses_decision_id ON timing_analyses(decision_id);

CREATE TABLE IF NOT EXISTS collective_insights (
	id            TEXT PRIMARY KEY,
	decision_type TEXT NOT NULL,
	user_profile  TEXT,
	insights      TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_collective_insights_type ON collective_insights(decision_type);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Profiles ---

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p model.UserProfile) (*model.UserProfile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	dataJSON, err := json.Marshal(p.ProfileData)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal profile data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, name, email, is_guest, profile_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			is_guest = excluded.is_guest,
			profile_data = excluded.profile_data,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Email, p.IsGuest, string(dataJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert profile")
	}
	return &p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	var p model.UserProfile
	var dataJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_guest, profile_data, created_at, updated_at FROM user_profiles WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.IsGuest, &dataJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", id)
	}

	if dataJSON.Valid && dataJSON.String != "" && dataJSON.String != "null" {
		if err := json.Unmarshal([]byte(dataJSON.String), &p.ProfileData); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal profile data")
		}
	}
	return &p, nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.UserProfile, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.IsGuest != nil {
		sets = append(sets, "is_guest = ?")
		args = append(args, *upd.IsGuest)
	}
	if upd.ProfileData != nil {
		dataJSON, err := json.Marshal(upd.ProfileData)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal profile data")
		}
		sets = append(sets, "profile_data = ?")
		args = append(args, string(dataJSON))
	}

	query := fmt.Sprintf(`UPDATE user_profiles SET %s WHERE id = ?`, strings.Join(sets, ", "))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update profile %s", id)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// --- Decisions ---

func (s *SQLiteStore) CreateDecision(ctx context.Context, d model.Decision) (*model.Decision, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = model.DecisionStatusPending
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	resultsJSON, err := marshalNullableText(d.Results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal decision results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, string(d.DecisionType), d.Title, d.Description, d.Timeframe,
		string(d.Priority), string(d.Status), nullableFloat(d.Confidence), resultsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert decision")
	}
	return &d, nil
}

func (s *SQLiteStore) GetDecision(ctx context.Context, id string) (*model.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at FROM decisions WHERE id = ?`,
		id,
	)
	d, err := scanSQLiteDecision(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get decision %s", id)
	}
	return d, nil
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.Decision, error) {
	query := `SELECT id, user_id, decision_type, title, description, timeframe, priority, status, confidence, results, created_at, updated_at FROM decisions WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.DecisionType != "" {
		query += ` AND decision_type = ?`
		args = append(args, string(filter.DecisionType))
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.CreatedTo)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list decisions")
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		d, err := scanSQLiteDecision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision")
		}
		decisions = append(decisions, *d)
	}
	return decisions, eris.Wrap(rows.Err(), "sqlite: list decisions iterate")
}

func (s *SQLiteStore) UpdateDecision(ctx context.Context, id string, upd model.DecisionUpdate) (*model.Decision, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	addSet := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
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
			return nil, eris.Wrap(err, "sqlite: marshal decision results")
		}
		addSet("results", string(resultsJSON))
	}

	query := fmt.Sprintf(`UPDATE decisions SET %s WHERE id = ?`, strings.Join(sets, ", "))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update decision %s", id)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}
	return s.GetDecision(ctx, id)
}

func (s *SQLiteStore) DeleteDecision(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decisions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete decision %s", id)
	}
	return checkRowsAffected(res)
}

// --- Simulations ---

func (s *SQLiteStore) CreateSimulation(ctx context.Context, sim model.Simulation) (*model.Simulation, error) {
	if sim.ID == "" {
		sim.ID = uuid.New().String()
	}
	if sim.Status == "" {
		sim.Status = model.SimulationStatusCompleted
	}
	sim.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(sim.Parameters)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal simulation parameters")
	}
	resultsJSON, err := marshalNullableText(sim.Results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal simulation results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, decision_id, simulation_type, parameters, results, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sim.ID, sim.DecisionID, string(sim.SimulationType), string(paramsJSON), resultsJSON, string(sim.Status), sim.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert simulation")
	}
	return &sim, nil
}

func (s *SQLiteStore) ListSimulationsByDecision(ctx context.Context, decisionID string) ([]model.Simulation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, decision_id, simulation_type, parameters, results, status, created_at
		 FROM simulations WHERE decision_id = ? ORDER BY created_at DESC`,
		decisionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list simulations by decision")
	}
	defer rows.Close()
	return collectSQLiteSimulations(rows)
}

func (s *SQLiteStore) ListSimulationsByUser(ctx context.Context, userID string) ([]model.Simulation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.decision_id, s.simulation_type, s.parameters, s.results, s.status, s.created_at
		 FROM simulations s JOIN decisions d ON d.id = s.decision_id
		 WHERE d.user_id = ? ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list simulations by user")
	}
	defer rows.Close()
	return collectSQLiteSimulations(rows)
}

// --- Timing analyses ---

func (s *SQLiteStore) CreateTimingAnalysis(ctx context.Context, a model.TimingAnalysis) (*model.TimingAnalysis, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = "completed"
	}
	a.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(a.Parameters)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal analysis parameters")
	}
	resultsJSON, err := marshalNullableText(a.Results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal analysis results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO timing_analyses (id, decision_id, decision_type, parameters, results, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DecisionID, string(a.DecisionType), string(paramsJSON), resultsJSON, a.Status, a.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert timing analysis")
	}
	return &a, nil
}

// --- Collective insights ---

func (s *SQLiteStore) CreateInsight(ctx context.Context, i model.CollectiveInsight) (*model.CollectiveInsight, error) {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	i.CreatedAt = time.Now().UTC()

	profileJSON, err := marshalNullableText(i.UserProfile)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal insight profile")
	}
	insightsJSON, err := json.Marshal(i.Insights)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal insights")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collective_insights (id, decision_type, user_profile, insights, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		i.ID, string(i.DecisionType), profileJSON, string(insightsJSON), i.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert insight")
	}
	return &i, nil
}

func (s *SQLiteStore) ListInsights(ctx context.Context, dt model.DecisionType, limit int) ([]model.CollectiveInsight, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, decision_type, user_profile, insights, created_at
		 FROM collective_insights WHERE decision_type = ? ORDER BY created_at DESC LIMIT ?`,
		string(dt), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list insights")
	}
	defer rows.Close()

	var insights []model.CollectiveInsight
	for rows.Next() {
		var i model.CollectiveInsight
		var profileJSON sql.NullString
		var insightsJSON string
		if err := rows.Scan(&i.ID, &i.DecisionType, &profileJSON, &insightsJSON, &i.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan insight")
		}
		if profileJSON.Valid && profileJSON.String != "" {
			if err := json.Unmarshal([]byte(profileJSON.String), &i.UserProfile); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal insight profile")
			}
		}
		if err := json.Unmarshal([]byte(insightsJSON), &i.Insights); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal insights")
		}
		insights = append(insights, i)
	}
	return insights, eris.Wrap(rows.Err(), "sqlite: list insights iterate")
}

// ListInsightsByUser matches on the id field inside the stored profile
// snapshot. Insights have no user column of their own.
func (s *SQLiteStore) ListInsightsByUser(ctx context.Context, userID string) ([]model.CollectiveInsight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, decision_type, user_profile, insights, created_at
		 FROM collective_insights WHERE json_extract(user_profile, '$.id') = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list insights by user")
	}
	defer rows.Close()

	var insights []model.CollectiveInsight
	for rows.Next() {
		var i model.CollectiveInsight
		var profileJSON sql.NullString
		var insightsJSON string
		if err := rows.Scan(&i.ID, &i.DecisionType, &profileJSON, &insightsJSON, &i.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan insight")
		}
		if profileJSON.Valid && profileJSON.String != "" {
			if err := json.Unmarshal([]byte(profileJSON.String), &i.UserProfile); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal insight profile")
			}
		}
		if err := json.Unmarshal([]byte(insightsJSON), &i.Insights); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal insights")
		}
		insights = append(insights, i)
	}
	return insights, eris.Wrap(rows.Err(), "sqlite: list insights by user iterate")
}

// --- Accounts ---

func (s *SQLiteStore) CreateAccount(ctx context.Context, a model.Account) (*model.Account, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert account")
	}
	return &a, nil
}

func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM accounts WHERE email = ?`,
		email,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get account by email")
	}
	return &a, nil
}

// --- helpers ---

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSQLiteDecision(row rowScanner) (*model.Decision, error) {
	var d model.Decision
	var confidence sql.NullFloat64
	var resultsJSON sql.NullString

	err := row.Scan(&d.ID, &d.UserID, &d.DecisionType, &d.Title, &d.Description,
		&d.Timeframe, &d.Priority, &d.Status, &confidence, &resultsJSON,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if confidence.Valid {
		d.Confidence = &confidence.Float64
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &d.Results); err != nil {
			return nil, eris.Wrap(err, "unmarshal decision results")
		}
	}
	return &d, nil
}

func collectSQLiteSimulations(rows *sql.Rows) ([]model.Simulation, error) {
	var sims []model.Simulation
	for rows.Next() {
		var sim model.Simulation
		var paramsJSON string
		var resultsJSON sql.NullString
		if err := rows.Scan(&sim.ID, &sim.DecisionID, &sim.SimulationType, &paramsJSON, &resultsJSON, &sim.Status, &sim.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan simulation")
		}
		if err := json.Unmarshal([]byte(paramsJSON), &sim.Parameters); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal simulation parameters")
		}
		if resultsJSON.Valid && resultsJSON.String != "" {
			if err := json.Unmarshal([]byte(resultsJSON.String), &sim.Results); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal simulation results")
			}
		}
		sims = append(sims, sim)
	}
	return sims, eris.Wrap(rows.Err(), "sqlite: collect simulations")
}

func marshalNullableText(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
