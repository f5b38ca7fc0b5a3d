package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporal-nexus/nexus-api/internal/auth"
	"github.com/temporal-nexus/nexus-api/internal/jobs"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

// fakeGateway satisfies both the runner's and the server's gateway
// interfaces with canned responses.
type fakeGateway struct {
	analysis map[string]any
	insights map[string]any
	err      error
}

func (f *fakeGateway) Analyze(context.Context, model.DecisionType, string, map[string]any) (map[string]any, error) {
	return f.analysis, f.err
}

func (f *fakeGateway) Simulate(context.Context, model.DecisionType, map[string]any) (map[string]any, error) {
	return f.analysis, f.err
}

func (f *fakeGateway) CollectiveInsights(context.Context, model.DecisionType, map[string]any) (map[string]any, error) {
	return f.insights, f.err
}

type fixture struct {
	server *httptest.Server
	store  store.Store
}

func newFixture(t *testing.T, gw *fakeGateway) *fixture {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	schemas, err := validate.LoadRegistry("")
	require.NoError(t, err)

	registry := jobs.NewMemoryRegistry(time.Hour, 100)
	runner := jobs.NewRunner(registry, st, gw, 16, 2)
	runner.Start(context.Background())
	t.Cleanup(runner.Stop)

	srv := NewServer(Options{
		Store:                 st,
		Registry:              registry,
		Runner:                runner,
		Gateway:               gw,
		Auth:                  auth.NewService(st, "test-secret", time.Hour),
		Schemas:               schemas,
		TimeTravelMaxParallel: 2,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, store: st}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func (f *fixture) doList(t *testing.T, path string) (*http.Response, []map[string]any) {
	t.Helper()

	resp, err := f.server.Client().Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func validDecision(userID string) map[string]any {
	return map[string]any{
		"user_id":       userID,
		"decision_type": "investment",
		"title":         "Buy index funds",
		"description":   "Move savings into a broad market fund",
		"timeframe":     "1_year",
		"priority":      "medium",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	resp, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, _ := f.do(t, http.MethodPost, "/api/v1/user/profile", map[string]any{"id": "u1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing name rejected")

	resp, body := f.do(t, http.MethodPost, "/api/v1/user/profile", map[string]any{
		"id": "u1", "name": "Ada", "is_guest": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", body["name"])
	assert.Equal(t, true, body["is_guest"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/user/profile?id=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", body["id"])

	resp, body = f.do(t, http.MethodPut, "/api/v1/user/profile", map[string]any{
		"id": "u1", "name": "Ada L",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada L", body["name"])
	assert.Equal(t, true, body["is_guest"], "untouched fields survive partial update")

	resp, _ = f.do(t, http.MethodGet, "/api/v1/user/profile?id=ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/user/profile", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing id rejected")
}

func TestAuthEndpoints(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"email": "ada@example.com", "password": "hunter22", "name": "Ada",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["userId"])
	assert.NotEmpty(t, body["token"])

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"email": "ada@example.com", "password": "other", "name": "Ada",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "ada@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing credentials rejected")
}

func TestDecisionCRUD(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", validDecision("u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", body["status"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/decisions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Buy index funds", body["title"])

	resp, body = f.do(t, http.MethodPut, "/api/v1/decisions/"+id, map[string]any{"priority": "high"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "high", body["priority"])

	resp, body = f.do(t, http.MethodDelete, "/api/v1/decisions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "deleted", body["status"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/decisions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/decisions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateDecisionClientSuppliedID(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	payload := validDecision("u1")
	payload["id"] = "decision_1724800000000"
	payload["created_at"] = "2026-08-28T12:00:00Z"
	payload["updated_at"] = "2026-08-28T12:00:00Z"

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "decision_1724800000000", body["id"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/decisions/decision_1724800000000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Buy index funds", body["title"])
}

func TestCreateDecisionValidation(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	payload := validDecision("u1")
	payload["priority"] = "urgent"

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	details, ok := body["details"].([]any)
	require.True(t, ok, "violation details present")
	found := false
	for _, d := range details {
		if v, ok := d.(map[string]any); ok && v["field"] == "priority" {
			found = true
		}
	}
	assert.True(t, found, "violation names the priority field")
}

func TestListDecisionsNewestFirst(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	first := validDecision("u1")
	first["title"] = "First decision"
	resp, _ := f.do(t, http.MethodPost, "/api/v1/decisions", first)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(10 * time.Millisecond)

	second := validDecision("u1")
	second["title"] = "Second decision"
	resp, _ = f.do(t, http.MethodPost, "/api/v1/decisions", second)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, list := f.doList(t, "/api/v1/decisions?userId=u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 2)
	assert.Equal(t, "Second decision", list[0]["title"])
	assert.Equal(t, "First decision", list[1]["title"])
}

func TestSimulationJobFlow(t *testing.T) {
	f := newFixture(t, &fakeGateway{
		analysis: map[string]any{"confidence_score": 91.0},
	})

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", validDecision("u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decisionID := body["id"].(string)

	resp, body = f.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"decisionId":   decisionID,
		"decisionType": "investment",
		"parameters": map[string]any{
			"asset": "BTC", "amount": 100, "risk_tolerance": "high", "timeframe": "1_year",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobID, _ := body["jobId"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "queued", body["status"])

	deadline := time.Now().Add(5 * time.Second)
	var job map[string]any
	for time.Now().Before(deadline) {
		resp, job = f.do(t, http.MethodGet, "/api/v1/simulations/"+jobID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if job["status"] == "completed" || job["status"] == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, "completed", job["status"])
	assert.NotNil(t, job["result"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/decisions/"+decisionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])
	assert.InDelta(t, 91.0, body["confidence"].(float64), 1e-9)
}

func TestSimulationValidation(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, _ := f.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"decisionType": "investment",
		"parameters":   map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing decisionId rejected")

	resp, body := f.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"decisionId":   "d1",
		"decisionType": "investment",
		"parameters":   map[string]any{"asset": "BTC"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "incomplete parameters rejected")
	assert.NotNil(t, body["details"])
}

func TestGetJobUnknown(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	resp, body := f.do(t, http.MethodGet, "/api/v1/simulations/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "job not found", body["error"])
}

func TestCollectiveInsights(t *testing.T) {
	f := newFixture(t, &fakeGateway{
		insights: map[string]any{"success_rate": 75.0, "insights": "mostly fine"},
	})

	resp, body := f.do(t, http.MethodPost, "/api/v1/collective-insights", map[string]any{
		"decisionType": "career_change",
		"userProfile":  map[string]any{"id": "u1", "name": "Ada"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mostly fine", body["insights"])

	resp, list := f.doList(t, "/api/v1/collective-insights?decisionType=career_change&userId=u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "career_change", list[0]["decision_type"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/collective-insights?decisionType=career_change", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing userId rejected")
}

func TestQuantumCloud(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", validDecision("u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decisionID := body["id"].(string)

	_, err := f.store.CreateSimulation(context.Background(), model.Simulation{
		DecisionID:     decisionID,
		SimulationType: model.DecisionInvestment,
		Results:        map[string]any{"confidence": 0.8},
		Status:         model.SimulationStatusCompleted,
	})
	require.NoError(t, err)

	resp, body = f.do(t, http.MethodGet, "/api/v1/quantum-cloud/"+decisionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, decisionID, body["decisionId"])

	cloud, ok := body["quantumCloud"].([]any)
	require.True(t, ok)
	require.Len(t, cloud, 1)
	point := cloud[0].(map[string]any)
	assert.Equal(t, "Scenario 1", point["scenario"])
	assert.InDelta(t, 0.8, point["probability"].(float64), 1e-9)
}

func TestTimeTravelTest(t *testing.T) {
	f := newFixture(t, &fakeGateway{
		analysis: map[string]any{"confidence_score": 70.0},
	})

	resp, body := f.do(t, http.MethodPost, "/api/v1/time-travel-test", map[string]any{
		"decisionType": "relocation",
		"userInput":    "Should I move next spring?",
		"test_times":   []any{"2026-03-01", "2026-09-01", "2027-03-01"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 3, "one result per test time")

	resp, _ = f.do(t, http.MethodPost, "/api/v1/time-travel-test", map[string]any{
		"decisionType": "relocation",
		"userInput":    "Should I move?",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing test_times rejected")
}

func TestAnalyticsSummaryEmpty(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, body := f.do(t, http.MethodGet, "/api/v1/analytics/summary?userId=nobody", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, map[string]any{}, body["byType"])
	assert.Equal(t, map[string]any{}, body["byStatus"])
	v, present := body["avgConfidence"]
	assert.True(t, present, "avgConfidence key always present")
	assert.Nil(t, v)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/analytics/summary", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing userId rejected")
}

func TestAnalyticsHistoryAndExport(t *testing.T) {
	f := newFixture(t, &fakeGateway{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/decisions", validDecision("u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decisionID := body["id"].(string)

	_, err := f.store.CreateSimulation(context.Background(), model.Simulation{
		DecisionID:     decisionID,
		SimulationType: model.DecisionInvestment,
		Results:        map[string]any{"confidence": 0.7},
		Status:         model.SimulationStatusCompleted,
	})
	require.NoError(t, err)

	resp, body = f.do(t, http.MethodGet, "/api/v1/analytics/history?userId=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["decisions"], 1)
	assert.Len(t, body["simulations"], 1)
	assert.NotNil(t, body["insights"], "insights key present even when empty")

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/analytics/export?userId=u1&format=csv", nil)
	require.NoError(t, err)
	csvResp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer csvResp.Body.Close()
	assert.Equal(t, http.StatusOK, csvResp.StatusCode)
	assert.Equal(t, "text/csv", csvResp.Header.Get("Content-Type"))
	assert.Contains(t, csvResp.Header.Get("Content-Disposition"), "temporal-nexus-export-u1.csv")
}
