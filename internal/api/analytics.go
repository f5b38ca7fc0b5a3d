package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temporal-nexus/nexus-api/internal/analytics"
	"github.com/temporal-nexus/nexus-api/internal/model"
)

// analyticsMaxRows bounds how many decisions a single aggregate request
// pulls from the store.
const analyticsMaxRows = 1000

// handleQuantumCloud derives the probability cloud from a decision's
// stored simulation results.
func (s *Server) handleQuantumCloud(w http.ResponseWriter, r *http.Request) {
	decisionID := chi.URLParam(r, "decisionId")

	sims, err := s.store.ListSimulationsByDecision(r.Context(), decisionID)
	if err != nil {
		respondStoreError(w, "list simulations failed", err)
		return
	}

	cloud := analytics.QuantumCloud(sims)
	points := make([]map[string]any, len(cloud))
	for i, p := range cloud {
		points[i] = p.Flatten()
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"decisionId":   decisionID,
		"quantumCloud": points,
	})
}

type timeTravelRequest struct {
	DecisionType model.DecisionType `json:"decisionType"`
	UserInput    string             `json:"userInput"`
	TestTimes    []any              `json:"test_times"`
}

// handleTimeTravelTest runs one analysis per supplied test time in
// parallel, bounded so a large batch cannot exhaust the gateway.
func (s *Server) handleTimeTravelTest(w http.ResponseWriter, r *http.Request) {
	var req timeTravelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DecisionType == "" || req.UserInput == "" || len(req.TestTimes) == 0 {
		respondError(w, http.StatusBadRequest, "missing or invalid params")
		return
	}
	if !model.ValidDecisionType(req.DecisionType) {
		respondError(w, http.StatusBadRequest, "unknown decision type")
		return
	}

	results := make([]map[string]any, len(req.TestTimes))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.timeTravelMaxParallel)
	for i, tt := range req.TestTimes {
		g.Go(func() error {
			res, err := s.gw.Analyze(ctx, req.DecisionType, req.UserInput, map[string]any{"test_time": tt})
			if err != nil {
				return fmt.Errorf("analysis for test time %v: %w", tt, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("time travel test failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"decisionType": req.DecisionType,
		"userInput":    req.UserInput,
		"test_times":   req.TestTimes,
		"results":      results,
	})
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	filter, ok := decisionFilterFromQuery(w, r)
	if !ok {
		return
	}
	if filter.UserID == "" {
		respondError(w, http.StatusBadRequest, "missing userId")
		return
	}
	filter.Limit = analyticsMaxRows

	decisions, err := s.store.ListDecisions(r.Context(), filter)
	if err != nil {
		respondStoreError(w, "list decisions failed", err)
		return
	}
	respondJSON(w, http.StatusOK, analytics.Summarize(decisions))
}

// handleAnalyticsHistory returns a user's decisions, simulations, and
// insights in one payload.
func (s *Server) handleAnalyticsHistory(w http.ResponseWriter, r *http.Request) {
	history, ok := s.collectHistory(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// handleAnalyticsExport serves the same data as history, as JSON or as
// a CSV attachment covering decisions only.
func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	history, ok := s.collectHistory(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		respondJSON(w, http.StatusOK, history)
		return
	}

	data, err := analytics.DecisionsCSV(history.Decisions)
	if err != nil {
		zap.L().Error("export csv failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	userID := r.URL.Query().Get("userId")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "temporal-nexus-export-"+userID+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Warn("write csv response failed", zap.Error(err))
	}
}

func (s *Server) collectHistory(w http.ResponseWriter, r *http.Request) (analytics.History, bool) {
	filter, ok := decisionFilterFromQuery(w, r)
	if !ok {
		return analytics.History{}, false
	}
	if filter.UserID == "" {
		respondError(w, http.StatusBadRequest, "missing userId")
		return analytics.History{}, false
	}
	filter.Limit = analyticsMaxRows

	decisions, err := s.store.ListDecisions(r.Context(), filter)
	if err != nil {
		respondStoreError(w, "list decisions failed", err)
		return analytics.History{}, false
	}
	simulations, err := s.store.ListSimulationsByUser(r.Context(), filter.UserID)
	if err != nil {
		respondStoreError(w, "list simulations failed", err)
		return analytics.History{}, false
	}
	insights, err := s.store.ListInsightsByUser(r.Context(), filter.UserID)
	if err != nil {
		respondStoreError(w, "list insights failed", err)
		return analytics.History{}, false
	}

	if decisions == nil {
		decisions = []model.Decision{}
	}
	if simulations == nil {
		simulations = []model.Simulation{}
	}
	if insights == nil {
		insights = []model.CollectiveInsight{}
	}
	return analytics.History{Decisions: decisions, Simulations: simulations, Insights: insights}, true
}
