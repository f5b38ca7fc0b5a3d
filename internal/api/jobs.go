package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/jobs"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

type jobEnvelope struct {
	DecisionID   string             `json:"decisionId"`
	DecisionType model.DecisionType `json:"decisionType"`
	Parameters   map[string]any     `json:"parameters"`
}

func (s *Server) handleEnqueueSimulation(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, r, model.JobKindSimulation, "invalid simulation payload")
}

func (s *Server) handleEnqueueTimingAnalysis(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, r, model.JobKindTimingAnalysis, "invalid timing analysis payload")
}

// enqueue validates an async job request, registers a job record, flips
// the decision to analyzing, and hands the task to the runner. The
// response is immediate; callers poll by jobId.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, kind model.JobKind, badPayloadMsg string) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if violations := validate.SimulationEnvelopeSchema().Check(payload); len(violations) > 0 {
		respondViolations(w, badPayloadMsg, violations)
		return
	}

	var env jobEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		respondError(w, http.StatusBadRequest, badPayloadMsg)
		return
	}
	if violations := s.schemas.CheckParams(env.DecisionType, env.Parameters); len(violations) > 0 {
		respondViolations(w, "invalid simulation parameters", violations)
		return
	}

	job, err := s.registry.Create(r.Context(), kind)
	if err != nil {
		zap.L().Error("create job failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Flip the decision so the UI shows analysis in flight. Unknown
	// decision ids are tolerated; the simulation still runs.
	analyzing := model.DecisionStatusAnalyzing
	if _, err := s.store.UpdateDecision(r.Context(), env.DecisionID, model.DecisionUpdate{Status: &analyzing}); err != nil && !errors.Is(err, store.ErrNotFound) {
		zap.L().Warn("mark decision analyzing failed", zap.String("decision_id", env.DecisionID), zap.Error(err))
	}

	task := jobs.Task{
		JobID:        job.ID,
		Kind:         kind,
		DecisionID:   env.DecisionID,
		DecisionType: env.DecisionType,
		Parameters:   env.Parameters,
	}
	if kind == model.JobKindTimingAnalysis {
		if input, ok := env.Parameters["userInput"].(string); ok {
			task.UserInput = input
		}
	}

	if err := s.runner.Submit(task); err != nil {
		if failErr := s.registry.Fail(r.Context(), job.ID, "job queue full"); failErr != nil {
			zap.L().Warn("fail job failed", zap.String("job_id", job.ID), zap.Error(failErr))
		}
		if errors.Is(err, jobs.ErrQueueFull) {
			respondError(w, http.StatusServiceUnavailable, "job queue full, retry later")
			return
		}
		zap.L().Error("submit task failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"jobId": job.ID, "status": model.JobStatusQueued})
}

// handleGetJob serves polls for both job kinds; ids are unique across
// the registry.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.registry.Get(r.Context(), chi.URLParam(r, "jobId"))
	if errors.Is(err, jobs.ErrNotFound) {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		zap.L().Error("get job failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, job)
}
