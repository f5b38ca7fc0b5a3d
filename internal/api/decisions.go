package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if violations := validate.DecisionCreateSchema().Check(payload); len(violations) > 0 {
		respondViolations(w, "invalid decision payload", violations)
		return
	}

	var d model.Decision
	if err := json.Unmarshal(body, &d); err != nil {
		respondError(w, http.StatusBadRequest, "invalid decision payload")
		return
	}

	created, err := s.store.CreateDecision(r.Context(), d)
	if err != nil {
		respondStoreError(w, "create decision failed", err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	decision, err := s.store.GetDecision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, "get decision failed", err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	filter, ok := decisionFilterFromQuery(w, r)
	if !ok {
		return
	}

	decisions, err := s.store.ListDecisions(r.Context(), filter)
	if err != nil {
		respondStoreError(w, "list decisions failed", err)
		return
	}
	if decisions == nil {
		decisions = []model.Decision{}
	}
	respondJSON(w, http.StatusOK, decisions)
}

func (s *Server) handleUpdateDecision(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if violations := validate.DecisionUpdateSchema().Check(payload); len(violations) > 0 {
		respondViolations(w, "invalid decision payload", violations)
		return
	}

	var upd model.DecisionUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid decision payload")
		return
	}

	decision, err := s.store.UpdateDecision(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		respondStoreError(w, "update decision failed", err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

func (s *Server) handleDeleteDecision(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDecision(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, "delete decision failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// decisionFilterFromQuery builds a list filter from query parameters.
// Writes a 400 and returns false on malformed values.
func decisionFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.DecisionFilter, bool) {
	q := r.URL.Query()
	filter := store.DecisionFilter{
		UserID:       q.Get("userId"),
		DecisionType: model.DecisionType(q.Get("decisionType")),
	}

	if filter.DecisionType != "" && !model.ValidDecisionType(filter.DecisionType) {
		respondError(w, http.StatusBadRequest, "unknown decision type")
		return store.DecisionFilter{}, false
	}

	for name, dst := range map[string]*time.Time{"from": &filter.CreatedFrom, "to": &filter.CreatedTo} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+name+" timestamp, want RFC 3339")
			return store.DecisionFilter{}, false
		}
		*dst = t
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid "+name)
			return store.DecisionFilter{}, false
		}
		*dst = n
	}

	return filter, true
}
