package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// handleListInsights returns stored insights for a decision type,
// narrowed to the requesting user's profile snapshot.
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dt := model.DecisionType(q.Get("decisionType"))
	userID := q.Get("userId")
	if dt == "" || userID == "" {
		respondError(w, http.StatusBadRequest, "missing decisionType or userId")
		return
	}
	if !model.ValidDecisionType(dt) {
		respondError(w, http.StatusBadRequest, "unknown decision type")
		return
	}

	all, err := s.store.ListInsights(r.Context(), dt, 0)
	if err != nil {
		respondStoreError(w, "list insights failed", err)
		return
	}

	insights := make([]model.CollectiveInsight, 0, len(all))
	for _, i := range all {
		if id, ok := i.UserProfile["id"].(string); ok && id == userID {
			insights = append(insights, i)
		}
	}
	respondJSON(w, http.StatusOK, insights)
}

type insightRequest struct {
	DecisionType model.DecisionType `json:"decisionType"`
	UserProfile  map[string]any     `json:"userProfile"`
}

// handleCreateInsight asks the model for collective commentary and
// persists the result with the submitting profile snapshot. The
// response body is the insight payload itself.
func (s *Server) handleCreateInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DecisionType == "" || req.UserProfile == nil {
		respondError(w, http.StatusBadRequest, "missing decisionType or userProfile")
		return
	}
	if !model.ValidDecisionType(req.DecisionType) {
		respondError(w, http.StatusBadRequest, "unknown decision type")
		return
	}

	insights, err := s.gw.CollectiveInsights(r.Context(), req.DecisionType, req.UserProfile)
	if err != nil {
		zap.L().Error("collective insights failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := s.store.CreateInsight(r.Context(), model.CollectiveInsight{
		DecisionType: req.DecisionType,
		UserProfile:  req.UserProfile,
		Insights:     insights,
	}); err != nil {
		// The caller still gets the generated insight.
		zap.L().Warn("persist insight failed", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, insights)
}
