package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

func TestSummarize(t *testing.T) {
	conf1, conf2 := 80.0, 60.0
	decisions := []model.Decision{
		{DecisionType: model.DecisionCareerChange, Status: model.DecisionStatusCompleted, Confidence: &conf1},
		{DecisionType: model.DecisionCareerChange, Status: model.DecisionStatusPending},
		{DecisionType: model.DecisionInvestment, Status: model.DecisionStatusCompleted, Confidence: &conf2},
	}

	s := Summarize(decisions)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByType[model.DecisionCareerChange])
	assert.Equal(t, 1, s.ByType[model.DecisionInvestment])
	assert.Equal(t, 2, s.ByStatus[model.DecisionStatusCompleted])
	require.NotNil(t, s.AvgConfidence)
	assert.InDelta(t, 70.0, *s.AvgConfidence, 1e-9)
}

func TestSummarizeNoConfidenceIsNil(t *testing.T) {
	s := Summarize([]model.Decision{
		{DecisionType: model.DecisionHealth, Status: model.DecisionStatusPending},
	})
	assert.Nil(t, s.AvgConfidence, "must be JSON null, not zero")

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Nil(t, empty.AvgConfidence)
}

func TestProbabilityCascade(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]any
		want    float64
	}{
		{"confidence wins", map[string]any{"confidence": 0.9, "likelihood": 0.1}, 0.9},
		{"likelihood second", map[string]any{"likelihood": 0.7, "probability": 0.1}, 0.7},
		{"probability third", map[string]any{"probability": 0.3}, 0.3},
		{"nested analysis_result", map[string]any{"analysis_result": map[string]any{"confidence": 0.65}}, 0.65},
		{"non-numeric skipped", map[string]any{"confidence": "high", "probability": 0.4}, 0.4},
		{"default", map[string]any{"other": 1}, 0.5},
		{"empty", map[string]any{}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Probability(tt.results), 1e-9)
		})
	}
}

func TestQuantumCloud(t *testing.T) {
	sims := []model.Simulation{
		{Results: map[string]any{"confidence": 0.8, "note": "good odds"}},
		{Results: map[string]any{"scenario": "stay put", "likelihood": 0.4}},
		{Results: nil},
	}

	cloud := QuantumCloud(sims)
	require.Len(t, cloud, 3)

	assert.Equal(t, "Scenario 1", cloud[0].Scenario)
	assert.InDelta(t, 0.8, cloud[0].Probability, 1e-9)

	assert.Equal(t, "stay put", cloud[1].Scenario, "explicit scenario name kept")
	assert.InDelta(t, 0.4, cloud[1].Probability, 1e-9)

	assert.Equal(t, "Scenario 3", cloud[2].Scenario)
	assert.InDelta(t, 0.5, cloud[2].Probability, 1e-9)

	flat := cloud[0].Flatten()
	assert.Equal(t, "good odds", flat["note"], "result fields spread into the point")
	assert.Equal(t, "Scenario 1", flat["scenario"])
}

func TestConfidenceScore(t *testing.T) {
	got := ConfidenceScore(map[string]any{"confidence_score": 78.0})
	require.NotNil(t, got)
	assert.InDelta(t, 78.0, *got, 1e-9)

	assert.Nil(t, ConfidenceScore(map[string]any{"confidence_score": "high"}))
	assert.Nil(t, ConfidenceScore(map[string]any{}))
}

func TestDecisionsCSV(t *testing.T) {
	conf := 82.5
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	decisions := []model.Decision{
		{
			ID:           "dec-1",
			UserID:       "user-1",
			DecisionType: model.DecisionRelocation,
			Title:        "Move to Oslo, maybe",
			Description:  "Weighing a move \"north\"",
			Timeframe:    "1 year",
			Priority:     model.PriorityLow,
			Status:       model.DecisionStatusCompleted,
			Confidence:   &conf,
			Results:      map[string]any{"confidence_score": 82.5},
			CreatedAt:    created,
			UpdatedAt:    created,
		},
	}

	data, err := DecisionsCSV(decisions)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,user_id,decision_type"))
	assert.Contains(t, lines[1], "dec-1")
	assert.Contains(t, lines[1], "82.5")
	assert.Contains(t, lines[1], "relocation")

	headerOnly, err := DecisionsCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, len(strings.Split(strings.TrimSpace(string(headerOnly)), "\n")))
}
