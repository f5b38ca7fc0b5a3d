package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/temporal-nexus/nexus-api/internal/analytics"
	"github.com/temporal-nexus/nexus-api/internal/model"
)

func TestFormatDecisionsList(t *testing.T) {
	conf := 82.5
	decisions := []model.Decision{
		{
			ID:           "dec-1",
			UserID:       "u1",
			DecisionType: model.DecisionInvestment,
			Title:        "Buy index funds",
			Status:       model.DecisionStatusCompleted,
			Confidence:   &conf,
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:           "dec-2",
			UserID:       "u1",
			DecisionType: model.DecisionRelocation,
			Title:        "A very long decision title that should be truncated for display",
			Status:       model.DecisionStatusPending,
			CreatedAt:    time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatDecisionsList(&buf, decisions)
	out := buf.String()

	assert.Contains(t, out, "dec-1")
	assert.Contains(t, out, "82.5")
	assert.Contains(t, out, "investment")
	assert.Contains(t, out, "...", "long titles truncated")
	assert.NotContains(t, out, "truncated for display")
	assert.Contains(t, out, "-", "missing confidence shown as dash")
}

func TestFormatDecisionStats(t *testing.T) {
	conf := 70.0
	summary := analytics.Summarize([]model.Decision{
		{DecisionType: model.DecisionCareerChange, Status: model.DecisionStatusCompleted, Confidence: &conf},
		{DecisionType: model.DecisionCareerChange, Status: model.DecisionStatusPending},
	})

	var buf bytes.Buffer
	formatDecisionStats(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "Total decisions: 2")
	assert.Contains(t, out, "career_change")
	assert.Contains(t, out, "Average confidence: 70.0")

	buf.Reset()
	formatDecisionStats(&buf, analytics.Summarize(nil))
	assert.Contains(t, buf.String(), "Average confidence: n/a")
}
