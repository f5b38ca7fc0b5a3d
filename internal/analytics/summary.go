// Package analytics aggregates stored decisions and simulation results
// into user-facing statistics and exports.
package analytics

import (
	"github.com/temporal-nexus/nexus-api/internal/model"
)

// Summary is aggregate statistics over a set of decisions.
// AvgConfidence is nil (JSON null) when no decision carries a
// confidence value; zero would read as a real score.
type Summary struct {
	Total         int                          `json:"total"`
	ByType        map[model.DecisionType]int   `json:"byType"`
	ByStatus      map[model.DecisionStatus]int `json:"byStatus"`
	AvgConfidence *float64                     `json:"avgConfidence"`
}

// Summarize computes aggregate statistics over decisions.
func Summarize(decisions []model.Decision) Summary {
	s := Summary{
		Total:    len(decisions),
		ByType:   make(map[model.DecisionType]int),
		ByStatus: make(map[model.DecisionStatus]int),
	}

	var confidenceSum float64
	var confidenceCount int
	for _, d := range decisions {
		s.ByType[d.DecisionType]++
		s.ByStatus[d.Status]++
		if d.Confidence != nil {
			confidenceSum += *d.Confidence
			confidenceCount++
		}
	}

	if confidenceCount > 0 {
		avg := confidenceSum / float64(confidenceCount)
		s.AvgConfidence = &avg
	}
	return s
}

// History bundles a user's full activity for the history endpoint.
type History struct {
	Decisions   []model.Decision          `json:"decisions"`
	Simulations []model.Simulation        `json:"simulations"`
	Insights    []model.CollectiveInsight `json:"insights"`
}
