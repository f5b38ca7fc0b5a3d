package model

import "time"

// SimulationStatus represents the current state of a simulation record.
type SimulationStatus string

const (
	SimulationStatusQueued    SimulationStatus = "queued"
	SimulationStatusRunning   SimulationStatus = "running"
	SimulationStatusCompleted SimulationStatus = "completed"
	SimulationStatusFailed    SimulationStatus = "failed"
)

// Simulation is a parameterized outcome projection attached to a decision.
// Repeated simulation requests create independent records.
type Simulation struct {
	ID             string           `json:"id"`
	DecisionID     string           `json:"decision_id"`
	SimulationType DecisionType     `json:"simulation_type"`
	Parameters     map[string]any   `json:"parameters"`
	Results        map[string]any   `json:"results,omitempty"`
	Status         SimulationStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TimingAnalysis is a stored timing-analysis result for a decision.
type TimingAnalysis struct {
	ID           string         `json:"id"`
	DecisionID   string         `json:"decision_id"`
	DecisionType DecisionType   `json:"decision_type"`
	Parameters   map[string]any `json:"parameters"`
	Results      map[string]any `json:"results,omitempty"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CollectiveInsight is LLM-generated commentary keyed by decision type,
// stored with a snapshot of the submitting user's profile. Append-only.
type CollectiveInsight struct {
	ID           string         `json:"id"`
	DecisionType DecisionType   `json:"decision_type"`
	UserProfile  map[string]any `json:"user_profile"`
	Insights     map[string]any `json:"insights"`
	CreatedAt    time.Time      `json:"created_at"`
}
