package model

import "time"

// DecisionType tags the kind of life decision being analyzed.
type DecisionType string

const (
	DecisionCareerChange        DecisionType = "career_change"
	DecisionInvestment          DecisionType = "investment"
	DecisionMarriage            DecisionType = "marriage"
	DecisionRelocation          DecisionType = "relocation"
	DecisionHealth              DecisionType = "health"
	DecisionRetirement          DecisionType = "retirement"
	DecisionStartupLaunch       DecisionType = "startup_launch"
	DecisionRealEstate          DecisionType = "real_estate"
	DecisionPersonalDevelopment DecisionType = "personal_development"
)

// AllDecisionTypes returns the closed set of valid decision type tags.
func AllDecisionTypes() []DecisionType {
	return []DecisionType{
		DecisionCareerChange,
		DecisionInvestment,
		DecisionMarriage,
		DecisionRelocation,
		DecisionHealth,
		DecisionRetirement,
		DecisionStartupLaunch,
		DecisionRealEstate,
		DecisionPersonalDevelopment,
	}
}

// ValidDecisionType reports whether t is a member of the closed set.
func ValidDecisionType(t DecisionType) bool {
	for _, dt := range AllDecisionTypes() {
		if dt == t {
			return true
		}
	}
	return false
}

// Priority ranks how urgent a decision is to its owner.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is one of low, medium, high.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DecisionStatus represents the current state of a decision's analysis.
type DecisionStatus string

const (
	DecisionStatusPending   DecisionStatus = "pending"
	DecisionStatusAnalyzing DecisionStatus = "analyzing"
	DecisionStatusCompleted DecisionStatus = "completed"
)

// ValidDecisionStatus reports whether s is a known decision status.
func ValidDecisionStatus(s DecisionStatus) bool {
	switch s {
	case DecisionStatusPending, DecisionStatusAnalyzing, DecisionStatusCompleted:
		return true
	}
	return false
}

// Decision is a user-described choice awaiting or having received analysis.
type Decision struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	DecisionType DecisionType   `json:"decision_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Timeframe    string         `json:"timeframe"`
	Priority     Priority       `json:"priority"`
	Status       DecisionStatus `json:"status"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Results      map[string]any `json:"results,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DecisionUpdate carries a partial update to a decision. Nil fields are
// left untouched.
type DecisionUpdate struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Timeframe   *string         `json:"timeframe,omitempty"`
	Priority    *Priority       `json:"priority,omitempty"`
	Status      *DecisionStatus `json:"status,omitempty"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Results     map[string]any  `json:"results,omitempty"`
}
