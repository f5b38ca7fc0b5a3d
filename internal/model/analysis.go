package model

// The structures below mirror the JSON shapes the model is asked to
// produce. When the model returns parseable JSON it is stored verbatim as
// a map; these types build the fixed-shape degraded results when parsing
// fails.

// ExtractedData is the structured-extraction section of an analysis.
type ExtractedData struct {
	DecisionType  DecisionType   `json:"decision_type"`
	KeyParameters map[string]any `json:"key_parameters"`
	Timeframe     string         `json:"timeframe"`
	PriorityLevel string         `json:"priority_level"`
}

// TimingAnalysisSection holds the timing portion of an analysis result.
type TimingAnalysisSection struct {
	OptimalWindows    []string       `json:"optimal_windows"`
	RiskFactors       []string       `json:"risk_factors"`
	MarketConditions  map[string]any `json:"market_conditions"`
	PersonalReadiness map[string]any `json:"personal_readiness"`
}

// Recommendations holds the advice portion of an analysis result.
type Recommendations struct {
	PrimaryRecommendation string   `json:"primary_recommendation"`
	AlternativeOptions    []string `json:"alternative_options"`
	PreparationSteps      []string `json:"preparation_steps"`
	MonitoringMetrics     []string `json:"monitoring_metrics"`
}

// AnalysisResult is the degraded-success shape for a decision analysis:
// placeholder sections plus the raw model text in Reasoning.
type AnalysisResult struct {
	ExtractedData   ExtractedData         `json:"extracted_data"`
	TimingAnalysis  TimingAnalysisSection `json:"timing_analysis"`
	Recommendations Recommendations       `json:"recommendations"`
	ConfidenceScore float64               `json:"confidence_score"`
	Reasoning       string                `json:"reasoning"`
	NextSteps       []string              `json:"next_steps"`
}

// Scenario is a single simulated outcome branch.
type Scenario struct {
	Probability  float64 `json:"probability"`
	OutcomeScore float64 `json:"outcome_score"`
}

// SimulationResult is the degraded-success shape for a simulation:
// fixed scenario spread plus the raw model text in SimulationText.
type SimulationResult struct {
	Scenarios          map[string]Scenario `json:"scenarios"`
	TimelineProjection map[string]string   `json:"timeline_projection"`
	RiskAnalysis       map[string][]string `json:"risk_analysis"`
	SimulationText     string              `json:"simulation_text"`
}

// InsightResult is the collective-intelligence response shape. SuccessRate
// and the pattern lists are presentational placeholders; Insights carries
// the model's actual commentary.
type InsightResult struct {
	SuccessRate     int      `json:"success_rate"`
	CommonPatterns  []string `json:"common_patterns"`
	Insights        string   `json:"insights"`
	TrendingFactors []string `json:"trending_factors"`
}
