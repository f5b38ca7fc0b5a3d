// Package prompt builds the model prompts for decision analysis,
// outcome simulation, and collective insights. Each decision type has
// its own system preamble; unknown context maps are serialized verbatim
// so the model sees exactly what the caller sent.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

var systemPreambles = map[model.DecisionType]string{
	model.DecisionCareerChange: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing the timing for career changes. Your goal is to interpret natural language requests and extract structured parameters for timing analysis. Focus on:

1. Current Situation: Identify the user's current job title, industry, years of experience, and location.
2. Desired Career Path: Extract the target career or industry and any specific preferences.
3. Timeframe: Determine the timeframe for the career change.
4. Key Factors: Consider personal factors and external factors.
5. Clarification: Ask targeted questions for missing details.
6. Validation: Ensure parameters are realistic.

Respond with structured JSON data and analysis.`,

	model.DecisionMarriage: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in simulating life path outcomes for marriage decisions. Your goal is to:

1. Identify User Profile: Extract relationship status, age, financial status, and life goals.
2. Extract Decision Details: Determine preferences for marriage.
3. Simulate Outcomes: Model statistical outcomes for marriage versus staying single.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure parameters align with realistic scenarios.

Respond with structured JSON data and probability analysis.`,

	model.DecisionInvestment: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing investment timing. Your goal is to:

1. Identify Investment Type: Extract the asset type and specific investments.
2. Extract User Profile: Determine risk tolerance, investment goals, and timeframe.
3. Analyze Trends: Use market data and collective intelligence to suggest timing windows.
4. Clarify: Ask for specifics if investment details are vague.
5. Validate: Ensure assets and timeframe are valid.

Respond with structured JSON data and market analysis.`,

	model.DecisionRelocation: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in simulating relocation outcomes. Your goal is to:

1. Identify User Profile: Extract current location, career, and lifestyle preferences.
2. Extract Relocation Details: Determine potential destinations and timeframe.
3. Simulate Outcomes: Model quality of life and career impacts.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure destinations are realistic.

Respond with structured JSON data and quality of life analysis.`,

	model.DecisionHealth: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in simulating health decision outcomes. Your goal is to:

1. Identify Health Profile: Extract condition, current treatments, and health goals.
2. Extract Decision Details: Determine treatment options and timeframe.
3. Simulate Outcomes: Model health outcomes based on medical data.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure treatments are medically valid.

Respond with structured JSON data and health outcome analysis.`,

	model.DecisionRetirement: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing retirement timing. Your goal is to:

1. Identify Financial Profile: Extract current savings, income, expenses, and retirement goals.
2. Extract Timeframe: Determine the retirement planning period.
3. Analyze Factors: Consider life expectancy, healthcare costs, and economic forecasts.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure financial data is realistic.

Respond with structured JSON data and financial projections.`,

	model.DecisionStartupLaunch: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing startup launch timing. Your goal is to:

1. Identify Business Details: Extract business idea, industry, and resources.
2. Extract Timeframe: Determine the launch planning period.
3. Analyze Factors: Consider market trends, competition, and collective intelligence.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure business idea is feasible.

Respond with structured JSON data and market analysis.`,

	model.DecisionRealEstate: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing real estate purchase timing. Your goal is to:

1. Identify Purchase Details: Extract location, budget, and property type.
2. Extract Timeframe: Determine the purchase planning period.
3. Analyze Factors: Consider market trends, interest rates, and economic forecasts.
4. Clarify: Ask for specifics if details are vague.
5. Validate: Ensure location and budget are realistic.

Respond with structured JSON data and market forecasts.`,

	model.DecisionPersonalDevelopment: `You are an AI assistant for the TEMPORAL NEXUS platform, specializing in optimizing personal development timing. Your goal is to:

1. Identify Goals: Extract personal development goals.
2. Extract Constraints: Determine time availability and resources.
3. Analyze Factors: Consider learning curves, motivation cycles, and collective data.
4. Clarify: Ask for specifics if goals are vague.
5. Validate: Ensure goals are achievable.

Respond with structured JSON data and learning optimization.`,
}

const analysisInstructions = `Please analyze this decision request and provide:
1. Structured data extraction
2. Timing analysis with optimal windows
3. Risk assessment
4. Confidence score (0-100)
5. Specific recommendations
6. Key factors to consider

Respond in JSON format with the following structure:
{
  "extracted_data": {
    "decision_type": "%s",
    "key_parameters": {},
    "timeframe": "",
    "priority_level": ""
  },
  "timing_analysis": {
    "optimal_windows": [],
    "risk_factors": [],
    "market_conditions": {},
    "personal_readiness": {}
  },
  "recommendations": {
    "primary_recommendation": "",
    "alternative_options": [],
    "preparation_steps": [],
    "monitoring_metrics": []
  },
  "confidence_score": 0,
  "reasoning": "",
  "next_steps": []
}`

// System returns the system preamble for a decision type. Types without
// a registered preamble get a generic one. The preambles are identical
// across requests of the same type, so callers can mark them cacheable.
func System(dt model.DecisionType) string {
	preamble, ok := systemPreambles[dt]
	if !ok {
		return fmt.Sprintf("You are an AI assistant for the TEMPORAL NEXUS platform. Analyze a %s decision.", dt)
	}
	return preamble
}

// AnalysisUser builds the user-role portion of an analysis prompt. The
// user's text is quoted verbatim; context is serialized as JSON when
// present.
func AnalysisUser(dt model.DecisionType, userInput string, context map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Input: %q\n", userInput)
	if len(context) > 0 {
		fmt.Fprintf(&b, "Additional Context: %s\n", mustJSON(context))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, analysisInstructions, dt)
	return b.String()
}

// Analysis composes the full single-string analysis prompt, system
// preamble included. The HTTP path splits the two so the preamble can be
// cached; one-shot callers use this.
func Analysis(dt model.DecisionType, userInput string, context map[string]any) string {
	return System(dt) + "\n\n" + AnalysisUser(dt, userInput, context)
}

// Simulation builds the prompt for an outcome simulation request.
// Parameters are pretty-printed so structure survives in the prompt.
func Simulation(dt model.DecisionType, parameters map[string]any) string {
	params, err := json.MarshalIndent(parameters, "", "  ")
	if err != nil {
		params = []byte("{}")
	}

	return fmt.Sprintf(`As a TEMPORAL NEXUS simulation engine, simulate the outcomes for a %s decision with the following parameters:

%s

Provide a comprehensive simulation including:
1. Multiple scenario outcomes (best case, worst case, most likely)
2. Probability distributions for key metrics
3. Timeline projections
4. Risk analysis
5. Comparative analysis with alternative choices

Respond in JSON format with detailed simulation results.`, dt, params)
}

// Insights builds the prompt for a collective-intelligence request.
func Insights(dt model.DecisionType, userProfile map[string]any) string {
	return fmt.Sprintf(`As a TEMPORAL NEXUS collective intelligence system, provide insights for %s decisions based on collective data patterns.

User Profile: %s

Analyze patterns from similar users and decisions to provide:
1. Success rates for similar profiles
2. Common timing patterns
3. Key success factors
4. Common pitfalls to avoid
5. Trending insights

Respond with actionable collective intelligence insights.`, dt, mustJSON(userProfile))
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
