// Package gateway mediates every model call: it paces requests, bounds
// their latency, retries transient failures once, and normalizes the
// model's output into either verbatim parsed JSON or a fixed degraded
// shape. Callers never see a raw SDK error surface.
package gateway

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/temporal-nexus/nexus-api/internal/config"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/prompt"
	"github.com/temporal-nexus/nexus-api/internal/resilience"
	"github.com/temporal-nexus/nexus-api/pkg/anthropic"
)

// Gateway is the single entry point for model-backed intelligence.
type Gateway struct {
	client    anthropic.Client
	limiter   *rate.Limiter
	model     string
	maxTokens int64
	timeout   time.Duration
	retry     resilience.RetryConfig
}

// New builds a Gateway from configuration. RequestsPerSec paces all
// calls through one shared limiter so burst traffic from the job runner
// cannot trip API rate limits.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Gateway {
	retryCfg := resilience.DefaultRetryConfig()
	if !cfg.RetryOnTransient {
		retryCfg.MaxAttempts = 1
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	return &Gateway{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		retry:     retryCfg,
	}
}

// Analyze runs a decision analysis. When the model returns parseable
// JSON the parsed object is returned verbatim; otherwise a fixed-shape
// result carries the raw text in its reasoning field. Transport errors
// surface as errors; malformed model output does not.
func (g *Gateway) Analyze(ctx context.Context, dt model.DecisionType, userInput string, additional map[string]any) (map[string]any, error) {
	text, err := g.complete(ctx, "analyze",
		prompt.System(dt),
		prompt.AnalysisUser(dt, userInput, additional),
	)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: analyze decision")
	}

	if parsed, ok := extractJSON(text); ok {
		return parsed, nil
	}

	zap.L().Warn("analysis response not parseable, using structured fallback",
		zap.String("decision_type", string(dt)))
	return toMap(analysisFallback(dt, userInput, text)), nil
}

// Simulate runs an outcome simulation with the same parse-or-fallback
// contract as Analyze.
func (g *Gateway) Simulate(ctx context.Context, dt model.DecisionType, parameters map[string]any) (map[string]any, error) {
	text, err := g.complete(ctx, "simulate", "", prompt.Simulation(dt, parameters))
	if err != nil {
		return nil, eris.Wrap(err, "gateway: simulate outcomes")
	}

	if parsed, ok := extractJSON(text); ok {
		return parsed, nil
	}

	zap.L().Warn("simulation response not parseable, using structured fallback",
		zap.String("decision_type", string(dt)))
	return toMap(simulationFallback(text)), nil
}

// CollectiveInsights asks the model for pattern commentary and wraps it
// in the presentational insight envelope. The model text is never parsed
// as JSON here; it rides along in the insights field.
func (g *Gateway) CollectiveInsights(ctx context.Context, dt model.DecisionType, userProfile map[string]any) (map[string]any, error) {
	text, err := g.complete(ctx, "collective_insights", "", prompt.Insights(dt, userProfile))
	if err != nil {
		return nil, eris.Wrap(err, "gateway: collective insights")
	}

	return toMap(insightEnvelope(text)), nil
}

// complete pushes one prompt through pacing, deadline, and retry, and
// returns the concatenated text of the response.
func (g *Gateway) complete(ctx context.Context, operation, system, user string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "gateway: rate limit wait")
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	}
	if system != "" {
		req.System = anthropic.BuildCachedSystemBlocks(system)
	}

	retryCfg := g.retry
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", operation)

	resp, err := resilience.Retry(callCtx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(g.model, operation)
	return resp.Text(), nil
}

func analysisFallback(dt model.DecisionType, userInput, rawText string) model.AnalysisResult {
	return model.AnalysisResult{
		ExtractedData: model.ExtractedData{
			DecisionType:  dt,
			KeyParameters: map[string]any{"user_input": userInput},
			Timeframe:     "1_year",
			PriorityLevel: "medium",
		},
		TimingAnalysis: model.TimingAnalysisSection{
			OptimalWindows:    []string{"Q2 2024", "Q3 2024"},
			RiskFactors:       []string{"Market volatility", "Personal readiness"},
			MarketConditions:  map[string]any{"favorability": "moderate"},
			PersonalReadiness: map[string]any{"score": 75},
		},
		Recommendations: model.Recommendations{
			PrimaryRecommendation: "Proceed with careful planning and monitoring",
			AlternativeOptions:    []string{"Delay by 6 months", "Accelerate timeline"},
			PreparationSteps:      []string{"Research thoroughly", "Build necessary skills"},
			MonitoringMetrics:     []string{"Market indicators", "Personal progress"},
		},
		ConfidenceScore: 78,
		Reasoning:       rawText,
		NextSteps:       []string{"Continue analysis", "Gather more data"},
	}
}

func simulationFallback(rawText string) model.SimulationResult {
	return model.SimulationResult{
		Scenarios: map[string]model.Scenario{
			"best_case":   {Probability: 0.2, OutcomeScore: 95},
			"most_likely": {Probability: 0.6, OutcomeScore: 78},
			"worst_case":  {Probability: 0.2, OutcomeScore: 45},
		},
		TimelineProjection: map[string]string{
			"short_term":  "Positive initial results expected",
			"medium_term": "Steady progress with some challenges",
			"long_term":   "Strong likelihood of success",
		},
		RiskAnalysis: map[string][]string{
			"high_risks":   {"Market volatility"},
			"medium_risks": {"Personal factors"},
			"low_risks":    {"External conditions"},
		},
		SimulationText: rawText,
	}
}

func insightEnvelope(rawText string) model.InsightResult {
	return model.InsightResult{
		SuccessRate: 70 + rand.IntN(31),
		CommonPatterns: []string{
			"Most successful decisions happen in Q2-Q3",
			"Preparation phase typically takes 3-6 months",
			"Market conditions favor current timing",
		},
		Insights: rawText,
		TrendingFactors: []string{
			"Economic stability improving",
			"Industry growth accelerating",
			"Personal readiness metrics positive",
		},
	}
}
