package analytics

import (
	"fmt"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// CloudPoint is one scenario in a probability cloud. Extra holds the
// full result object so clients keep every field the model produced.
type CloudPoint struct {
	Scenario    string
	Probability float64
	Extra       map[string]any
}

// Flatten merges Extra into a single object with scenario and
// probability on top, the shape clients receive.
func (p CloudPoint) Flatten() map[string]any {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["scenario"] = p.Scenario
	out["probability"] = p.Probability
	return out
}

// QuantumCloud synthesizes a probability cloud from stored simulation
// results. Each simulation becomes one point; the probability comes from
// the first numeric field in the confidence cascade, defaulting to 0.5.
func QuantumCloud(sims []model.Simulation) []CloudPoint {
	points := make([]CloudPoint, 0, len(sims))
	for i, sim := range sims {
		results := sim.Results
		if results == nil {
			results = map[string]any{}
		}

		scenario := fmt.Sprintf("Scenario %d", i+1)
		if s, ok := results["scenario"].(string); ok && s != "" {
			scenario = s
		}

		points = append(points, CloudPoint{
			Scenario:    scenario,
			Probability: Probability(results),
			Extra:       results,
		})
	}
	return points
}

// Probability resolves the confidence cascade over a result object:
// confidence, likelihood, probability, then analysis_result.confidence,
// falling back to 0.5.
func Probability(results map[string]any) float64 {
	for _, key := range []string{"confidence", "likelihood", "probability"} {
		if v, ok := asNumber(results[key]); ok {
			return v
		}
	}
	if nested, ok := results["analysis_result"].(map[string]any); ok {
		if v, ok := asNumber(nested["confidence"]); ok {
			return v
		}
	}
	return 0.5
}

// ConfidenceScore extracts the model's 0-100 confidence_score from an
// analysis result, or nil when absent or non-numeric.
func ConfidenceScore(results map[string]any) *float64 {
	if v, ok := asNumber(results["confidence_score"]); ok {
		return &v
	}
	return nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
