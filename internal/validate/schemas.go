package validate

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

//go:embed schemas.yaml
var embeddedSchemas []byte

// Registry holds the per-decision-type parameter schemas plus the fixed
// request schemas shared by every decision type.
type Registry struct {
	params map[model.DecisionType]ObjectSchema
}

// LoadRegistry builds a Registry from the embedded schema document. When
// overridePath is non-empty, that file replaces the embedded schemas
// entirely; a type missing from the override simply skips deep parameter
// validation for that type.
func LoadRegistry(overridePath string) (*Registry, error) {
	raw := embeddedSchemas
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, eris.Wrapf(err, "validate: read schema file %s", overridePath)
		}
		raw = data
	}

	var byType map[model.DecisionType]ObjectSchema
	if err := yaml.Unmarshal(raw, &byType); err != nil {
		return nil, eris.Wrap(err, "validate: parse parameter schemas")
	}

	for dt := range byType {
		if !model.ValidDecisionType(dt) {
			return nil, eris.Errorf("validate: schema document names unknown decision type %q", dt)
		}
	}

	return &Registry{params: byType}, nil
}

// ParamsSchema returns the parameter schema for a decision type. The
// second return is false when no schema is defined for the type.
func (r *Registry) ParamsSchema(dt model.DecisionType) (ObjectSchema, bool) {
	s, ok := r.params[dt]
	return s, ok
}

// CheckParams validates simulation parameters for a decision type.
// Types without a registered schema accept any object.
func (r *Registry) CheckParams(dt model.DecisionType, params map[string]any) []Violation {
	schema, ok := r.ParamsSchema(dt)
	if !ok {
		return nil
	}
	return schema.Check(params)
}

func decisionTypeValues() []string {
	types := model.AllDecisionTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// DecisionCreateSchema validates the body of a decision create request.
// Clients may mint their own id and echo timestamps back; all three are
// optional and the server remains authoritative for the timestamps.
func DecisionCreateSchema() ObjectSchema {
	return ObjectSchema{
		Fields: map[string]FieldRule{
			"id":            {Kind: KindString, Optional: true},
			"user_id":       {Kind: KindString},
			"decision_type": {Kind: KindEnum, Values: decisionTypeValues()},
			"title":         {Kind: KindString, MinLen: 3},
			"description":   {Kind: KindString, MinLen: 5},
			"timeframe":     {Kind: KindString, MinLen: 2},
			"priority":      {Kind: KindEnum, Values: []string{"low", "medium", "high"}},
			"status":        {Kind: KindEnum, Optional: true, Values: []string{"pending", "analyzing", "completed"}},
			"confidence":    {Kind: KindNumber, Optional: true},
			"results":       {Kind: KindObject, Optional: true},
			"created_at":    {Kind: KindString, Optional: true},
			"updated_at":    {Kind: KindString, Optional: true},
		},
	}
}

// DecisionUpdateSchema validates the body of a decision update request.
// Every field is optional; present fields must still be well formed.
func DecisionUpdateSchema() ObjectSchema {
	s := DecisionCreateSchema()
	fields := make(map[string]FieldRule, len(s.Fields))
	for name, rule := range s.Fields {
		rule.Optional = true
		fields[name] = rule
	}
	delete(fields, "user_id")
	return ObjectSchema{Fields: fields}
}

// SimulationEnvelopeSchema validates the outer shape of a simulation or
// timing-analysis request. Parameters pass through as-is here; the
// per-type schema from the Registry covers their contents.
func SimulationEnvelopeSchema() ObjectSchema {
	return ObjectSchema{
		Fields: map[string]FieldRule{
			"decisionId":   {Kind: KindString},
			"decisionType": {Kind: KindEnum, Values: decisionTypeValues()},
			"parameters":   {Kind: KindObject},
		},
		Passthrough: true,
	}
}
