// Package validate checks request payloads against declarative object
// schemas before they reach the store or the model gateway. Schemas are
// data, not code: the per-decision-type parameter schemas ship as an
// embedded YAML document and can be overridden by an external file.
package validate

import (
	"fmt"
	"strings"
)

// Violation describes a single failed check on a payload field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldKind identifies the expected shape of a field value.
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindNumber     FieldKind = "number"
	KindEnum       FieldKind = "enum"
	KindStringList FieldKind = "string_list"
	KindObject     FieldKind = "object"
)

// FieldRule is a single declarative check on one field of an object.
type FieldRule struct {
	Kind     FieldKind `yaml:"type"`
	Optional bool      `yaml:"optional"`
	MinLen   int       `yaml:"min_len"`
	Min      *float64  `yaml:"min"`
	Values   []string  `yaml:"values"`
}

// ObjectSchema validates a JSON object decoded into a map. Unknown keys
// are rejected unless Passthrough is set, in which case they are kept
// verbatim (the simulation envelope relies on this).
type ObjectSchema struct {
	Fields      map[string]FieldRule `yaml:"fields"`
	Passthrough bool                 `yaml:"passthrough"`
}

// Check validates payload against the schema and returns every violation
// found. A nil payload is treated as an empty object.
func (s ObjectSchema) Check(payload map[string]any) []Violation {
	var out []Violation

	for name, rule := range s.Fields {
		val, ok := payload[name]
		if !ok || val == nil {
			if !rule.Optional {
				out = append(out, Violation{Field: name, Message: "is required"})
			}
			continue
		}
		out = append(out, checkField(name, rule, val)...)
	}

	if !s.Passthrough {
		for key := range payload {
			if _, known := s.Fields[key]; !known {
				out = append(out, Violation{Field: key, Message: "is not a recognized field"})
			}
		}
	}

	return out
}

func checkField(name string, rule FieldRule, val any) []Violation {
	switch rule.Kind {
	case KindString:
		str, ok := val.(string)
		if !ok {
			return []Violation{{Field: name, Message: "must be a string"}}
		}
		if len(strings.TrimSpace(str)) < rule.MinLen {
			return []Violation{{Field: name, Message: fmt.Sprintf("must be at least %d characters", rule.MinLen)}}
		}
		if rule.MinLen == 0 && strings.TrimSpace(str) == "" {
			return []Violation{{Field: name, Message: "must not be empty"}}
		}

	case KindNumber:
		num, ok := asFloat(val)
		if !ok {
			return []Violation{{Field: name, Message: "must be a number"}}
		}
		if rule.Min != nil && num < *rule.Min {
			return []Violation{{Field: name, Message: fmt.Sprintf("must be at least %v", *rule.Min)}}
		}

	case KindEnum:
		str, ok := val.(string)
		if !ok {
			return []Violation{{Field: name, Message: "must be a string"}}
		}
		for _, allowed := range rule.Values {
			if str == allowed {
				return nil
			}
		}
		return []Violation{{Field: name, Message: fmt.Sprintf("must be one of: %s", strings.Join(rule.Values, ", "))}}

	case KindStringList:
		list, ok := val.([]any)
		if !ok {
			// yaml.v3 and typed callers may hand us []string directly.
			if _, isStrings := val.([]string); isStrings {
				return nil
			}
			return []Violation{{Field: name, Message: "must be a list of strings"}}
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return []Violation{{Field: name, Message: "must be a list of strings"}}
			}
		}

	case KindObject:
		if _, ok := val.(map[string]any); !ok {
			return []Violation{{Field: name, Message: "must be an object"}}
		}

	default:
		return []Violation{{Field: name, Message: fmt.Sprintf("has unknown rule kind %q", rule.Kind)}}
	}

	return nil
}

func asFloat(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
