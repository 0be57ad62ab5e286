package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is returned when model output does not match the schema
var ErrInvalidSchema = errors.New("output does not match schema")

// Schema describes a flat JSON object whose properties are all strings
type Schema struct {
	Name       string
	Properties []string
	Required   []string
}

// AnswerSchema is the output contract of the generative answer fallback
var AnswerSchema = Schema{
	Name:       "knowledge_answer",
	Properties: []string{"title", "explanation", "sourceHash"},
	Required:   []string{"title", "explanation", "sourceHash"},
}

// Record is a validated schema instance
type Record map[string]string

// JSONSchema renders the schema as a JSON Schema document
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		props[p] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.Required,
		"additionalProperties": false,
	}
}

// Validate parses raw model output and checks it against the schema. Code
// fences around the JSON are tolerated; anything else is rejected.
func (s Schema) Validate(raw string) (Record, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidSchema)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	allowed := make(map[string]bool, len(s.Properties))
	for _, p := range s.Properties {
		allowed[p] = true
	}

	rec := make(Record, len(s.Properties))
	for key, v := range obj {
		if !allowed[key] {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: property %q is not a string", ErrInvalidSchema, key)
		}
		rec[key] = str
	}
	for _, req := range s.Required {
		if _, ok := rec[req]; !ok {
			return nil, fmt.Errorf("%w: missing property %q", ErrInvalidSchema, req)
		}
	}
	return rec, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
