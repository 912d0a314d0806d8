package source

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/axtree/internal/ax"
)

func parseJSON(raw []byte) (any, error) {
	v, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return v, nil
}

func parseYAML(raw []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return normalize(v), nil
}

// normalize rewrites YAML maps with non-string keys so jp and oj see the
// same shapes they get from JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	}
	return v
}

// convert decodes a generic document into dst through its JSON form, so
// the ax types' text and JSON unmarshalers apply.
func convert(v any, dst any) error {
	return json.Unmarshal([]byte(oj.JSON(v)), dst)
}

// DecodeJSON decodes an in-memory JSON document the same way Load does.
func DecodeJSON(raw []byte) ([]ax.TreeUpdate, error) {
	doc, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	return decodeDocument(doc)
}
