/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse converts a decoded JSON object such as
//
//	{"status": "active", "deleted": {"$ne": true}}
//
// into Conditions. Nested objects whose keys all start with "$" become
// operator expressions; any other nested object is matched by equality.
func Parse(raw map[string]any) (Conditions, error) {
	out := make(Conditions, len(raw))
	for field, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok || !isOperatorObject(obj) {
			out[field] = v
			continue
		}
		if len(obj) != 1 {
			return nil, fmt.Errorf("field %q: only one operator per field is supported", field)
		}
		for op, operand := range obj {
			if !operators[Operator(op)] {
				return nil, fmt.Errorf("field %q: unknown operator %q", field, op)
			}
			out[field] = Expr{Op: Operator(op), Value: operand}
		}
	}
	return out, nil
}

// ParseJSON decodes and parses a JSON filter. An empty string is the empty
// predicate.
func ParseJSON(text string) (Conditions, error) {
	if strings.TrimSpace(text) == "" {
		return Conditions{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return Parse(raw)
}

func isOperatorObject(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}
