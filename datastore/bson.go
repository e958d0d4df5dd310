/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeBSON converts driver value types into the plain Go forms
// documents use: maps, []any and time.Time.
func NormalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case Document:
		return normalizeMap(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = NormalizeBSON(e.Value)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = NormalizeBSON(t[i])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = NormalizeBSON(t[i])
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = NormalizeBSON(v)
	}
	return out
}
