/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Match reports whether doc satisfies every condition.
func (c Conditions) Match(doc map[string]any) bool {
	for field := range c {
		val, ok := Lookup(doc, field)
		if !c.Expr(field).matches(val, ok) {
			return false
		}
	}
	return true
}

// MatchAll reports whether doc satisfies every predicate.
func MatchAll(doc map[string]any, preds ...Conditions) bool {
	for _, p := range preds {
		if !p.Match(doc) {
			return false
		}
	}
	return true
}

// Lookup resolves a dotted path ("address.city") inside doc.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Conditions:
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// matches evaluates the expression against a looked-up value. present is
// false when the field is missing; a missing field never equals anything,
// which is what lets {$ne: true} select documents lacking the flag.
func (e Expr) matches(val any, present bool) bool {
	switch e.Op {
	case OpEq:
		return present && Equal(val, e.Value)
	case OpNe:
		return !present || !Equal(val, e.Value)
	case OpExists:
		want, _ := e.Value.(bool)
		return present == want
	case OpIn, OpNin:
		values, err := toSlice(e.Value)
		if err != nil {
			return false
		}
		found := false
		if present {
			for _, v := range values {
				if Equal(val, v) {
					found = true
					break
				}
			}
		}
		if e.Op == OpIn {
			return found
		}
		return !found
	case OpGt, OpGte, OpLt, OpLte:
		if !present {
			return false
		}
		cmp, ok := Compare(val, e.Value)
		if !ok {
			return false
		}
		switch e.Op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

// Equal compares two document values. Numbers compare by value regardless of
// their Go type; everything else must agree on type, so true != "true".
func Equal(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders numbers, strings and times. ok is false for other kinds or
// mismatched kinds.
func Compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toSlice(v any) ([]any, error) {
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list operand, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
