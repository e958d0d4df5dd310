/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
)

// exprBuilder collects expression attribute names and values so that the
// filter, condition and update parts of one request share placeholders.
type exprBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
	nameOf map[string]string
	nv     int
}

func newExprBuilder() *exprBuilder {
	return &exprBuilder{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
		nameOf: make(map[string]string),
	}
}

// path turns a dotted field path into a placeholder path like #f0.#f1.
func (b *exprBuilder) path(field string) string {
	parts := strings.Split(field, ".")
	for i, part := range parts {
		ph, ok := b.nameOf[part]
		if !ok {
			ph = fmt.Sprintf("#f%d", len(b.nameOf))
			b.nameOf[part] = ph
			b.names[ph] = part
		}
		parts[i] = ph
	}
	return strings.Join(parts, ".")
}

func (b *exprBuilder) value(v any) (string, error) {
	av, err := marshalValue(v)
	if err != nil {
		return "", err
	}
	ph := fmt.Sprintf(":v%d", b.nv)
	b.nv++
	b.values[ph] = av
	return ph, nil
}

// Names returns nil when empty; DynamoDB rejects empty maps.
func (b *exprBuilder) Names() map[string]string {
	if len(b.names) == 0 {
		return nil
	}
	return b.names
}

func (b *exprBuilder) Values() map[string]types.AttributeValue {
	if len(b.values) == 0 {
		return nil
	}
	return b.values
}

// condition compiles predicates into a single ANDed condition expression.
// An empty result means no constraint.
func (b *exprBuilder) condition(preds ...filter.Conditions) (string, error) {
	var clauses []string
	for _, pred := range preds {
		for _, field := range pred.Fields() {
			clause, err := b.clause(field, pred.Expr(field))
			if err != nil {
				return "", err
			}
			clauses = append(clauses, clause)
		}
	}
	return strings.Join(clauses, " AND "), nil
}

func (b *exprBuilder) clause(field string, e filter.Expr) (string, error) {
	p := b.path(field)
	switch e.Op {
	case filter.OpEq:
		if e.Value == nil {
			return fmt.Sprintf("(attribute_not_exists(%s) OR attribute_type(%s, %s))", p, p, b.mustValue("NULL")), nil
		}
		v, err := b.value(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", p, v), nil

	case filter.OpNe:
		// Missing attributes never compare, so absence is spelled out.
		if e.Value == nil {
			return fmt.Sprintf("(attribute_exists(%s) AND NOT attribute_type(%s, %s))", p, p, b.mustValue("NULL")), nil
		}
		v, err := b.value(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(attribute_not_exists(%s) OR %s <> %s)", p, p, v), nil

	case filter.OpIn, filter.OpNin:
		values, err := filter.Values(e)
		if err != nil {
			return "", errors.NewValidationError(field, err.Error())
		}
		if len(values) == 0 {
			if e.Op == filter.OpIn {
				return fmt.Sprintf("(attribute_exists(%s) AND attribute_not_exists(%s))", p, p), nil
			}
			return fmt.Sprintf("(attribute_exists(%s) OR attribute_not_exists(%s))", p, p), nil
		}
		phs := make([]string, 0, len(values))
		for _, v := range values {
			ph, err := b.value(v)
			if err != nil {
				return "", err
			}
			phs = append(phs, ph)
		}
		in := fmt.Sprintf("%s IN (%s)", p, strings.Join(phs, ", "))
		if e.Op == filter.OpIn {
			return in, nil
		}
		return fmt.Sprintf("(attribute_not_exists(%s) OR NOT (%s))", p, in), nil

	case filter.OpExists:
		present, ok := e.Value.(bool)
		if !ok {
			return "", errors.NewValidationError(field, "$exists expects a boolean")
		}
		if present {
			return fmt.Sprintf("attribute_exists(%s)", p), nil
		}
		return fmt.Sprintf("attribute_not_exists(%s)", p), nil

	case filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		v, err := b.value(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", p, comparators[e.Op], v), nil
	}
	return "", errors.NewValidationError(field, fmt.Sprintf("unsupported operator %s", e.Op))
}

var comparators = map[filter.Operator]string{
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

func (b *exprBuilder) mustValue(s string) string {
	ph := fmt.Sprintf(":v%d", b.nv)
	b.nv++
	b.values[ph] = &types.AttributeValueMemberS{Value: s}
	return ph
}

// update transforms a patch into an update expression such as
// "SET #f0 = :v0 REMOVE #f1".
func (b *exprBuilder) update(patch datastore.Patch) (string, error) {
	if patch.IsEmpty() {
		return "", fmt.Errorf("no updates provided")
	}

	var parts []string
	if len(patch.Set) > 0 {
		removed := make(map[string]bool, len(patch.Unset))
		for _, field := range patch.Unset {
			removed[field] = true
		}
		setClauses := make([]string, 0, len(patch.Set))
		for _, field := range patch.SetKeys() {
			if removed[field] {
				continue
			}
			v, err := b.value(patch.Set[field])
			if err != nil {
				return "", fmt.Errorf("unhandled update value for field '%s': %w", field, err)
			}
			setClauses = append(setClauses, fmt.Sprintf("%s = %s", b.path(field), v))
		}
		if len(setClauses) > 0 {
			parts = append(parts, "SET "+strings.Join(setClauses, ", "))
		}
	}
	if len(patch.Unset) > 0 {
		removes := make([]string, 0, len(patch.Unset))
		for _, field := range patch.Unset {
			removes = append(removes, b.path(field))
		}
		parts = append(parts, "REMOVE "+strings.Join(removes, ", "))
	}
	return strings.Join(parts, " "), nil
}

// marshalValue converts a document value into an attribute value. Times are
// stored as UTC RFC 3339 strings so that they order lexically.
func marshalValue(v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(toStorable(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return av, nil
}

func toStorable(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case interface{ Hex() string }:
		return t.Hex()
	case datastore.Document:
		return toStorable(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = toStorable(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = toStorable(t[i])
		}
		return out
	}
	return v
}
