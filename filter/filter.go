/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Conditions is a document predicate: every field must satisfy its value.
// A plain value means equality; an Expr applies an operator.
type Conditions map[string]any

// Operator names follow the MongoDB query operators they translate to.
type Operator string

const (
	OpEq     Operator = "$eq"
	OpNe     Operator = "$ne"
	OpIn     Operator = "$in"
	OpNin    Operator = "$nin"
	OpExists Operator = "$exists"
	OpGt     Operator = "$gt"
	OpGte    Operator = "$gte"
	OpLt     Operator = "$lt"
	OpLte    Operator = "$lte"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpIn: true, OpNin: true, OpExists: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
}

// Expr is a single operator applied to a field.
type Expr struct {
	Op    Operator
	Value any
}

func (e Expr) String() string {
	return fmt.Sprintf("{%s: %v}", e.Op, e.Value)
}

func Eq(v any) Expr  { return Expr{Op: OpEq, Value: v} }
func Ne(v any) Expr  { return Expr{Op: OpNe, Value: v} }
func Gt(v any) Expr  { return Expr{Op: OpGt, Value: v} }
func Gte(v any) Expr { return Expr{Op: OpGte, Value: v} }
func Lt(v any) Expr  { return Expr{Op: OpLt, Value: v} }
func Lte(v any) Expr { return Expr{Op: OpLte, Value: v} }

// In matches when the field equals any of the values.
func In(values ...any) Expr { return Expr{Op: OpIn, Value: values} }

// Nin matches when the field equals none of the values.
func Nin(values ...any) Expr { return Expr{Op: OpNin, Value: values} }

// Exists matches on presence (true) or absence (false) of the field.
func Exists(present bool) Expr { return Expr{Op: OpExists, Value: present} }

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (c Conditions) Clone() Conditions {
	out := make(Conditions, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Fields returns the constrained field names in sorted order so that
// compiled expressions are deterministic.
func (c Conditions) Fields() []string {
	fields := make([]string, 0, len(c))
	for k := range c {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Expr returns the constraint on field, turning plain values into equality.
func (c Conditions) Expr(field string) Expr {
	switch v := c[field].(type) {
	case Expr:
		return v
	case *Expr:
		return *v
	default:
		return Eq(v)
	}
}

// String formats the conditions with fields in sorted order.
func (c Conditions) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range c.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", field, c[field])
	}
	b.WriteByte('}')
	return b.String()
}

// IsEmpty reports whether the conditions constrain nothing.
func (c Conditions) IsEmpty() bool {
	return len(c) == 0
}

// Values returns the operand of an $in/$nin expression as a slice.
func Values(e Expr) ([]any, error) {
	return toSlice(e.Value)
}
