/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// timeLayout is fixed-width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var comparators = map[filter.Operator]string{
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

// compiler turns predicates into a WHERE clause and its bind arguments.
type compiler struct {
	d    Dialect
	args []any
}

func newCompiler(d Dialect) *compiler {
	return &compiler{d: d}
}

// bind registers an argument and returns the expression comparing it.
func (c *compiler) bind(v any) (string, error) {
	arg, expr, err := c.d.Param(toStorable(v), c.d.Placeholder(len(c.args)+1))
	if err != nil {
		return "", err
	}
	c.args = append(c.args, arg)
	return expr, nil
}

// rawBind registers an argument used as is, such as document text.
func (c *compiler) rawBind(v any) string {
	c.args = append(c.args, v)
	return c.d.Placeholder(len(c.args))
}

// where ANDs every predicate. It returns "" when nothing constrains.
func (c *compiler) where(preds ...filter.Conditions) (string, error) {
	var parts []string
	for _, p := range preds {
		for _, field := range p.Fields() {
			clause, err := c.clause(field, p.Expr(field))
			if err != nil {
				return "", err
			}
			parts = append(parts, clause)
		}
	}
	return strings.Join(parts, " AND "), nil
}

func (c *compiler) clause(field string, e filter.Expr) (string, error) {
	f := c.d.Field(field)

	switch e.Op {
	case filter.OpEq:
		if e.Value == nil {
			return c.d.IsNull(field), nil
		}
		p, err := c.bind(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", f, p), nil

	case filter.OpNe:
		if e.Value == nil {
			return "NOT (" + c.d.IsNull(field) + ")", nil
		}
		p, err := c.bind(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", f, f, p), nil

	case filter.OpIn, filter.OpNin:
		values, err := filter.Values(e)
		if err != nil {
			return "", errors.NewValidationError(field, err.Error())
		}
		if len(values) == 0 {
			if e.Op == filter.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		ps := make([]string, 0, len(values))
		for _, v := range values {
			p, err := c.bind(v)
			if err != nil {
				return "", err
			}
			ps = append(ps, p)
		}
		list := strings.Join(ps, ", ")
		if e.Op == filter.OpIn {
			return fmt.Sprintf("%s IN (%s)", f, list), nil
		}
		return fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", f, f, list), nil

	case filter.OpExists:
		present, ok := e.Value.(bool)
		if !ok {
			return "", errors.NewValidationError(field, "$exists requires a boolean")
		}
		if present {
			return c.d.Presence(field) + " IS NOT NULL", nil
		}
		return c.d.Presence(field) + " IS NULL", nil

	case filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		p, err := c.bind(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", f, comparators[e.Op], p), nil
	}

	return "", errors.NewValidationError(field, fmt.Sprintf("unsupported operator %q", e.Op))
}

// orderBy sorts by the requested fields and then by insertion order.
func (c *compiler) orderBy(sort []storagemodels.SortField) string {
	parts := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		dir := "DESC"
		if s.Ascending {
			dir = "ASC"
		}
		parts = append(parts, c.d.Field(s.Field)+" "+dir)
	}
	parts = append(parts, "seq ASC")
	return "ORDER BY " + strings.Join(parts, ", ")
}

func toStorable(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(timeLayout)
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
