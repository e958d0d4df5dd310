/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"fmt"
	"strings"

	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
)

// Visibility selects which records an operation sees.
type Visibility int

const (
	// Active sees records not flagged as deleted, including records that
	// have no flag at all.
	Active Visibility = iota
	// Deleted sees records whose flag is anything but false.
	Deleted
	// All sees every record.
	All
)

func (v Visibility) String() string {
	switch v {
	case Active:
		return "active"
	case Deleted:
		return "deleted"
	case All:
		return "all"
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

// ParseVisibility reads a visibility name as printed by String.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return Active, nil
	case "deleted":
		return Deleted, nil
	case "all", "with-deleted", "withdeleted":
		return All, nil
	}
	return Active, errors.NewValidationError("visibility", fmt.Sprintf("unknown visibility %q", s))
}

// expr returns the constraint on the deleted flag. ok is false for All.
//
// Deleted uses {$ne: false} rather than {$eq: true} so that records carrying
// a legacy truthy flag ("true", 1) still show up as deleted.
func (v Visibility) expr() (e filter.Expr, ok bool) {
	switch v {
	case Active:
		return filter.Ne(true), true
	case Deleted:
		return filter.Ne(false), true
	}
	return filter.Expr{}, false
}

// Clause returns the predicate the visibility adds to a query, or nil for All.
func (v Visibility) Clause() filter.Conditions {
	e, ok := v.expr()
	if !ok {
		return nil
	}
	return filter.Conditions{config.FieldDeleted: e}
}

// inject writes the visibility constraint into conds in place.
func (v Visibility) inject(conds filter.Conditions) {
	if e, ok := v.expr(); ok {
		conds[config.FieldDeleted] = e
	}
}
