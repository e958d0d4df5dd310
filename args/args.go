/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package args

import (
	"strings"
	"sync"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// CallbackFunc receives the outcome of an update-style operation.
type CallbackFunc func(storagemodels.UpdateResult, error)

// Call holds the optional arguments of an update-style operation as the
// caller supplied them. A nil field is absent.
type Call struct {
	Conditions filter.Conditions
	Doc        *datastore.Patch
	Options    *storagemodels.UpdateOptions
	Callback   CallbackFunc
}

// Args is the canonical form of a Call.
type Args struct {
	Conditions filter.Conditions
	Doc        *datastore.Patch
	Options    *storagemodels.UpdateOptions
	Callback   CallbackFunc
	// Shape names the recognized call shape, e.g. "(conditions,doc,callback)".
	Shape string
}

const (
	slotConditions = "conditions"
	slotDoc        = "doc"
	slotOptions    = "options"
	slotCallback   = "callback"
)

// Normalize resolves a Call into canonical arguments:
//
//	(conditions, doc, callback)           callback shifts into the options slot
//	(doc, callback)                       conditions become {}
//	(callback)
//	(doc)
//	(conditions, doc, options, callback)  positional
//
// A call that leaves an interior gap, or supplies nothing, is rejected.
func Normalize(c Call) (Args, error) {
	a := Args{
		Conditions: c.Conditions,
		Doc:        c.Doc,
		Options:    c.Options,
		Callback:   once(c.Callback),
	}
	hasCond, hasDoc, hasOpts, hasCb := c.Conditions != nil, c.Doc != nil, c.Options != nil, c.Callback != nil

	switch {
	case hasCond && hasDoc && hasCb && !hasOpts:
	case !hasCond && hasDoc && hasCb && !hasOpts:
		a.Conditions = filter.Conditions{}
	case !hasCond && !hasDoc && !hasOpts && hasCb:
	case !hasCond && hasDoc && !hasOpts && !hasCb:
	default:
		if !hasCond && !hasDoc && !hasOpts && !hasCb {
			return Args{}, errors.NewArgumentShapeError("()", "no arguments supplied")
		}
		present := []bool{hasCond, hasDoc, hasOpts, hasCb}
		last := 0
		for i, p := range present {
			if p {
				last = i
			}
		}
		for i := 0; i < last; i++ {
			if !present[i] {
				return Args{}, errors.NewArgumentShapeError(shapeOf(present), "missing "+slotNames[i])
			}
		}
	}

	a.Shape = a.shape()
	return a, nil
}

// NormalizeForMutation normalizes c and additionally requires conditions to
// inject into and a document to apply.
func NormalizeForMutation(c Call) (Args, error) {
	a, err := Normalize(c)
	if err != nil {
		return Args{}, err
	}
	if a.Conditions == nil {
		return Args{}, errors.NewArgumentShapeError(a.Shape, "update requires conditions")
	}
	if a.Doc == nil {
		return Args{}, errors.NewArgumentShapeError(a.Shape, "update requires a document")
	}
	return a, nil
}

// Positions returns the present arguments in canonical order without gaps.
// Elements are filter.Conditions, *datastore.Patch,
// *storagemodels.UpdateOptions and CallbackFunc.
func (a Args) Positions() []any {
	var out []any
	if a.Conditions != nil {
		out = append(out, a.Conditions)
	}
	if a.Doc != nil {
		out = append(out, a.Doc)
	}
	if a.Options != nil {
		out = append(out, a.Options)
	}
	if a.Callback != nil {
		out = append(out, a.Callback)
	}
	return out
}

// UpdateOptions returns the supplied options or the zero value.
func (a Args) UpdateOptions() storagemodels.UpdateOptions {
	if a.Options == nil {
		return storagemodels.UpdateOptions{}
	}
	return *a.Options
}

// Patch returns the supplied document or an empty patch.
func (a Args) Patch() datastore.Patch {
	if a.Doc == nil {
		return datastore.Patch{}
	}
	return *a.Doc
}

// Done reports the outcome to the callback, if any. The callback runs at
// most once however often Done is called.
func (a Args) Done(res storagemodels.UpdateResult, err error) {
	if a.Callback != nil {
		a.Callback(res, err)
	}
}

func (a Args) shape() string {
	return shapeOf([]bool{a.Conditions != nil, a.Doc != nil, a.Options != nil, a.Callback != nil})
}

var slotNames = []string{slotConditions, slotDoc, slotOptions, slotCallback}

func shapeOf(present []bool) string {
	var parts []string
	for i, p := range present {
		if p {
			parts = append(parts, slotNames[i])
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func once(cb CallbackFunc) CallbackFunc {
	if cb == nil {
		return nil
	}
	var o sync.Once
	return func(res storagemodels.UpdateResult, err error) {
		o.Do(func() { cb(res, err) })
	}
}
