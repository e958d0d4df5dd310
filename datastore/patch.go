/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"sort"

	"github.com/suparena/softdelete/filter"
)

// Patch describes an update: fields to assign and fields to remove.
type Patch struct {
	Set   map[string]any
	Unset []string
}

// SetFields builds a patch that only assigns.
func SetFields(fields map[string]any) *Patch {
	return &Patch{Set: fields}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Set) == 0 && len(p.Unset) == 0
}

// SetKeys returns the assigned fields in sorted order.
func (p Patch) SetKeys() []string {
	keys := make([]string, 0, len(p.Set))
	for k := range p.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply mutates doc in place. Unset runs after Set, so a field named in both
// ends up absent.
func (p Patch) Apply(doc Document) {
	for k, v := range p.Set {
		doc[k] = v
	}
	for _, k := range p.Unset {
		delete(doc, k)
	}
}

// UpsertDocument builds the document inserted when an upsert matches
// nothing: plain equality conditions seed it, then the patch applies.
func UpsertDocument(conds filter.Conditions, patch Patch) Document {
	doc := Document{}
	for _, field := range conds.Fields() {
		if e := conds.Expr(field); e.Op == filter.OpEq {
			doc[field] = e.Value
		}
	}
	patch.Apply(doc)
	return doc
}
