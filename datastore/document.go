/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"

	"github.com/suparena/softdelete/filter"
)

// IDField is the identifier field every backend keys documents by.
const IDField = "_id"

// Document is a stored record.
type Document map[string]any

// ID returns the document identifier, if set.
func (d Document) ID() (any, bool) {
	id, ok := d[IDField]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// IDString formats the identifier for logs and error messages.
func (d Document) IDString() string {
	id, ok := d.ID()
	if !ok {
		return ""
	}
	if s, ok := id.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(id)
}

// Get resolves a dotted path.
func (d Document) Get(path string) (any, bool) {
	return filter.Lookup(d, path)
}

// Has reports whether the top-level field is present.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Clone copies the document; nested documents and lists are copied too so
// that backends can hand out results without sharing state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}
