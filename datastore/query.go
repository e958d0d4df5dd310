/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"sort"

	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Query is a read request: the caller's predicate plus any clauses composed
// on top of it. Clauses are ANDed with the filter; the filter map itself is
// never modified.
type Query struct {
	Filter  filter.Conditions
	Clauses []filter.Conditions
	Options storagemodels.FindOptions
}

// NewQuery starts a query from the caller's predicate.
func NewQuery(conds filter.Conditions, opts ...storagemodels.FindOption) *Query {
	return &Query{
		Filter:  conds,
		Options: storagemodels.NewFindOptions(opts...),
	}
}

// Where composes an additional clause.
func (q *Query) Where(c filter.Conditions) *Query {
	if len(c) > 0 {
		q.Clauses = append(q.Clauses, c)
	}
	return q
}

// Predicates returns the non-empty predicates, filter first.
func (q *Query) Predicates() []filter.Conditions {
	preds := make([]filter.Conditions, 0, len(q.Clauses)+1)
	if len(q.Filter) > 0 {
		preds = append(preds, q.Filter)
	}
	return append(preds, q.Clauses...)
}

// Match evaluates the query in memory.
func (q *Query) Match(doc Document) bool {
	return filter.MatchAll(doc, q.Predicates()...)
}

// Conditions flattens the query into one predicate for write paths. Fields
// constrained twice keep the clause's constraint.
func (q *Query) Conditions() filter.Conditions {
	out := q.Filter.Clone()
	for _, c := range q.Clauses {
		for k, v := range c {
			out[k] = v
		}
	}
	return out
}

// SortAndPage orders docs per the query options then applies skip and limit.
// Backends without native ordering use it after filtering.
func SortAndPage(docs []Document, opts storagemodels.FindOptions) []Document {
	if len(opts.Sort) > 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			for _, s := range opts.Sort {
				a, _ := docs[i].Get(s.Field)
				b, _ := docs[j].Get(s.Field)
				cmp, ok := filter.Compare(a, b)
				if !ok || cmp == 0 {
					continue
				}
				if s.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
			return false
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(docs)) {
			return docs[:0]
		}
		docs = docs[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(docs)) {
		docs = docs[:opts.Limit]
	}
	return docs
}
