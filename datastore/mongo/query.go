/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// toBSON translates conditions into a query document. Operators map
// one-to-one onto MongoDB's.
func toBSON(c filter.Conditions) bson.M {
	out := bson.M{}
	for _, field := range c.Fields() {
		switch v := c[field].(type) {
		case filter.Expr:
			out[field] = bson.M{string(v.Op): v.Value}
		case *filter.Expr:
			out[field] = bson.M{string(v.Op): v.Value}
		default:
			out[field] = v
		}
	}
	return out
}

// queryFilter ANDs the caller's filter with the composed clauses without
// merging them, so a clause never overrides the caller's constraint.
func queryFilter(q *datastore.Query) bson.M {
	return predicateFilter(q.Predicates())
}

func predicateFilter(preds []filter.Conditions) bson.M {
	switch len(preds) {
	case 0:
		return bson.M{}
	case 1:
		return toBSON(preds[0])
	}
	and := make(bson.A, 0, len(preds))
	for _, p := range preds {
		and = append(and, toBSON(p))
	}
	return bson.M{"$and": and}
}

// match is queryFilter with _id operands cast to the identifier type.
func (s *Store) match(q *datastore.Query) bson.M {
	preds := q.Predicates()
	for i, p := range preds {
		preds[i] = s.castIDs(p)
	}
	return predicateFilter(preds)
}

// where is toBSON with _id operands cast to the identifier type.
func (s *Store) where(c filter.Conditions) bson.M {
	return toBSON(s.castIDs(c))
}

// castIDs returns c with its _id operand converted to the schema's
// identifier type, so a hex string matches a stored ObjectID. Operands that
// do not convert are left as they are. c itself is not modified.
func (s *Store) castIDs(c filter.Conditions) filter.Conditions {
	v, ok := c[datastore.IDField]
	if !ok {
		return c
	}
	out := make(filter.Conditions, len(c))
	for k, x := range c {
		out[k] = x
	}
	out[datastore.IDField] = s.castIDOperand(v)
	return out
}

func (s *Store) castIDOperand(v any) any {
	switch e := v.(type) {
	case filter.Expr:
		if e.Op == filter.OpExists {
			return e
		}
		return filter.Expr{Op: e.Op, Value: s.castIDOperand(e.Value)}
	case *filter.Expr:
		if e == nil {
			return e
		}
		return s.castIDOperand(*e)
	case []any:
		out := make([]any, len(e))
		for i, x := range e {
			out[i] = s.castIDOperand(x)
		}
		return out
	case []string:
		out := make([]any, len(e))
		for i, x := range e {
			out[i] = s.castIDOperand(x)
		}
		return out
	}
	if id, err := s.castID(v); err == nil {
		return id
	}
	return v
}

func sortSpec(o storagemodels.FindOptions) bson.D {
	var sort bson.D
	for _, s := range o.Sort {
		dir := -1
		if s.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	return sort
}

func findOptions(o storagemodels.FindOptions) *options.FindOptions {
	opts := options.Find()
	if sort := sortSpec(o); len(sort) > 0 {
		opts.SetSort(sort)
	}
	if o.Skip > 0 {
		opts.SetSkip(o.Skip)
	}
	if o.Limit > 0 {
		opts.SetLimit(o.Limit)
	}
	return opts
}

// updateDocument builds {$set, $unset}. A field named in both is unset.
func updateDocument(p datastore.Patch) (bson.M, error) {
	if p.IsEmpty() {
		return nil, fmt.Errorf("no updates provided")
	}
	update := bson.M{}
	unset := bson.M{}
	for _, field := range p.Unset {
		unset[field] = ""
	}
	set := bson.M{}
	for k, v := range p.Set {
		if _, removed := unset[k]; !removed {
			set[k] = v
		}
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}
