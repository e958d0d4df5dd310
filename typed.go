/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Fields carries the soft-delete fields. Embed it inline in record types:
//
//	type Article struct {
//	    ID    string `bson:"_id,omitempty"`
//	    Title string `bson:"title"`
//	    softdelete.Fields `bson:",inline"`
//	}
type Fields struct {
	Deleted   bool       `bson:"deleted" json:"deleted"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy any        `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
}

// Typed decodes a collection's documents into T using BSON struct tags.
type Typed[T any] struct {
	c *Collection
}

// NewTyped returns a typed facade over c.
func NewTyped[T any](c *Collection) *Typed[T] {
	return &Typed[T]{c: c}
}

// Collection returns the untyped collection.
func (t *Typed[T]) Collection() *Collection {
	return t.c
}

// Find returns the records visible under mode that match conds.
func (t *Typed[T]) Find(ctx context.Context, mode Visibility, conds filter.Conditions, opts ...storagemodels.FindOption) ([]T, error) {
	docs, err := t.c.View(mode).Find(ctx, conds, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FindOne returns the first record visible under mode that matches conds.
func (t *Typed[T]) FindOne(ctx context.Context, mode Visibility, conds filter.Conditions, opts ...storagemodels.FindOption) (T, error) {
	var zero T
	doc, err := t.c.View(mode).FindOne(ctx, conds, opts...)
	if err != nil {
		return zero, err
	}
	return Decode[T](doc)
}

// Create inserts v and returns it as stored, with defaults and identifier
// filled in.
func (t *Typed[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	doc, err := Encode(v)
	if err != nil {
		return zero, err
	}
	r := t.c.NewRecord(doc)
	if err := r.Save(ctx); err != nil {
		return zero, err
	}
	return Decode[T](r.Document())
}

// Encode converts a BSON-tagged struct into a document.
func Encode(v any) (datastore.Document, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return datastore.Document(datastore.NormalizeBSON(map[string]any(m)).(map[string]any)), nil
}

// Decode converts a document into T.
func Decode[T any](doc datastore.Document) (T, error) {
	var out T
	data, err := bson.Marshal(map[string]any(doc))
	if err != nil {
		return out, fmt.Errorf("failed to decode document %s: %w", doc.IDString(), err)
	}
	if err := bson.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode document %s into %T: %w", doc.IDString(), out, err)
	}
	return out, nil
}
