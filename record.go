/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"context"
	"time"

	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
)

// Record is a single document bound to its collection.
type Record struct {
	c         *Collection
	doc       datastore.Document
	persisted bool
}

// NewRecord creates a record that has not been persisted yet.
func (c *Collection) NewRecord(doc datastore.Document) *Record {
	if doc == nil {
		doc = datastore.Document{}
	}
	return &Record{c: c, doc: doc}
}

// Wrap binds an already stored document, e.g. a Find result, to c.
func (c *Collection) Wrap(doc datastore.Document) *Record {
	return &Record{c: c, doc: doc, persisted: true}
}

// Document returns the record's fields.
func (r *Record) Document() datastore.Document {
	return r.doc
}

// ID returns the record identifier, if assigned.
func (r *Record) ID() (any, bool) {
	return r.doc.ID()
}

// Get returns a field value.
func (r *Record) Get(field string) (any, bool) {
	return r.doc.Get(field)
}

// Set assigns a field value. The change is persisted by Save.
func (r *Record) Set(field string, value any) {
	r.doc[field] = value
}

// IsNew reports whether the record has never been saved.
func (r *Record) IsNew() bool {
	return !r.persisted
}

// IsDeleted reports whether the record is flagged as deleted.
func (r *Record) IsDeleted() bool {
	v, _ := r.doc[config.FieldDeleted].(bool)
	return v
}

// DeletedAt returns the deletion time, if set.
func (r *Record) DeletedAt() (time.Time, bool) {
	t, ok := r.doc[config.FieldDeletedAt].(time.Time)
	return t, ok
}

// Save inserts the record on first save and replaces it afterwards.
func (r *Record) Save(ctx context.Context) error {
	start := time.Now()
	if !r.persisted {
		doc, err := r.c.store.Insert(ctx, r.doc)
		r.c.observe("insert", All, start, err)
		if err != nil {
			return err
		}
		r.doc = doc
		r.persisted = true
		return nil
	}

	err := r.c.store.Replace(ctx, r.doc)
	r.c.observe("replace", All, start, err)
	return err
}

// Delete flags the record as deleted and saves it. The record is left
// unchanged if the save fails.
func (r *Record) Delete(ctx context.Context, actor any) error {
	if err := r.saveWith(ctx, r.c.deletePatch(actor)); err != nil {
		return err
	}
	r.c.metrics.RecordDeleted(r.c.Name(), 1)
	return nil
}

// Restore clears the deletion fields and saves the record. The record is
// left unchanged if the save fails.
func (r *Record) Restore(ctx context.Context) error {
	if err := r.saveWith(ctx, restorePatch()); err != nil {
		return err
	}
	r.c.metrics.RecordRestored(r.c.Name(), 1)
	return nil
}

func (r *Record) saveWith(ctx context.Context, patch datastore.Patch) error {
	prev := r.doc
	next := prev.Clone()
	patch.Apply(next)
	r.doc = next
	if err := r.Save(ctx); err != nil {
		r.doc = prev
		return err
	}
	return nil
}
