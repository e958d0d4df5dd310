/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"context"
	"time"

	"github.com/suparena/softdelete/args"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// View runs operations on a collection under one visibility.
type View struct {
	c    *Collection
	mode Visibility
}

// View returns the operations of c under mode.
func (c *Collection) View(mode Visibility) View {
	return View{c: c, mode: mode}
}

// Visibility returns the view's visibility.
func (v View) Visibility() Visibility {
	return v.mode
}

func (v View) query(conds filter.Conditions, opts []storagemodels.FindOption) *datastore.Query {
	return datastore.NewQuery(conds, opts...).Where(v.mode.Clause())
}

// Count counts matching records. conds is not modified.
func (v View) Count(ctx context.Context, conds filter.Conditions) (int64, error) {
	start := time.Now()
	n, err := v.c.store.Count(ctx, v.query(conds, nil))
	v.c.observe("count", v.mode, start, err)
	return n, err
}

// Find returns matching records. conds is not modified.
func (v View) Find(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) ([]datastore.Document, error) {
	start := time.Now()
	docs, err := v.c.store.Find(ctx, v.query(conds, opts))
	v.c.observe("find", v.mode, start, err)
	return docs, err
}

// FindOne returns the first matching record, or a NotFoundError.
func (v View) FindOne(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) (datastore.Document, error) {
	start := time.Now()
	doc, err := v.c.store.FindOne(ctx, v.query(conds, opts))
	v.c.observe("findOne", v.mode, start, err)
	return doc, err
}

// Stream delivers matching records, sorted and paged by find, on a channel
// that closes when the store's stream ends. The operation is observed on
// close with the first error the stream delivered.
func (v View) Stream(ctx context.Context, conds filter.Conditions, find []storagemodels.FindOption, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	start := time.Now()
	in := v.c.store.Stream(ctx, v.query(conds, find), opts...)
	out := make(chan storagemodels.StreamResult[datastore.Document], cap(in))

	go func() {
		defer close(out)
		var firstErr error
		defer func() { v.c.observe("stream", v.mode, start, firstErr) }()

		for res := range in {
			if res.Error != nil && firstErr == nil {
				firstErr = res.Error
			}
			select {
			case out <- res:
			case <-ctx.Done():
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				return
			}
		}
	}()

	return out
}

// Update applies an update described by call. The visibility constraint is
// written into the call's conditions map before delegating, and the call's
// callback, if any, receives the outcome exactly once.
func (v View) Update(ctx context.Context, call args.Call) (storagemodels.UpdateResult, error) {
	start := time.Now()
	a, err := args.NormalizeForMutation(call)
	if err != nil {
		v.c.observe("update", v.mode, start, err)
		if call.Callback != nil {
			call.Callback(storagemodels.UpdateResult{}, err)
		}
		return storagemodels.UpdateResult{}, err
	}

	v.mode.inject(a.Conditions)
	res, err := v.c.store.Update(ctx, a.Conditions, a.Patch(), a.UpdateOptions())
	v.c.observe("update", v.mode, start, err)
	a.Done(res, err)
	return res, err
}

// FindOneAndUpdate patches the first matching record and returns it as
// updated. The visibility constraint is written into conds.
func (v View) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	start := time.Now()
	a, err := args.NormalizeForMutation(args.Where(conds, patch))
	if err != nil {
		v.c.observe("findOneAndUpdate", v.mode, start, err)
		return nil, err
	}

	v.mode.inject(a.Conditions)
	doc, err := v.c.store.FindOneAndUpdate(ctx, a.Conditions, a.Patch())
	v.c.observe("findOneAndUpdate", v.mode, start, err)
	return doc, err
}

// FindByIDAndUpdate patches the record with the given identifier if it is
// visible.
func (v View) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	start := time.Now()
	var (
		doc datastore.Document
		err error
	)
	if v.mode == All {
		doc, err = v.c.store.FindByIDAndUpdate(ctx, id, patch)
	} else {
		conds := filter.Conditions{datastore.IDField: id}
		v.mode.inject(conds)
		doc, err = v.c.store.FindOneAndUpdate(ctx, conds, patch)
	}
	v.c.observe("findByIdAndUpdate", v.mode, start, err)
	return doc, err
}

// Count counts records not flagged as deleted.
func (c *Collection) Count(ctx context.Context, conds filter.Conditions) (int64, error) {
	return c.View(Active).Count(ctx, conds)
}

// CountDeleted counts records flagged as deleted.
func (c *Collection) CountDeleted(ctx context.Context, conds filter.Conditions) (int64, error) {
	return c.View(Deleted).Count(ctx, conds)
}

// CountWithDeleted counts all records.
func (c *Collection) CountWithDeleted(ctx context.Context, conds filter.Conditions) (int64, error) {
	return c.View(All).Count(ctx, conds)
}

func (c *Collection) Find(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) ([]datastore.Document, error) {
	return c.View(Active).Find(ctx, conds, opts...)
}

func (c *Collection) FindDeleted(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) ([]datastore.Document, error) {
	return c.View(Deleted).Find(ctx, conds, opts...)
}

func (c *Collection) FindWithDeleted(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) ([]datastore.Document, error) {
	return c.View(All).Find(ctx, conds, opts...)
}

func (c *Collection) FindOne(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) (datastore.Document, error) {
	return c.View(Active).FindOne(ctx, conds, opts...)
}

func (c *Collection) FindOneDeleted(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) (datastore.Document, error) {
	return c.View(Deleted).FindOne(ctx, conds, opts...)
}

func (c *Collection) FindOneWithDeleted(ctx context.Context, conds filter.Conditions, opts ...storagemodels.FindOption) (datastore.Document, error) {
	return c.View(All).FindOne(ctx, conds, opts...)
}

// Update updates records not flagged as deleted.
func (c *Collection) Update(ctx context.Context, call args.Call) (storagemodels.UpdateResult, error) {
	return c.View(Active).Update(ctx, call)
}

// UpdateDeleted updates records flagged as deleted.
func (c *Collection) UpdateDeleted(ctx context.Context, call args.Call) (storagemodels.UpdateResult, error) {
	return c.View(Deleted).Update(ctx, call)
}

// UpdateWithDeleted updates any record.
func (c *Collection) UpdateWithDeleted(ctx context.Context, call args.Call) (storagemodels.UpdateResult, error) {
	return c.View(All).Update(ctx, call)
}

func (c *Collection) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	return c.View(Active).FindOneAndUpdate(ctx, conds, patch)
}

func (c *Collection) FindOneAndUpdateDeleted(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	return c.View(Deleted).FindOneAndUpdate(ctx, conds, patch)
}

func (c *Collection) FindOneAndUpdateWithDeleted(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	return c.View(All).FindOneAndUpdate(ctx, conds, patch)
}

func (c *Collection) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	return c.View(Active).FindByIDAndUpdate(ctx, id, patch)
}

func (c *Collection) FindByIDAndUpdateDeleted(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	return c.View(Deleted).FindByIDAndUpdate(ctx, id, patch)
}

func (c *Collection) FindByIDAndUpdateWithDeleted(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	return c.View(All).FindByIDAndUpdate(ctx, id, patch)
}

func (c *Collection) Stream(ctx context.Context, conds filter.Conditions, find []storagemodels.FindOption, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	return c.View(Active).Stream(ctx, conds, find, opts...)
}

func (c *Collection) StreamDeleted(ctx context.Context, conds filter.Conditions, find []storagemodels.FindOption, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	return c.View(Deleted).Stream(ctx, conds, find, opts...)
}

func (c *Collection) StreamWithDeleted(ctx context.Context, conds filter.Conditions, find []storagemodels.FindOption, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	return c.View(All).Stream(ctx, conds, find, opts...)
}
