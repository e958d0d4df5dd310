/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"context"

	"github.com/suparena/softdelete/args"
	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// deletePatch flags a record as deleted. deletedAt and deletedBy are only
// written when the schema declares them; a nil actor leaves deletedBy unset.
func (c *Collection) deletePatch(actor any) datastore.Patch {
	set := map[string]any{config.FieldDeleted: true}
	if c.hasField(config.FieldDeletedAt) {
		set[config.FieldDeletedAt] = c.now()
	}
	if actor != nil && c.hasField(config.FieldDeletedBy) {
		set[config.FieldDeletedBy] = actor
	}
	return datastore.Patch{Set: set}
}

func restorePatch() datastore.Patch {
	return datastore.Patch{
		Set:   map[string]any{config.FieldDeleted: false},
		Unset: []string{config.FieldDeletedAt, config.FieldDeletedBy},
	}
}

// Delete flags every record matching conds as deleted, whatever its current
// state. Nil conds match every record.
func (c *Collection) Delete(ctx context.Context, conds filter.Conditions, actor any) (storagemodels.UpdateResult, error) {
	res, err := c.View(All).Update(ctx, args.Full(conds, c.deletePatch(actor), storagemodels.UpdateOptions{Multi: true}, nil))
	if err == nil {
		c.metrics.RecordDeleted(c.Name(), res.Modified)
	}
	return res, err
}

// DeleteByID flags the active record with the given identifier as deleted
// and returns it.
func (c *Collection) DeleteByID(ctx context.Context, id any, actor any) (datastore.Document, error) {
	doc, err := c.View(Active).FindByIDAndUpdate(ctx, id, c.deletePatch(actor))
	if err == nil {
		c.metrics.RecordDeleted(c.Name(), 1)
	}
	return doc, err
}

// FindOneAndDelete flags the first active record matching conds as deleted
// and returns it.
func (c *Collection) FindOneAndDelete(ctx context.Context, conds filter.Conditions, actor any) (datastore.Document, error) {
	if conds == nil {
		conds = filter.Conditions{}
	}
	doc, err := c.View(Active).FindOneAndUpdate(ctx, conds, c.deletePatch(actor))
	if err == nil {
		c.metrics.RecordDeleted(c.Name(), 1)
	}
	return doc, err
}

// Restore clears the deleted flag, deletedAt and deletedBy on every record
// matching conds. Nil conds restore every record.
func (c *Collection) Restore(ctx context.Context, conds filter.Conditions) (storagemodels.UpdateResult, error) {
	res, err := c.View(All).Update(ctx, args.Full(conds, restorePatch(), storagemodels.UpdateOptions{Multi: true}, nil))
	if err == nil {
		c.metrics.RecordRestored(c.Name(), res.Modified)
	}
	return res, err
}

// RestoreByID restores the record with the given identifier and returns it.
func (c *Collection) RestoreByID(ctx context.Context, id any) (datastore.Document, error) {
	doc, err := c.View(All).FindByIDAndUpdate(ctx, id, restorePatch())
	if err == nil {
		c.metrics.RecordRestored(c.Name(), 1)
	}
	return doc, err
}
