/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package args

import (
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Doc builds the (doc) call.
func Doc(patch datastore.Patch) Call {
	return Call{Doc: &patch}
}

// DocCallback builds the (doc, callback) call.
func DocCallback(patch datastore.Patch, cb CallbackFunc) Call {
	return Call{Doc: &patch, Callback: cb}
}

// Callback builds the (callback) call.
func Callback(cb CallbackFunc) Call {
	return Call{Callback: cb}
}

// Where builds the (conditions, doc) call. Nil conditions match everything.
func Where(conds filter.Conditions, patch datastore.Patch) Call {
	if conds == nil {
		conds = filter.Conditions{}
	}
	return Call{Conditions: conds, Doc: &patch}
}

// WhereCallback builds the (conditions, doc, callback) call.
func WhereCallback(conds filter.Conditions, patch datastore.Patch, cb CallbackFunc) Call {
	c := Where(conds, patch)
	c.Callback = cb
	return c
}

// Full builds the positional (conditions, doc, options, callback) call. cb
// may be nil.
func Full(conds filter.Conditions, patch datastore.Patch, opts storagemodels.UpdateOptions, cb CallbackFunc) Call {
	c := Where(conds, patch)
	c.Options = &opts
	c.Callback = cb
	return c
}
