/*
Package args canonicalizes the optional arguments of update-style operations.

Callers describe a call with named fields, or with one of the constructors:

	args.Doc(patch)                          // (doc)
	args.DocCallback(patch, cb)              // (doc, callback)
	args.Callback(cb)                        // (callback)
	args.Where(conds, patch)                 // (conditions, doc)
	args.WhereCallback(conds, patch, cb)     // (conditions, doc, callback)
	args.Full(conds, patch, opts, cb)        // (conditions, doc, options, callback)

Normalize maps the call to the canonical [conditions?, doc?, options?, callback?]
form. NormalizeForMutation also requires conditions, so that a visibility
predicate can be injected into them.
*/
package args
