/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// SortField orders results by a single document field.
type SortField struct {
	Field     string
	Ascending bool
}

// FindOptions defines paging and ordering for find-style operations.
type FindOptions struct {
	// Sort is applied in order; earlier fields take precedence.
	Sort []SortField
	// Limit caps the number of returned documents. Zero means no limit.
	Limit int64
	// Skip drops the first N matching documents.
	Skip int64
}

// FindOption is a functional option for configuring find operations
type FindOption func(*FindOptions)

// NewFindOptions applies opts over the zero value.
func NewFindOptions(opts ...FindOption) FindOptions {
	var o FindOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSort appends a sort key
func WithSort(field string, ascending bool) FindOption {
	return func(o *FindOptions) {
		o.Sort = append(o.Sort, SortField{Field: field, Ascending: ascending})
	}
}

// WithLimit sets the maximum number of documents returned
func WithLimit(limit int64) FindOption {
	return func(o *FindOptions) {
		o.Limit = limit
	}
}

// WithSkip sets the number of matching documents to skip
func WithSkip(skip int64) FindOption {
	return func(o *FindOptions) {
		o.Skip = skip
	}
}

// UpdateOptions controls how many documents an update touches.
type UpdateOptions struct {
	// Multi updates every matching document instead of the first one.
	Multi bool
	// Upsert inserts the patch as a new document when nothing matches.
	Upsert bool
}

// UpdateResult reports the outcome of an update.
type UpdateResult struct {
	Matched    int64
	Modified   int64
	UpsertedID any
}
