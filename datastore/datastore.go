/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Store is a document collection. Read operations take a Query so callers
// can compose extra clauses without touching their own predicate; write
// operations take the predicate directly.
type Store interface {
	// Name is the collection name, used in errors and logs.
	Name() string

	// Schema exposes field augmentation and pre-persist hooks.
	Schema() *Schema

	Count(ctx context.Context, q *Query) (int64, error)

	Find(ctx context.Context, q *Query) ([]Document, error)

	// FindOne returns the first match or an errors.NotFoundError.
	FindOne(ctx context.Context, q *Query) (Document, error)

	Update(ctx context.Context, conds filter.Conditions, patch Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error)

	// FindOneAndUpdate patches the first match and returns it after the update.
	FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch Patch) (Document, error)

	FindByIDAndUpdate(ctx context.Context, id any, patch Patch) (Document, error)

	// Insert persists a new document. Schema defaults and pre-persist hooks run
	// first; a missing identifier is generated. The stored document is returned.
	Insert(ctx context.Context, doc Document) (Document, error)

	// Replace overwrites the stored document with the same identifier.
	Replace(ctx context.Context, doc Document) error

	Stream(ctx context.Context, q *Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[Document]

	// EnsureIndexes builds the indexes requested by the schema's index hints.
	EnsureIndexes(ctx context.Context) error
}
