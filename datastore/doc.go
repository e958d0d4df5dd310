/*
Package datastore defines the document-collection contract the soft-delete
layer delegates to.

The main interface is Store:

	type Store interface {
	    Name() string
	    Schema() *Schema
	    Count(ctx context.Context, q *Query) (int64, error)
	    Find(ctx context.Context, q *Query) ([]Document, error)
	    FindOne(ctx context.Context, q *Query) (Document, error)
	    Update(ctx context.Context, conds filter.Conditions, patch Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error)
	    FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch Patch) (Document, error)
	    FindByIDAndUpdate(ctx context.Context, id any, patch Patch) (Document, error)
	    Insert(ctx context.Context, doc Document) (Document, error)
	    Replace(ctx context.Context, doc Document) error
	    Stream(ctx context.Context, q *Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[Document]
	    EnsureIndexes(ctx context.Context) error
	}

A Schema lets callers declare typed fields with defaults and index hints and
register hooks that run before a document's first persist.

Implementations:
  - mock: in-memory store for tests
  - ddb: DynamoDB single-table store
  - mongo: MongoDB collection
  - sqldoc: JSON document tables on PostgreSQL or SQLite
*/
package datastore
