/*
Package softdelete flags records as deleted instead of removing them, and
filters every read and update so that deleted records stay out of sight
unless the caller asks for them.

A Collection wraps any datastore.Store. Each operation comes in three
visibilities:

  - Active (default): records whose deleted flag is not true
  - Deleted: records whose deleted flag is not false
  - All: every record

Attaching the layer declares deleted, deletedAt and optionally deletedBy on
the store's schema, and makes new records start with deleted=false.

Basic Usage:

	store := mock.New("articles")
	articles, _ := softdelete.New(store, config.Options{
	    DeletedBy:   true,
	    IndexFields: config.AllIndexFields(),
	})

	// Flag matching records
	articles.Delete(ctx, filter.Conditions{"status": "draft"}, "user123")

	// Reads skip them
	n, _ := articles.Count(ctx, nil)
	all, _ := articles.FindWithDeleted(ctx, nil)

	// Update-style operations accept the (conditions, doc, options, callback) shapes
	articles.Update(ctx, args.Where(filter.Conditions{"author": "ann"}, datastore.Patch{
	    Set: map[string]any{"pinned": true},
	}))

	// Bring them back
	articles.Restore(ctx, filter.Conditions{"status": "draft"})

Backends live under datastore/: mock (in-memory), ddb (DynamoDB), mongo
(MongoDB) and sqldoc (PostgreSQL and SQLite JSON documents).
*/
package softdelete
