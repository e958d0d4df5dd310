/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldoc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

var whereCases = []struct {
	name  string
	preds []filter.Conditions
}{
	{"active", []filter.Conditions{{"title": "x"}, {"deleted": filter.Ne(true)}}},
	{"deleted", []filter.Conditions{{"deleted": filter.Ne(false)}}},
	{"deleted_before", []filter.Conditions{{
		"deleted":   true,
		"deletedAt": filter.Lt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	}}},
	{"in_nin", []filter.Conditions{{"status": filter.In("a", "b"), "tag": filter.Nin("x")}}},
	{"exists_null", []filter.Conditions{{"deletedBy": filter.Exists(false), "note": nil}}},
	{"nested", []filter.Conditions{{"author.name": "ann"}}},
	{"empty_in", []filter.Conditions{{"status": filter.In()}}},
}

func TestWhereGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	for _, d := range []Dialect{Postgres(), SQLite()} {
		var b strings.Builder
		for _, tc := range whereCases {
			c := newCompiler(d)
			w, err := c.where(tc.preds...)
			require.NoError(t, err, tc.name)
			fmt.Fprintf(&b, "%s\n  WHERE %s\n  ARGS %v\n", tc.name, w, c.args)
		}
		g.Assert(t, d.Name()+"_where", []byte(b.String()))
	}
}

func TestWhereRejectsBadOperands(t *testing.T) {
	c := newCompiler(SQLite())
	_, err := c.where(filter.Conditions{"deleted": filter.Expr{Op: filter.OpExists, Value: "yes"}})
	assert.True(t, errors.IsValidationError(err))

	_, err = c.where(filter.Conditions{"title": filter.Expr{Op: "$regex", Value: "^a"}})
	assert.True(t, errors.IsValidationError(err))
}

func TestPaging(t *testing.T) {
	assert.Equal(t, "LIMIT -1 OFFSET 5", SQLite().Paging(0, 5))
	assert.Equal(t, "LIMIT 2 OFFSET 5", SQLite().Paging(2, 5))
	assert.Equal(t, "OFFSET 5", Postgres().Paging(0, 5))
	assert.Equal(t, "", Postgres().Paging(0, 0))
}

func TestFieldQuoting(t *testing.T) {
	assert.Equal(t, `json_extract(doc, '$."first name"')`, SQLite().Field("first name"))
	assert.Equal(t, `doc->'it''s'`, Postgres().Field("it's"))
	assert.Equal(t, "articles_author_name_idx", indexName("articles", "author.name"))
}

func newSQLiteStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, SQLite(), "articles")
	require.NoError(t, s.Schema().Add(datastore.Field{
		Name: "deleted", Type: datastore.TypeBoolean, Default: false, HasDefault: true, Index: true,
	}))
	require.NoError(t, s.Schema().Add(datastore.Field{Name: "deletedAt", Type: datastore.TypeDate, Index: true}))
	require.NoError(t, s.CreateTable(context.Background()))
	return s, db
}

// seed inserts a, b (deleted) and a legacy row written without the flag.
func seed(t *testing.T, s *Store, db *sql.DB) time.Time {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := s.Insert(ctx, datastore.Document{"_id": "a", "title": "x", "rank": 1})
	require.NoError(t, err)
	_, err = s.Insert(ctx, datastore.Document{"_id": "b", "title": "x", "rank": 2, "deleted": true, "deletedAt": at})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "articles" (id, doc) VALUES (?, ?)`, "legacy", `{"_id":"legacy","title":"y","rank":3}`)
	require.NoError(t, err)
	return at
}

func ids(docs []datastore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.IDString())
	}
	return out
}

func TestSQLiteVisibility(t *testing.T) {
	s, db := newSQLiteStore(t)
	at := seed(t, s, db)
	ctx := context.Background()

	active, err := s.Find(ctx, datastore.NewQuery(nil).Where(filter.Conditions{"deleted": filter.Ne(true)}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "legacy"}, ids(active))
	assert.Equal(t, false, active[0]["deleted"])

	deleted, err := s.Find(ctx, datastore.NewQuery(filter.Conditions{"title": "x"}).
		Where(filter.Conditions{"deleted": filter.Ne(false)}))
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(deleted))
	got, ok := deleted[0]["deletedAt"].(time.Time)
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	before, err := s.Count(ctx, datastore.NewQuery(filter.Conditions{
		"deletedAt": filter.Lt(at.Add(time.Second)),
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), before)
}

func TestSQLiteFindOrdering(t *testing.T) {
	s, db := newSQLiteStore(t)
	seed(t, s, db)
	ctx := context.Background()

	docs, err := s.Find(ctx, datastore.NewQuery(nil, storagemodels.WithSort("rank", false), storagemodels.WithSkip(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(docs))

	n, err := s.Count(ctx, datastore.NewQuery(nil, storagemodels.WithLimit(2)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.FindOne(ctx, datastore.NewQuery(filter.Conditions{"title": "none"}))
	assert.True(t, errors.IsNotFound(err))
}

func TestSQLiteInsertDuplicate(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	doc, err := s.Insert(ctx, datastore.Document{"title": "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.IDString())

	_, err = s.Insert(ctx, datastore.Document{"_id": doc.IDString()})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestSQLiteUpdate(t *testing.T) {
	s, db := newSQLiteStore(t)
	seed(t, s, db)
	ctx := context.Background()
	patch := datastore.Patch{Set: map[string]any{"deleted": true, "deletedBy": "ann"}}

	res, err := s.Update(ctx, filter.Conditions{"title": "x"}, patch, storagemodels.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)

	res, err = s.Update(ctx, filter.Conditions{"deleted": filter.Ne(true)}, patch, storagemodels.UpdateOptions{Multi: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched, "a was already patched")

	n, err := s.Count(ctx, datastore.NewQuery(filter.Conditions{"deletedBy": "ann"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	res, err = s.Update(ctx, filter.Conditions{"title": "z"}, patch, storagemodels.UpdateOptions{Upsert: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Matched)
	require.NotNil(t, res.UpsertedID)

	upserted, err := s.FindOne(ctx, datastore.NewQuery(filter.Conditions{"_id": res.UpsertedID}))
	require.NoError(t, err)
	assert.Equal(t, "z", upserted["title"])
	assert.Equal(t, true, upserted["deleted"])

	_, err = s.Update(ctx, filter.Conditions{"title": "x"}, datastore.Patch{}, storagemodels.UpdateOptions{})
	assert.Error(t, err)
}

func TestSQLiteFindOneAndUpdate(t *testing.T) {
	s, db := newSQLiteStore(t)
	seed(t, s, db)
	ctx := context.Background()

	doc, err := s.FindOneAndUpdate(ctx, filter.Conditions{"_id": "b"},
		datastore.Patch{Set: map[string]any{"deleted": false}, Unset: []string{"deletedAt"}})
	require.NoError(t, err)
	assert.Equal(t, false, doc["deleted"])
	assert.NotContains(t, doc, "deletedAt")

	doc, err = s.FindByIDAndUpdate(ctx, "legacy", datastore.Patch{Set: map[string]any{"deleted": true}})
	require.NoError(t, err)
	assert.Equal(t, true, doc["deleted"])

	stored, err := s.FindOne(ctx, datastore.NewQuery(filter.Conditions{"_id": "legacy"}))
	require.NoError(t, err)
	assert.Equal(t, true, stored["deleted"])

	_, err = s.FindByIDAndUpdate(ctx, "missing", datastore.Patch{Set: map[string]any{"deleted": true}})
	assert.True(t, errors.IsNotFound(err))
}

func TestSQLiteReplace(t *testing.T) {
	s, db := newSQLiteStore(t)
	seed(t, s, db)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, datastore.Document{"_id": "a", "title": "replaced"}))
	doc, err := s.FindOne(ctx, datastore.NewQuery(filter.Conditions{"_id": "a"}))
	require.NoError(t, err)
	assert.Equal(t, "replaced", doc["title"])
	assert.NotContains(t, doc, "deleted")

	err = s.Replace(ctx, datastore.Document{"_id": "missing"})
	assert.True(t, errors.IsNotFound(err))
}

func TestSQLiteStream(t *testing.T) {
	s, db := newSQLiteStore(t)
	seed(t, s, db)

	var progress storagemodels.StreamProgress
	ch := s.Stream(context.Background(),
		datastore.NewQuery(nil).Where(filter.Conditions{"deleted": filter.Ne(true)}),
		storagemodels.WithPageSize(1),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = p }),
	)

	var got []string
	for r := range ch {
		require.NoError(t, r.Error)
		got = append(got, r.Item.IDString())
		assert.Equal(t, int(r.Meta.Index)+1, r.Meta.PageNumber)
	}
	assert.Equal(t, []string{"a", "legacy"}, got)
	assert.Equal(t, int64(2), progress.ItemsProcessed)
}

func TestSQLiteEnsureIndexes(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndexes(ctx))
	require.NoError(t, s.EnsureIndexes(ctx))

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = 'articles' AND name LIKE '%_idx'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
