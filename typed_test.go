/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/softdelete"
	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/filter"
)

type article struct {
	ID     string   `bson:"_id,omitempty"`
	Title  string   `bson:"title"`
	Tags   []string `bson:"tags,omitempty"`
	Author struct {
		Name string `bson:"name"`
	} `bson:"author"`
	softdelete.Fields `bson:",inline"`
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newCollection(t, config.Options{DeletedBy: true})
	articles := softdelete.NewTyped[article](c)

	in := article{Title: "hello", Tags: []string{"a", "b"}}
	in.Author.Name = "ann"

	created, err := articles.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Deleted)
	assert.Equal(t, "ann", created.Author.Name)

	_, err = c.DeleteByID(ctx, created.ID, "mod")
	require.NoError(t, err)

	active, err := articles.Find(ctx, softdelete.Active, nil)
	require.NoError(t, err)
	assert.Empty(t, active)

	gone, err := articles.FindOne(ctx, softdelete.Deleted, filter.Conditions{"title": "hello"})
	require.NoError(t, err)
	assert.True(t, gone.Deleted)
	require.NotNil(t, gone.DeletedAt)
	assert.True(t, gone.DeletedAt.Equal(fixedNow))
	assert.Equal(t, "mod", gone.DeletedBy)
	assert.Equal(t, []string{"a", "b"}, gone.Tags)
}

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	oid := primitive.NewObjectID()

	doc, err := softdelete.Encode(struct {
		ID     primitive.ObjectID `bson:"_id"`
		When   time.Time          `bson:"when"`
		Nested map[string]any     `bson:"nested"`
		softdelete.Fields `bson:",inline"`
	}{ID: oid, When: at, Nested: map[string]any{"k": "v"}})
	require.NoError(t, err)

	assert.Equal(t, oid, doc["_id"])
	assert.Equal(t, at, doc["when"])
	assert.Equal(t, map[string]any{"k": "v"}, doc["nested"])
	assert.Equal(t, false, doc["deleted"])
	assert.NotContains(t, doc, "deletedAt")

	type withHexID struct {
		ID string `bson:"_id"`
	}
	decoded, err := softdelete.Decode[withHexID](datastore.Document{"_id": oid})
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), decoded.ID)
}
