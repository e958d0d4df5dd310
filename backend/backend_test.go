/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/datastore/mock"
	"github.com/suparena/softdelete/datastore/sqldoc"
	"github.com/suparena/softdelete/errors"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, closeFn, err := Open(ctx, &config.Env{Backend: config.BackendMemory}, "articles", zerolog.Nop())
		require.NoError(t, err)
		defer closeFn(ctx)
		assert.IsType(t, &mock.Store{}, store)
		assert.Equal(t, "articles", store.Name())
	})

	t.Run("sqlite", func(t *testing.T) {
		env := &config.Env{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")}
		store, closeFn, err := Open(ctx, env, "articles", zerolog.Nop())
		require.NoError(t, err)
		defer closeFn(ctx)
		assert.IsType(t, &sqldoc.Store{}, store)

		doc, err := store.Insert(ctx, datastore.Document{"title": "x"})
		require.NoError(t, err)
		n, err := store.Count(ctx, datastore.NewQuery(nil))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NotEmpty(t, doc.IDString())
	})

	t.Run("missing settings", func(t *testing.T) {
		_, _, err := Open(ctx, &config.Env{Backend: config.BackendDynamoDB}, "articles", zerolog.Nop())
		assert.True(t, errors.IsValidationError(err))

		_, _, err = Open(ctx, &config.Env{Backend: config.BackendPostgres}, "articles", zerolog.Nop())
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := Open(ctx, &config.Env{Backend: "cassandra"}, "articles", zerolog.Nop())
		assert.True(t, errors.IsValidationError(err))
	})
}
