/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package backend opens the datastore.Store selected by the environment.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/datastore/ddb"
	"github.com/suparena/softdelete/datastore/mock"
	"github.com/suparena/softdelete/datastore/mongo"
	"github.com/suparena/softdelete/datastore/sqldoc"
	"github.com/suparena/softdelete/errors"
)

// CloseFunc releases the connection behind an opened store.
type CloseFunc func(ctx context.Context) error

func noClose(context.Context) error { return nil }

// Open connects to env.Backend and returns a store for collection.
func Open(ctx context.Context, env *config.Env, collection string, log zerolog.Logger) (datastore.Store, CloseFunc, error) {
	log = log.With().Str("backend", env.Backend).Logger()

	switch env.Backend {
	case config.BackendMemory:
		return mock.New(collection), noClose, nil

	case config.BackendDynamoDB:
		if env.DDBTable == "" {
			return nil, nil, errors.NewValidationError("DDB_TABLE_NAME", "table name is required")
		}
		client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
			AccessKey: env.AWSAccessKey,
			SecretKey: env.AWSSecretKey,
			Region:    env.AWSRegion,
			Endpoint:  env.AWSEndpoint,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return ddb.New(client, env.DDBTable, collection, ddb.WithLogger(log)), noClose, nil

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, env.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("database", env.MongoDatabase).Msg("connected to MongoDB")
		coll := client.Database(env.MongoDatabase).Collection(collection)
		return mongo.New(coll, mongo.WithLogger(log)), client.Disconnect, nil

	case config.BackendPostgres:
		if env.PostgresURL == "" {
			return nil, nil, errors.NewValidationError("POSTGRES_URL", "connection string is required")
		}
		db, err := sqldoc.OpenPostgres(ctx, env.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return openSQL(ctx, sqldoc.New(db, sqldoc.Postgres(), collection, sqldoc.WithLogger(log)), func(context.Context) error {
			return db.Close()
		})

	case config.BackendSQLite:
		db, err := sqldoc.OpenSQLite(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", env.SQLitePath).Msg("opened SQLite database")
		return openSQL(ctx, sqldoc.New(db, sqldoc.SQLite(), collection, sqldoc.WithLogger(log)), func(context.Context) error {
			return db.Close()
		})
	}

	return nil, nil, errors.NewValidationError("SOFTDELETE_BACKEND", fmt.Sprintf("unknown backend %q", env.Backend))
}

func openSQL(ctx context.Context, s *sqldoc.Store, closeFn CloseFunc) (datastore.Store, CloseFunc, error) {
	if err := s.CreateTable(ctx); err != nil {
		_ = closeFn(ctx)
		return nil, nil, err
	}
	return s, closeFn, nil
}
