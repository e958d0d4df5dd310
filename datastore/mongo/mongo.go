/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Store implements datastore.Store on a MongoDB collection.
type Store struct {
	coll   *driver.Collection
	schema *datastore.Schema
	log    zerolog.Logger
}

var _ datastore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithIDType changes the identifier type. The default is ObjectID.
func WithIDType(t datastore.FieldType) Option {
	return func(s *Store) {
		s.schema = datastore.NewSchema(t)
	}
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*driver.Client, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// New wraps coll.
func New(coll *driver.Collection, opts ...Option) *Store {
	s := &Store{
		coll:   coll,
		schema: datastore.NewSchema(datastore.TypeObjectID),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("collection", coll.Name()).Logger()
	return s
}

func (s *Store) Name() string {
	return s.coll.Name()
}

func (s *Store) Schema() *datastore.Schema {
	return s.schema
}

// Collection exposes the driver collection.
func (s *Store) Collection() *driver.Collection {
	return s.coll
}

// Count counts matching documents.
func (s *Store) Count(ctx context.Context, q *datastore.Query) (int64, error) {
	opts := options.Count()
	if q.Options.Skip > 0 {
		opts.SetSkip(q.Options.Skip)
	}
	if q.Options.Limit > 0 {
		opts.SetLimit(q.Options.Limit)
	}
	n, err := s.coll.CountDocuments(ctx, s.match(q), opts)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// Find returns matching documents.
func (s *Store) Find(ctx context.Context, q *datastore.Query) ([]datastore.Document, error) {
	cursor, err := s.coll.Find(ctx, s.match(q), findOptions(q.Options))
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	docs := make([]datastore.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

// FindOne returns the first matching document.
func (s *Store) FindOne(ctx context.Context, q *datastore.Query) (datastore.Document, error) {
	opts := options.FindOne()
	if sort := sortSpec(q.Options); len(sort) > 0 {
		opts.SetSort(sort)
	}
	if q.Options.Skip > 0 {
		opts.SetSkip(q.Options.Skip)
	}

	var m bson.M
	err := s.coll.FindOne(ctx, s.match(q), opts).Decode(&m)
	if stderrors.Is(err, driver.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(s.Name(), q.Filter.String())
	}
	if err != nil {
		return nil, fmt.Errorf("findOne failed: %w", err)
	}
	return toDocument(m), nil
}

// Update patches the first match, or every match with opts.Multi. An upsert
// inserts through Insert so that schema defaults and hooks run.
func (s *Store) Update(ctx context.Context, conds filter.Conditions, patch datastore.Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error) {
	patch, err := s.schema.CastPatch(patch)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}
	update, err := updateDocument(patch)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}

	var res *driver.UpdateResult
	if opts.Multi {
		res, err = s.coll.UpdateMany(ctx, s.where(conds), update)
	} else {
		res, err = s.coll.UpdateOne(ctx, s.where(conds), update)
	}
	if err != nil {
		return storagemodels.UpdateResult{}, fmt.Errorf("update failed: %w", err)
	}

	result := storagemodels.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}
	if result.Matched == 0 && opts.Upsert {
		doc, err := s.Insert(ctx, datastore.UpsertDocument(conds, patch))
		if err != nil {
			return result, err
		}
		result.UpsertedID, _ = doc.ID()
	}
	return result, nil
}

// FindOneAndUpdate patches the first match and returns it after the update.
func (s *Store) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	patch, err := s.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}
	return s.findOneAndUpdate(ctx, s.where(conds), conds.String(), patch)
}

// FindByIDAndUpdate patches the document with the given identifier.
func (s *Store) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	patch, err := s.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}
	id, err = s.castID(id)
	if err != nil {
		return nil, err
	}
	return s.findOneAndUpdate(ctx, bson.M{datastore.IDField: id}, fmt.Sprint(id), patch)
}

func (s *Store) findOneAndUpdate(ctx context.Context, f bson.M, key string, patch datastore.Patch) (datastore.Document, error) {
	update, err := updateDocument(patch)
	if err != nil {
		return nil, err
	}

	var m bson.M
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.coll.FindOneAndUpdate(ctx, f, update, opts).Decode(&m)
	if stderrors.Is(err, driver.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(s.Name(), key)
	}
	if err != nil {
		return nil, fmt.Errorf("findOneAndUpdate failed: %w", err)
	}
	return toDocument(m), nil
}

// Insert stores a new document, generating an identifier of the schema's
// identifier type when missing.
func (s *Store) Insert(ctx context.Context, doc datastore.Document) (datastore.Document, error) {
	doc = doc.Clone()
	if doc == nil {
		doc = datastore.Document{}
	}
	if _, ok := doc.ID(); !ok {
		doc[datastore.IDField] = s.newID()
	}
	if err := s.schema.PrepareInsert(ctx, doc); err != nil {
		return nil, err
	}

	if _, err := s.coll.InsertOne(ctx, map[string]any(doc)); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return nil, errors.NewAlreadyExistsError(s.Name(), doc.IDString())
		}
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return doc, nil
}

// Replace overwrites the stored document with the same identifier.
func (s *Store) Replace(ctx context.Context, doc datastore.Document) error {
	id, ok := doc.ID()
	if !ok {
		return errors.NewValidationError(datastore.IDField, "document has no identifier")
	}
	stored := doc.Clone()
	for k, v := range stored {
		cast, err := s.schema.Cast(k, v)
		if err != nil {
			return err
		}
		stored[k] = cast
	}
	id, err := s.castID(id)
	if err != nil {
		return err
	}
	stored[datastore.IDField] = id

	res, err := s.coll.ReplaceOne(ctx, bson.M{datastore.IDField: id}, map[string]any(stored))
	if err != nil {
		return fmt.Errorf("replace failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.NewNotFoundError(s.Name(), doc.IDString())
	}
	return nil
}

// EnsureIndexes creates an ascending single-field index per indexed schema
// field.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	fields := s.schema.IndexedFields()
	if len(fields) == 0 {
		return nil
	}
	models := make([]driver.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, driver.IndexModel{Keys: bson.D{{Key: f.Name, Value: 1}}})
	}
	names, err := s.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	s.log.Info().Strs("indexes", names).Msg("ensured indexes")
	return nil
}

func (s *Store) newID() any {
	switch s.schema.IDType() {
	case datastore.TypeObjectID:
		return primitive.NewObjectID()
	default:
		return uuid.NewString()
	}
}

func (s *Store) castID(id any) (any, error) {
	return datastore.CastValue(datastore.IDField, s.schema.IDType(), id)
}

func toDocument(m bson.M) datastore.Document {
	return datastore.Document(datastore.NormalizeBSON(m).(map[string]any))
}
