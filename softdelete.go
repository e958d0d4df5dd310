/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/logger"
	"github.com/suparena/softdelete/metrics"
)

// Collection is a datastore.Store with soft-delete visibility applied to
// every operation. It holds no per-call state and is safe for concurrent use.
type Collection struct {
	store   datastore.Store
	opts    config.Options
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for operation logs.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Collection) {
		c.log = l
	}
}

// WithMetrics records operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collection) {
		c.metrics = m
	}
}

// WithClock replaces time.Now for deletedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) {
		c.now = now
	}
}

// New attaches the soft-delete layer to store. It declares the deleted,
// deletedAt and (optionally) deletedBy fields on the store's schema with the
// configured index hints, and registers a hook that initializes the deleted
// flag on first persist.
func New(store datastore.Store, opts config.Options, options ...Option) (*Collection, error) {
	if store == nil {
		return nil, fmt.Errorf("softdelete: store is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Collection{
		store: store,
		opts:  opts,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, o := range options {
		o(c)
	}
	c.log = c.log.With().Str("collection", store.Name()).Logger()

	schema := store.Schema()
	fields := []datastore.Field{
		{
			Name:       config.FieldDeleted,
			Type:       datastore.TypeBoolean,
			Default:    false,
			HasDefault: true,
			Index:      opts.IndexFields.Deleted,
		},
		{
			Name:  config.FieldDeletedAt,
			Type:  datastore.TypeDate,
			Index: opts.IndexFields.DeletedAt,
		},
	}
	if opts.DeletedBy {
		fields = append(fields, datastore.Field{
			Name:  config.FieldDeletedBy,
			Type:  deletedByType(opts.DeletedByType, schema.IDType()),
			Index: opts.IndexFields.DeletedBy,
		})
	}
	for _, f := range fields {
		if err := schema.Add(f); err != nil {
			return nil, err
		}
	}
	schema.PreInsert(initDeletedFlag)

	c.log.Debug().
		Bool("deletedBy", opts.DeletedBy).
		Interface("indexFields", opts.IndexFields).
		Msg("soft-delete layer attached")

	return c, nil
}

func initDeletedFlag(ctx context.Context, doc datastore.Document) error {
	if v, ok := doc[config.FieldDeleted]; !ok || v == nil {
		doc[config.FieldDeleted] = false
	}
	return nil
}

func deletedByType(name string, native datastore.FieldType) datastore.FieldType {
	switch name {
	case config.DeletedByObjectID:
		return datastore.TypeObjectID
	case config.DeletedByUUID:
		return datastore.TypeUUID
	case config.DeletedByString:
		return datastore.TypeString
	}
	return native
}

// Name is the underlying collection name.
func (c *Collection) Name() string {
	return c.store.Name()
}

// Store returns the wrapped store.
func (c *Collection) Store() datastore.Store {
	return c.store
}

// Options returns the options the layer was attached with.
func (c *Collection) Options() config.Options {
	return c.opts
}

// EnsureIndexes asks the store to build the indexes declared on its schema.
func (c *Collection) EnsureIndexes(ctx context.Context) error {
	start := time.Now()
	err := c.store.EnsureIndexes(ctx)
	c.observe("ensureIndexes", All, start, err)
	return err
}

func (c *Collection) observe(op string, v Visibility, start time.Time, err error) {
	d := time.Since(start)
	logger.LogOperation(c.log, op, v.String(), d, err)
	c.metrics.RecordOperation(op, v.String(), d, err)
}

func (c *Collection) hasField(name string) bool {
	_, ok := c.store.Schema().Path(name)
	return ok
}
