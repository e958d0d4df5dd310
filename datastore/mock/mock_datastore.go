/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Store for testing
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Call records one request received by the mock.
type Call struct {
	Op      string
	Query   *datastore.Query
	Conds   filter.Conditions
	ID      any
	Patch   datastore.Patch
	Options storagemodels.UpdateOptions
}

// Store is an in-memory datastore.Store. Documents keep insertion order.
type Store struct {
	mu      sync.RWMutex
	name    string
	schema  *datastore.Schema
	data    map[string]datastore.Document
	order   []string
	calls   []Call
	indexes []string

	findError   error
	countError  error
	updateError error
	insertError error
	streamFunc  func(ctx context.Context, q *datastore.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document]
}

var _ datastore.Store = (*Store)(nil)

// New creates an empty store. Generated identifiers are UUID strings.
func New(name string) *Store {
	return &Store{
		name:   name,
		schema: datastore.NewSchema(datastore.TypeString),
		data:   make(map[string]datastore.Document),
	}
}

// WithFindError makes Find, FindOne and Stream return an error
func (m *Store) WithFindError(err error) *Store {
	m.findError = err
	return m
}

// WithCountError makes Count return an error
func (m *Store) WithCountError(err error) *Store {
	m.countError = err
	return m
}

// WithUpdateError makes Update, FindOneAndUpdate, FindByIDAndUpdate and Replace return an error
func (m *Store) WithUpdateError(err error) *Store {
	m.updateError = err
	return m
}

// WithInsertError makes Insert return an error
func (m *Store) WithInsertError(err error) *Store {
	m.insertError = err
	return m
}

// WithStreamFunc sets a custom stream function for testing
func (m *Store) WithStreamFunc(f func(ctx context.Context, q *datastore.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document]) *Store {
	m.streamFunc = f
	return m
}

func (m *Store) Name() string {
	return m.name
}

func (m *Store) Schema() *datastore.Schema {
	return m.schema
}

// Count returns the number of matching documents
func (m *Store) Count(ctx context.Context, q *datastore.Query) (int64, error) {
	m.record(Call{Op: "count", Query: q})
	if m.countError != nil {
		return 0, m.countError
	}
	return int64(len(m.match(q))), nil
}

// Find returns matching documents, sorted and paged per the query options
func (m *Store) Find(ctx context.Context, q *datastore.Query) ([]datastore.Document, error) {
	m.record(Call{Op: "find", Query: q})
	if m.findError != nil {
		return nil, m.findError
	}
	return datastore.SortAndPage(m.match(q), q.Options), nil
}

// FindOne returns the first matching document
func (m *Store) FindOne(ctx context.Context, q *datastore.Query) (datastore.Document, error) {
	m.record(Call{Op: "findOne", Query: q})
	if m.findError != nil {
		return nil, m.findError
	}
	docs := datastore.SortAndPage(m.match(q), q.Options)
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError(m.name, q.Filter.String())
	}
	return docs[0], nil
}

// Update applies patch to the first matching document, or to all of them
// when opts.Multi is set.
func (m *Store) Update(ctx context.Context, conds filter.Conditions, patch datastore.Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error) {
	m.record(Call{Op: "update", Conds: conds.Clone(), Patch: patch, Options: opts})
	if m.updateError != nil {
		return storagemodels.UpdateResult{}, m.updateError
	}
	patch, err := m.schema.CastPatch(patch)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result storagemodels.UpdateResult
	for _, key := range m.order {
		doc := m.data[key]
		if !conds.Match(doc) {
			continue
		}
		patch.Apply(doc)
		result.Matched++
		result.Modified++
		if !opts.Multi {
			break
		}
	}

	if result.Matched == 0 && opts.Upsert {
		doc, err := m.insertLocked(ctx, datastore.UpsertDocument(conds, patch))
		if err != nil {
			return storagemodels.UpdateResult{}, err
		}
		result.UpsertedID, _ = doc.ID()
	}
	return result, nil
}

// FindOneAndUpdate patches the first matching document and returns it as
// updated.
func (m *Store) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	m.record(Call{Op: "findOneAndUpdate", Conds: conds.Clone(), Patch: patch})
	return m.findOneAndUpdate(ctx, conds, patch)
}

// FindByIDAndUpdate patches the document with the given identifier
func (m *Store) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	m.record(Call{Op: "findByIdAndUpdate", ID: id, Patch: patch})
	return m.findOneAndUpdate(ctx, filter.Conditions{datastore.IDField: id}, patch)
}

func (m *Store) findOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	patch, err := m.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range m.order {
		doc := m.data[key]
		if conds.Match(doc) {
			patch.Apply(doc)
			return doc.Clone(), nil
		}
	}
	return nil, errors.NewNotFoundError(m.name, conds.String())
}

// Insert stores a new document, assigning a UUID when it has no identifier
func (m *Store) Insert(ctx context.Context, doc datastore.Document) (datastore.Document, error) {
	m.record(Call{Op: "insert"})
	if m.insertError != nil {
		return nil, m.insertError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(ctx, doc.Clone())
}

func (m *Store) insertLocked(ctx context.Context, doc datastore.Document) (datastore.Document, error) {
	if doc == nil {
		doc = datastore.Document{}
	}
	if _, ok := doc.ID(); !ok {
		doc[datastore.IDField] = uuid.NewString()
	}
	key := doc.IDString()
	if _, exists := m.data[key]; exists {
		return nil, errors.NewAlreadyExistsError(m.name, key)
	}
	if err := m.schema.PrepareInsert(ctx, doc); err != nil {
		return nil, err
	}
	m.data[key] = doc
	m.order = append(m.order, key)
	return doc.Clone(), nil
}

// Replace overwrites a stored document by identifier
func (m *Store) Replace(ctx context.Context, doc datastore.Document) error {
	m.record(Call{Op: "replace"})
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := doc.ID(); !ok {
		return errors.NewValidationError(datastore.IDField, "document has no identifier")
	}

	stored := doc.Clone()
	for k, v := range stored {
		cast, err := m.schema.Cast(k, v)
		if err != nil {
			return err
		}
		stored[k] = cast
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := doc.IDString()
	if _, exists := m.data[key]; !exists {
		return errors.NewNotFoundError(m.name, key)
	}
	m.data[key] = stored
	return nil
}

// Stream returns a channel of matching documents
func (m *Store) Stream(ctx context.Context, q *datastore.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	m.record(Call{Op: "stream", Query: q})
	if m.streamFunc != nil {
		return m.streamFunc(ctx, q, opts...)
	}

	options := storagemodels.NewStreamOptions(opts...)
	resultChan := make(chan storagemodels.StreamResult[datastore.Document], options.BufferSize)

	go func() {
		defer close(resultChan)

		if m.findError != nil {
			select {
			case resultChan <- storagemodels.StreamResult[datastore.Document]{Error: m.findError}:
			case <-ctx.Done():
			}
			return
		}

		docs := datastore.SortAndPage(m.match(q), q.Options)
		progress := storagemodels.StreamProgress{StartTime: time.Now()}

		for i, doc := range docs {
			index := int64(i)
			select {
			case <-ctx.Done():
				return
			case resultChan <- storagemodels.StreamResult[datastore.Document]{
				Item: doc,
				Meta: storagemodels.StreamMeta{
					Index:      index,
					PageNumber: options.PageOf(index),
					Timestamp:  time.Now(),
				},
			}:
			}
			progress.ItemsProcessed++
			progress.PagesProcessed = options.PageOf(index)
		}

		options.Report(progress)
	}()

	return resultChan
}

// EnsureIndexes records the indexed schema fields
func (m *Store) EnsureIndexes(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexes = m.indexes[:0]
	for _, f := range m.schema.IndexedFields() {
		m.indexes = append(m.indexes, f.Name)
	}
	return nil
}

// Helper methods for testing

// Seed stores documents verbatim, bypassing defaults and hooks. Useful for
// records written before a field existed.
func (m *Store) Seed(docs ...datastore.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range docs {
		doc = doc.Clone()
		if _, ok := doc.ID(); !ok {
			doc[datastore.IDField] = uuid.NewString()
		}
		key := doc.IDString()
		if _, exists := m.data[key]; !exists {
			m.order = append(m.order, key)
		}
		m.data[key] = doc
	}
}

// Get returns a copy of the stored document
func (m *Store) Get(id any) (datastore.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[datastore.Document{datastore.IDField: id}.IDString()]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Documents returns copies of all stored documents in insertion order
func (m *Store) Documents() []datastore.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]datastore.Document, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.data[key].Clone())
	}
	return out
}

// Len returns the number of stored documents
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Calls returns the requests received so far
func (m *Store) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// LastCall returns the most recent request
func (m *Store) LastCall() (Call, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Indexes returns the fields indexed by the last EnsureIndexes
func (m *Store) Indexes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.indexes...)
}

// Clear removes all data and recorded calls
func (m *Store) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]datastore.Document)
	m.order = nil
	m.calls = nil
}

func (m *Store) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *Store) match(q *datastore.Query) []datastore.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []datastore.Document
	for _, key := range m.order {
		doc := m.data[key]
		if q.Match(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out
}
