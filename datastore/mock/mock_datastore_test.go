/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/datastore/mock"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

func TestMockStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := mock.New("widgets")

		// Test Insert
		doc, err := store.Insert(ctx, datastore.Document{"_id": "123", "name": "Test"})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if doc.IDString() != "123" {
			t.Fatalf("Unexpected id: %v", doc.IDString())
		}

		// Test FindOne
		found, err := store.FindOne(ctx, datastore.NewQuery(filter.Conditions{"name": "Test"}))
		if err != nil {
			t.Fatalf("FindOne failed: %v", err)
		}
		if found["name"] != "Test" {
			t.Fatalf("Retrieved document mismatch: %+v", found)
		}

		// Test duplicate insert
		_, err = store.Insert(ctx, datastore.Document{"_id": "123"})
		if !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists error, got: %v", err)
		}

		// Test no match
		_, err = store.FindOne(ctx, datastore.NewQuery(filter.Conditions{"name": "Other"}))
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("GeneratedID", func(t *testing.T) {
		store := mock.New("widgets")
		doc, err := store.Insert(ctx, datastore.Document{"name": "NoID"})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if doc.IDString() == "" {
			t.Fatal("Expected a generated id")
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		store := mock.New("widgets")

		insertErr := errors.NewValidationError("name", "required")
		store.WithInsertError(insertErr)
		if _, err := store.Insert(ctx, datastore.Document{}); err != insertErr {
			t.Fatalf("Expected insert error, got: %v", err)
		}

		updateErr := errors.NewConditionFailedError("update", "version mismatch")
		store.WithUpdateError(updateErr)
		_, err := store.Update(ctx, filter.Conditions{}, datastore.Patch{Set: map[string]any{"a": 1}}, storagemodels.UpdateOptions{})
		if err != updateErr {
			t.Fatalf("Expected update error, got: %v", err)
		}

		countErr := errors.NewConditionFailedError("count", "unavailable")
		store.WithCountError(countErr)
		if _, err := store.Count(ctx, datastore.NewQuery(nil)); err != countErr {
			t.Fatalf("Expected count error, got: %v", err)
		}
	})

	t.Run("UpdateSingleAndMulti", func(t *testing.T) {
		store := mock.New("widgets")
		store.Seed(
			datastore.Document{"_id": "1", "color": "red"},
			datastore.Document{"_id": "2", "color": "red"},
			datastore.Document{"_id": "3", "color": "blue"},
		)

		patch := datastore.Patch{Set: map[string]any{"size": 10}}
		res, err := store.Update(ctx, filter.Conditions{"color": "red"}, patch, storagemodels.UpdateOptions{})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if res.Matched != 1 {
			t.Fatalf("Expected 1 match, got %d", res.Matched)
		}
		if doc, _ := store.Get("2"); doc.Has("size") {
			t.Fatal("Single update touched a second document")
		}

		res, err = store.Update(ctx, filter.Conditions{"color": "red"}, patch, storagemodels.UpdateOptions{Multi: true})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if res.Matched != 2 {
			t.Fatalf("Expected 2 matches, got %d", res.Matched)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		store := mock.New("widgets")
		res, err := store.Update(ctx,
			filter.Conditions{"sku": "A-1", "qty": filter.Gt(0)},
			datastore.Patch{Set: map[string]any{"qty": 5}},
			storagemodels.UpdateOptions{Upsert: true})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if res.UpsertedID == nil {
			t.Fatal("Expected an upserted id")
		}
		doc, ok := store.Get(res.UpsertedID)
		if !ok {
			t.Fatal("Upserted document not stored")
		}
		if doc["sku"] != "A-1" || doc["qty"] != 5 {
			t.Fatalf("Unexpected upserted document: %+v", doc)
		}
	})

	t.Run("FindOneAndUpdateReturnsUpdated", func(t *testing.T) {
		store := mock.New("widgets")
		store.Seed(datastore.Document{"_id": "1", "n": 1})

		doc, err := store.FindByIDAndUpdate(ctx, "1", datastore.Patch{Set: map[string]any{"n": 2}, Unset: []string{"missing"}})
		if err != nil {
			t.Fatalf("FindByIDAndUpdate failed: %v", err)
		}
		if doc["n"] != 2 {
			t.Fatalf("Expected updated value, got %v", doc["n"])
		}

		_, err = store.FindOneAndUpdate(ctx, filter.Conditions{"n": 99}, datastore.Patch{Set: map[string]any{"n": 3}})
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		store := mock.New("widgets")
		if err := store.Replace(ctx, datastore.Document{"_id": "nope"}); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		store.Seed(datastore.Document{"_id": "1", "a": 1, "b": 2})
		if err := store.Replace(ctx, datastore.Document{"_id": "1", "a": 3}); err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		doc, _ := store.Get("1")
		if doc.Has("b") || doc["a"] != 3 {
			t.Fatalf("Unexpected document after replace: %+v", doc)
		}
	})

	t.Run("SchemaDefaultsAndHooks", func(t *testing.T) {
		store := mock.New("widgets")
		if err := store.Schema().Add(datastore.Field{Name: "active", Type: datastore.TypeBoolean, Default: true, HasDefault: true, Index: true}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		var hookCalls int
		store.Schema().PreInsert(func(ctx context.Context, doc datastore.Document) error {
			hookCalls++
			return nil
		})

		doc, err := store.Insert(ctx, datastore.Document{"_id": "1"})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if doc["active"] != true || hookCalls != 1 {
			t.Fatalf("Defaults or hooks not applied: %+v, %d", doc, hookCalls)
		}

		if _, err := store.Insert(ctx, datastore.Document{"active": "yes"}); !errors.IsValidationError(err) {
			t.Fatalf("Expected validation error, got: %v", err)
		}

		if err := store.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes failed: %v", err)
		}
		if got := store.Indexes(); len(got) != 1 || got[0] != "active" {
			t.Fatalf("Unexpected indexes: %v", got)
		}
	})

	t.Run("FindWithClausesSortAndPage", func(t *testing.T) {
		store := mock.New("widgets")
		store.Seed(
			datastore.Document{"_id": "1", "rank": 3, "tag": "x"},
			datastore.Document{"_id": "2", "rank": 1, "tag": "x"},
			datastore.Document{"_id": "3", "rank": 2, "tag": "x"},
			datastore.Document{"_id": "4", "rank": 0, "tag": "y"},
		)

		q := datastore.NewQuery(filter.Conditions{"tag": "x"},
			storagemodels.WithSort("rank", true),
			storagemodels.WithSkip(1),
			storagemodels.WithLimit(1),
		).Where(filter.Conditions{"rank": filter.Lt(3)})

		docs, err := store.Find(ctx, q)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if len(docs) != 1 || docs[0].IDString() != "3" {
			t.Fatalf("Unexpected page: %+v", docs)
		}
	})

	t.Run("Stream", func(t *testing.T) {
		store := mock.New("widgets")
		for i := 0; i < 5; i++ {
			store.Seed(datastore.Document{"n": i})
		}

		streamCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		var progress storagemodels.StreamProgress
		resultChan := store.Stream(streamCtx, datastore.NewQuery(filter.Conditions{"n": filter.Gte(2)}),
			storagemodels.WithPageSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = p }),
		)
		count := 0
		for result := range resultChan {
			if result.Error != nil {
				t.Fatalf("Stream error: %v", result.Error)
			}
			count++
		}
		if count != 3 {
			t.Fatalf("Expected 3 streamed items, got %d", count)
		}
		if progress.ItemsProcessed != 3 || progress.PagesProcessed != 2 {
			t.Fatalf("Unexpected progress: %+v", progress)
		}
	})

	t.Run("CallsAreRecorded", func(t *testing.T) {
		store := mock.New("widgets")
		conds := filter.Conditions{"a": 1}
		_, _ = store.Update(ctx, conds, datastore.Patch{Set: map[string]any{"b": 2}}, storagemodels.UpdateOptions{Multi: true})

		call, ok := store.LastCall()
		if !ok || call.Op != "update" || !call.Options.Multi {
			t.Fatalf("Unexpected call: %+v", call)
		}
		if call.Conds["a"] != 1 {
			t.Fatalf("Conditions not recorded: %+v", call.Conds)
		}
	})
}
