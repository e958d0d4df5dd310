/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/storagemodels"
)

// Stream iterates a cursor, fetching PageSize documents per batch.
func (s *Store) Stream(ctx context.Context, q *datastore.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	options := storagemodels.NewStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult[datastore.Document], options.BufferSize)

	go s.streamWorker(ctx, q, options, resultCh)

	return resultCh
}

func (s *Store) streamWorker(
	ctx context.Context,
	q *datastore.Query,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[datastore.Document],
) {
	defer close(resultCh)

	progress := storagemodels.StreamProgress{StartTime: time.Now()}
	send := func(r storagemodels.StreamResult[datastore.Document]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- r:
			return true
		}
	}

	findOpts := findOptions(q.Options)
	if options.PageSize > 0 {
		findOpts.SetBatchSize(options.PageSize)
	}
	cursor, err := s.coll.Find(ctx, s.match(q), findOpts)
	if err != nil {
		send(storagemodels.StreamResult[datastore.Document]{Error: fmt.Errorf("find failed: %w", err)})
		return
	}
	defer cursor.Close(context.Background())

	var index int64
	for cursor.Next(ctx) {
		meta := storagemodels.StreamMeta{
			Index:      index,
			PageNumber: options.PageOf(index),
			Timestamp:  time.Now(),
		}
		result := storagemodels.StreamResult[datastore.Document]{Meta: meta, Raw: cursor.Current}

		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			result.Error = fmt.Errorf("failed to decode document: %w", err)
			progress.Errors = append(progress.Errors, result.Error)
			if !options.SkipItemError(result.Error) {
				send(result)
				return
			}
		} else {
			result.Item = toDocument(m)
		}

		if !send(result) {
			return
		}
		index++
		progress.ItemsProcessed = index
		progress.PagesProcessed = meta.PageNumber
	}

	if err := cursor.Err(); err != nil && ctx.Err() == nil {
		send(storagemodels.StreamResult[datastore.Document]{
			Error: fmt.Errorf("cursor failed: %w", err),
			Meta:  storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
		})
	}

	options.Report(progress)
}
