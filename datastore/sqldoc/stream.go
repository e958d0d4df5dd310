/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldoc

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/storagemodels"
)

// Stream iterates the matching rows in query order.
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

	rows, err := s.query(ctx, s.db, q.Predicates(), q.Options, false)
	if err != nil {
		send(storagemodels.StreamResult[datastore.Document]{Error: err})
		return
	}
	defer rows.Close()

	var index int64
	for rows.Next() {
		meta := storagemodels.StreamMeta{
			Index:      index,
			PageNumber: options.PageOf(index),
			Timestamp:  time.Now(),
		}

		var text string
		err := rows.Scan(&text)
		result := storagemodels.StreamResult[datastore.Document]{Meta: meta, Raw: text}
		if err == nil {
			result.Item, err = s.decode(text)
		}
		if err != nil {
			result.Item = nil
			result.Error = fmt.Errorf("failed to read document: %w", err)
			progress.Errors = append(progress.Errors, result.Error)
			if !options.SkipItemError(result.Error) {
				send(result)
				return
			}
		}

		if !send(result) {
			return
		}
		index++
		progress.ItemsProcessed = index
		progress.PagesProcessed = meta.PageNumber
	}

	if err := rows.Err(); err != nil && ctx.Err() == nil {
		send(storagemodels.StreamResult[datastore.Document]{
			Error: fmt.Errorf("failed to read rows: %w", err),
			Meta:  storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
		})
	}

	options.Report(progress)
}
