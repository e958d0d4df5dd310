/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/storagemodels"
)

// Stream scans matching items page by page. Skip and limit apply; sort
// options are ignored and items arrive in scan order.
func (d *Store) Stream(ctx context.Context, q *datastore.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[datastore.Document] {
	options := storagemodels.NewStreamOptions(opts...)

	// Create buffered result channel
	resultCh := make(chan storagemodels.StreamResult[datastore.Document], options.BufferSize)

	input, err := d.scanInput(q.Predicates()...)
	if err != nil {
		go func() {
			defer close(resultCh)
			select {
			case resultCh <- storagemodels.StreamResult[datastore.Document]{Error: err}:
			case <-ctx.Done():
			}
		}()
		return resultCh
	}
	input.Limit = aws.Int32(options.PageSize)

	go d.streamWorker(ctx, input, q.Options, options, resultCh)

	return resultCh
}

// streamWorker handles the actual streaming logic
func (d *Store) streamWorker(
	ctx context.Context,
	input *sdk.ScanInput,
	page storagemodels.FindOptions,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[datastore.Document],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	skipped := int64(0)
	startTime := time.Now()
	var errs []error
	var mu sync.Mutex

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		progress := storagemodels.StreamProgress{
			ItemsProcessed: atomic.LoadInt64(&itemIndex),
			PagesProcessed: pageNumber,
			Errors:         errs,
			StartTime:      startTime,
		}
		if lastKey != nil {
			progress.LastKey = lastKey
		}
		options.Report(progress)
	}

	send := func(result storagemodels.StreamResult[datastore.Document]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- result:
			return true
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := d.scanWithRetry(ctx, input, options)
		if err != nil {
			stop := !options.RetryReadError(err)
			if stop {
				send(storagemodels.StreamResult[datastore.Document]{
					Error: fmt.Errorf("scan failed: %w", err),
					Meta: storagemodels.StreamMeta{
						Index:      atomic.LoadInt64(&itemIndex),
						PageNumber: pageNumber,
						Timestamp:  time.Now(),
					},
				})
				return
			}

			// A failed page has no cursor to resume from, so the error
			// handler only decides whether the stream ends with an error.
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}

		pageNumber++

		for _, item := range out.Items {
			if skipped < page.Skip {
				skipped++
				continue
			}
			if page.Limit > 0 && atomic.LoadInt64(&itemIndex) >= page.Limit {
				reportProgress(nil)
				return
			}

			result := d.processItem(item, atomic.LoadInt64(&itemIndex), pageNumber)
			atomic.AddInt64(&itemIndex, 1)
			if !send(result) {
				return
			}

			if result.Error != nil {
				mu.Lock()
				errs = append(errs, result.Error)
				mu.Unlock()
			}
		}

		reportProgress(out.LastEvaluatedKey)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	reportProgress(nil)
}

// scanWithRetry executes a scan with configurable retry logic
func (d *Store) scanWithRetry(
	ctx context.Context,
	input *sdk.ScanInput,
	options storagemodels.StreamOptions,
) (*sdk.ScanOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := d.client.Scan(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			d.log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying scan")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("scan failed after %d retries: %w", options.MaxRetries, lastErr)
}

// processItem converts a DynamoDB item to a document result
func (d *Store) processItem(
	item map[string]types.AttributeValue,
	index int64,
	pageNumber int,
) storagemodels.StreamResult[datastore.Document] {
	meta := storagemodels.StreamMeta{
		Index:      index,
		PageNumber: pageNumber,
		Timestamp:  time.Now(),
	}

	rawCopy := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		rawCopy[k] = v
	}

	doc, err := d.fromItem(item)
	if err != nil {
		return storagemodels.StreamResult[datastore.Document]{
			Error: err,
			Raw:   rawCopy,
			Meta:  meta,
		}
	}
	return storagemodels.StreamResult[datastore.Document]{
		Item: doc,
		Raw:  rawCopy,
		Meta: meta,
	}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	// Check for AWS SDK retryable errors
	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
