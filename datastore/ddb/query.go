/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
)

// scanInput compiles the query predicates, restricted to the collection's
// entity type, into a scan request.
func (d *Store) scanInput(preds ...filter.Conditions) (*sdk.ScanInput, error) {
	b := newExprBuilder()
	typed := filter.Conditions{EntityTypeAttribute: d.name}
	cond, err := b.condition(append([]filter.Conditions{typed}, preds...)...)
	if err != nil {
		return nil, err
	}
	return &sdk.ScanInput{
		TableName:                 &d.tableName,
		FilterExpression:          aws.String(cond),
		ExpressionAttributeNames:  b.Names(),
		ExpressionAttributeValues: b.Values(),
	}, nil
}

// scanAll runs every page of a scan.
func (d *Store) scanAll(ctx context.Context, input *sdk.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := sdk.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

func (d *Store) decodeAll(items []map[string]types.AttributeValue) ([]datastore.Document, error) {
	docs := make([]datastore.Document, 0, len(items))
	for _, item := range items {
		doc, err := d.fromItem(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count counts matching items server-side.
func (d *Store) Count(ctx context.Context, q *datastore.Query) (int64, error) {
	input, err := d.scanInput(q.Predicates()...)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	var total int64
	paginator := sdk.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count error: %w", err)
		}
		total += int64(out.Count)
	}
	return total, nil
}

// Find scans for matching items. DynamoDB scans are unordered, so sort,
// skip and limit apply after the scan.
func (d *Store) Find(ctx context.Context, q *datastore.Query) ([]datastore.Document, error) {
	input, err := d.scanInput(q.Predicates()...)
	if err != nil {
		return nil, err
	}
	items, err := d.scanAll(ctx, input)
	if err != nil {
		return nil, err
	}
	docs, err := d.decodeAll(items)
	if err != nil {
		return nil, err
	}
	return datastore.SortAndPage(docs, q.Options), nil
}

// FindOne returns the first matching item.
func (d *Store) FindOne(ctx context.Context, q *datastore.Query) (datastore.Document, error) {
	docs, err := d.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError(d.name, q.Filter.String())
	}
	return docs[0], nil
}

// getByID fetches an item by identifier. Index maps whose keys need more
// than the identifier fall back to a scan.
func (d *Store) getByID(ctx context.Context, id any) (datastore.Document, map[string]types.AttributeValue, error) {
	probe := datastore.Document{datastore.IDField: id}
	if key, err := d.keyFor(probe); err == nil {
		out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
			TableName:      &d.tableName,
			Key:            key,
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("GetItem error: %w", err)
		}
		if out.Item == nil {
			return nil, nil, errors.NewNotFoundError(d.name, probe.IDString())
		}
		doc, err := d.fromItem(out.Item)
		return doc, key, err
	}

	doc, err := d.FindOne(ctx, datastore.NewQuery(filter.Conditions{datastore.IDField: id}))
	if err != nil {
		return nil, nil, err
	}
	key, err := d.keyFor(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build key: %w", err)
	}
	return doc, key, nil
}
