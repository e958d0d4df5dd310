/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// updateItem patches the item at key, guarded by conds. It reports
// errors.ConditionFailedError when the item no longer matches.
func (d *Store) updateItem(ctx context.Context, key map[string]types.AttributeValue, conds filter.Conditions, patch datastore.Patch) (map[string]types.AttributeValue, error) {
	b := newExprBuilder()
	updateExpr, err := b.update(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}
	guard := filter.Conditions{"PK": filter.Exists(true)}
	cond, err := b.condition(guard, conds)
	if err != nil {
		return nil, err
	}

	out, err := d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &d.tableName,
		Key:                       key,
		UpdateExpression:          &updateExpr,
		ConditionExpression:       &cond,
		ExpressionAttributeNames:  b.Names(),
		ExpressionAttributeValues: b.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		// If the condition fails, DynamoDB returns a ConditionalCheckFailedException
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return nil, errors.NewConditionFailedError("update", conds.String())
		}
		return nil, fmt.Errorf("UpdateItem failed: %w", err)
	}
	return out.Attributes, nil
}

// Update scans for matches then patches them one item at a time. Items that
// stop matching between the scan and the write are skipped.
func (d *Store) Update(ctx context.Context, conds filter.Conditions, patch datastore.Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error) {
	patch, err := d.schema.CastPatch(patch)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}
	input, err := d.scanInput(conds)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}
	items, err := d.scanAll(ctx, input)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}
	if !opts.Multi && len(items) > 1 {
		items = items[:1]
	}

	var result storagemodels.UpdateResult
	for _, item := range items {
		key := map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]}
		if _, err := d.updateItem(ctx, key, conds, patch); err != nil {
			if errors.IsConditionFailed(err) {
				d.log.Debug().Interface("key", key).Msg("item changed before update, skipping")
				continue
			}
			return result, err
		}
		result.Matched++
		result.Modified++
	}

	if result.Matched == 0 && opts.Upsert {
		doc, err := d.Insert(ctx, datastore.UpsertDocument(conds, patch))
		if err != nil {
			return result, err
		}
		result.UpsertedID, _ = doc.ID()
	}
	return result, nil
}

// FindOneAndUpdate patches the first match and returns it as updated.
func (d *Store) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	patch, err := d.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}
	doc, err := d.FindOne(ctx, datastore.NewQuery(conds))
	if err != nil {
		return nil, err
	}
	key, err := d.keyFor(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %w", err)
	}
	attrs, err := d.updateItem(ctx, key, conds, patch)
	if err != nil {
		if errors.IsConditionFailed(err) {
			return nil, errors.NewNotFoundError(d.name, conds.String())
		}
		return nil, err
	}
	return d.fromItem(attrs)
}

// FindByIDAndUpdate patches the item with the given identifier.
func (d *Store) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	patch, err := d.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}
	_, key, err := d.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	conds := filter.Conditions{datastore.IDField: id}
	attrs, err := d.updateItem(ctx, key, conds, patch)
	if err != nil {
		if errors.IsConditionFailed(err) {
			return nil, errors.NewNotFoundError(d.name, conds.String())
		}
		return nil, err
	}
	return d.fromItem(attrs)
}

// Insert stores a new item, assigning a UUID when the document has no
// identifier.
func (d *Store) Insert(ctx context.Context, doc datastore.Document) (datastore.Document, error) {
	doc = doc.Clone()
	if doc == nil {
		doc = datastore.Document{}
	}
	if _, ok := doc.ID(); !ok {
		doc[datastore.IDField] = uuid.NewString()
	}
	if err := d.schema.PrepareInsert(ctx, doc); err != nil {
		return nil, err
	}

	item, err := d.toItem(doc)
	if err != nil {
		return nil, err
	}
	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return nil, errors.NewAlreadyExistsError(d.name, doc.IDString())
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return doc, nil
}

// Replace overwrites an existing item.
func (d *Store) Replace(ctx context.Context, doc datastore.Document) error {
	if _, ok := doc.ID(); !ok {
		return errors.NewValidationError(datastore.IDField, "document has no identifier")
	}
	stored := doc.Clone()
	for k, v := range stored {
		cast, err := d.schema.Cast(k, v)
		if err != nil {
			return err
		}
		stored[k] = cast
	}

	item, err := d.toItem(stored)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewNotFoundError(d.name, doc.IDString())
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}
