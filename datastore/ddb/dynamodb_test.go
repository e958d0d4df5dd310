/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// fakeClient serves canned scan pages and records every request. It does
// not evaluate expressions.
type fakeClient struct {
	mu sync.Mutex

	pages    [][]map[string]types.AttributeValue
	scanErrs []error
	item     map[string]types.AttributeValue
	putErr   error
	updErr   error
	desc     *sdk.DescribeTableOutput

	scans        []*sdk.ScanInput
	puts         []*sdk.PutItemInput
	updates      []*sdk.UpdateItemInput
	tableUpdates []*sdk.UpdateTableInput
}

func (f *fakeClient) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	return &sdk.GetItemOutput{Item: f.item}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	return &sdk.PutItemOutput{}, f.putErr
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.updErr != nil {
		return nil, f.updErr
	}
	attrs := map[string]types.AttributeValue{}
	for k, v := range in.Key {
		attrs[k] = v
	}
	attrs["_id"] = &types.AttributeValueMemberS{Value: "updated"}
	attrs["deleted"] = &types.AttributeValueMemberBOOL{Value: true}
	return &sdk.UpdateItemOutput{Attributes: attrs}, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, in)
	if len(f.scanErrs) > 0 {
		err := f.scanErrs[0]
		f.scanErrs = f.scanErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	page := 0
	if n, ok := in.ExclusiveStartKey["page"].(*types.AttributeValueMemberN); ok {
		page, _ = strconv.Atoi(n.Value)
	}
	out := &sdk.ScanOutput{}
	if page < len(f.pages) {
		out.Items = f.pages[page]
		out.Count = int32(len(f.pages[page]))
	}
	if page+1 < len(f.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"page": &types.AttributeValueMemberN{Value: strconv.Itoa(page + 1)},
		}
	}
	return out, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	if f.desc != nil {
		return f.desc, nil
	}
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{}}, nil
}

func (f *fakeClient) UpdateTable(ctx context.Context, in *sdk.UpdateTableInput, _ ...func(*sdk.Options)) (*sdk.UpdateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableUpdates = append(f.tableUpdates, in)
	return &sdk.UpdateTableOutput{}, nil
}

func item(t *testing.T, doc map[string]any) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(doc)
	require.NoError(t, err)
	av["PK"] = &types.AttributeValueMemberS{Value: "articles#" + doc["_id"].(string)}
	av["SK"] = av["PK"]
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: "articles"}
	return av
}

func newTestStore(client *fakeClient) *Store {
	s := New(client, "test-table", "articles")
	_ = s.Schema().Add(datastore.Field{Name: "deleted", Type: datastore.TypeBoolean, Default: false, HasDefault: true, Index: true})
	_ = s.Schema().Add(datastore.Field{Name: "deletedAt", Type: datastore.TypeDate, Index: true})
	return s
}

func TestInsertWritesKeysAndEntityType(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(client)

	doc, err := s.Insert(context.Background(), datastore.Document{"_id": "a1", "title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, false, doc["deleted"])

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "attribute_not_exists(PK)", aws.ToString(put.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "articles#a1"}, put.Item["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "articles#a1"}, put.Item["SK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "articles"}, put.Item[EntityTypeAttribute])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, put.Item["deleted"])
}

func TestInsertMapsConditionFailure(t *testing.T) {
	client := &fakeClient{putErr: &types.ConditionalCheckFailedException{}}
	s := newTestStore(client)

	_, err := s.Insert(context.Background(), datastore.Document{"_id": "a1"})
	assert.True(t, errors.IsAlreadyExists(err))

	err = s.Replace(context.Background(), datastore.Document{"_id": "a1"})
	assert.True(t, errors.IsNotFound(err))
}

func TestFindDecodesAndPages(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	client := &fakeClient{pages: [][]map[string]types.AttributeValue{
		{item(t, map[string]any{"_id": "b", "deleted": true, "deletedAt": at.Format(time.RFC3339Nano)})},
		{item(t, map[string]any{"_id": "a", "deleted": false})},
	}}
	s := newTestStore(client)

	q := datastore.NewQuery(filter.Conditions{"title": "x"}, storagemodels.WithSort("_id", true)).
		Where(filter.Conditions{"deleted": filter.Ne(true)})
	docs, err := s.Find(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0]["_id"])
	assert.Equal(t, at, docs[1]["deletedAt"])
	assert.NotContains(t, docs[0], "PK")
	assert.NotContains(t, docs[0], EntityTypeAttribute)

	require.Len(t, client.scans, 2)
	assert.Equal(t,
		"#f0 = :v0 AND #f1 = :v1 AND (attribute_not_exists(#f2) OR #f2 <> :v2)",
		aws.ToString(client.scans[0].FilterExpression))
	assert.Equal(t, "EntityType", client.scans[0].ExpressionAttributeNames["#f0"])
	assert.Equal(t, "title", client.scans[0].ExpressionAttributeNames["#f1"])
}

func TestCountSumsPages(t *testing.T) {
	client := &fakeClient{pages: [][]map[string]types.AttributeValue{
		{item(t, map[string]any{"_id": "a"}), item(t, map[string]any{"_id": "b"})},
		{item(t, map[string]any{"_id": "c"})},
	}}
	s := newTestStore(client)

	n, err := s.Count(context.Background(), datastore.NewQuery(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, types.SelectCount, client.scans[0].Select)
}

func TestFindOneNotFound(t *testing.T) {
	s := newTestStore(&fakeClient{})
	_, err := s.FindOne(context.Background(), datastore.NewQuery(filter.Conditions{"_id": "x"}))
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateSingleAndMulti(t *testing.T) {
	pages := [][]map[string]types.AttributeValue{{
		item(t, map[string]any{"_id": "a"}),
		item(t, map[string]any{"_id": "b"}),
	}}
	patch := datastore.Patch{Set: map[string]any{"deleted": true}, Unset: []string{"deletedBy"}}
	conds := filter.Conditions{"deleted": filter.Ne(true)}

	client := &fakeClient{pages: pages}
	res, err := newTestStore(client).Update(context.Background(), conds, patch, storagemodels.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)
	require.Len(t, client.updates, 1)
	upd := client.updates[0]
	assert.Equal(t, "SET #f0 = :v0 REMOVE #f1", aws.ToString(upd.UpdateExpression))
	assert.Equal(t, "attribute_exists(#f2) AND (attribute_not_exists(#f0) OR #f0 <> :v1)", aws.ToString(upd.ConditionExpression))

	client = &fakeClient{pages: pages}
	res, err = newTestStore(client).Update(context.Background(), conds, patch, storagemodels.UpdateOptions{Multi: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Matched)
	assert.Len(t, client.updates, 2)
}

func TestUpdateSkipsChangedItemsAndUpserts(t *testing.T) {
	client := &fakeClient{
		pages:  [][]map[string]types.AttributeValue{{item(t, map[string]any{"_id": "a"})}},
		updErr: &types.ConditionalCheckFailedException{},
	}
	res, err := newTestStore(client).Update(context.Background(),
		filter.Conditions{"title": "x"},
		datastore.Patch{Set: map[string]any{"n": 1}},
		storagemodels.UpdateOptions{Multi: true, Upsert: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Matched)
	require.NotNil(t, res.UpsertedID)
	require.Len(t, client.puts, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "x"}, client.puts[0].Item["title"])
}

func TestFindByIDAndUpdate(t *testing.T) {
	client := &fakeClient{item: item(t, map[string]any{"_id": "a"})}
	doc, err := newTestStore(client).FindByIDAndUpdate(context.Background(), "a",
		datastore.Patch{Set: map[string]any{"deleted": true}})
	require.NoError(t, err)
	assert.Equal(t, true, doc["deleted"])
	require.Len(t, client.updates, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "articles#a"}, client.updates[0].Key["PK"])

	_, err = newTestStore(&fakeClient{}).FindByIDAndUpdate(context.Background(), "missing",
		datastore.Patch{Set: map[string]any{"deleted": true}})
	assert.True(t, errors.IsNotFound(err))
}

func TestEnsureIndexesSkipsBoolean(t *testing.T) {
	client := &fakeClient{desc: &sdk.DescribeTableOutput{Table: &types.TableDescription{
		BillingModeSummary: &types.BillingModeSummary{BillingMode: types.BillingModePayPerRequest},
	}}}
	s := newTestStore(client)

	require.NoError(t, s.EnsureIndexes(context.Background()))
	require.Len(t, client.tableUpdates, 1)
	create := client.tableUpdates[0].GlobalSecondaryIndexUpdates[0].Create
	assert.Equal(t, "deletedAt-index", aws.ToString(create.IndexName))
	assert.Nil(t, create.ProvisionedThroughput)

	client.desc.Table.GlobalSecondaryIndexes = []types.GlobalSecondaryIndexDescription{
		{IndexName: aws.String("deletedAt-index")},
	}
	require.NoError(t, s.EnsureIndexes(context.Background()))
	assert.Len(t, client.tableUpdates, 1)
}

func TestStreamRetriesAndReportsProgress(t *testing.T) {
	client := &fakeClient{
		pages: [][]map[string]types.AttributeValue{
			{item(t, map[string]any{"_id": "a"})},
			{item(t, map[string]any{"_id": "b"}), item(t, map[string]any{"_id": "c"})},
		},
		scanErrs: []error{&types.ProvisionedThroughputExceededException{}},
	}
	s := newTestStore(client)

	var last storagemodels.StreamProgress
	var got []string
	for r := range s.Stream(context.Background(), datastore.NewQuery(nil),
		storagemodels.WithRetryBackoff(time.Millisecond),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { last = p }),
	) {
		require.NoError(t, r.Error)
		got = append(got, r.Item.IDString())
		assert.NotNil(t, r.Raw)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, int64(3), last.ItemsProcessed)
	assert.Equal(t, 2, last.PagesProcessed)
	assert.Len(t, client.scans, 3)
}

func TestStreamStopsOnFatalError(t *testing.T) {
	client := &fakeClient{scanErrs: []error{assert.AnError}}
	s := newTestStore(client)

	var results []storagemodels.StreamResult[datastore.Document]
	for r := range s.Stream(context.Background(), datastore.NewQuery(nil)) {
		results = append(results, r)
	}
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, assert.AnError)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&types.ProvisionedThroughputExceededException{}))
	assert.True(t, isRetryableError(&types.RequestLimitExceeded{}))
	assert.True(t, isRetryableError(&types.InternalServerError{}))
	assert.False(t, isRetryableError(&types.ConditionalCheckFailedException{}))
}

func TestMissingKeyTemplates(t *testing.T) {
	s := New(&fakeClient{}, "test-table", "articles", WithIndexMap(map[string]string{"PK": "A#{_id}"}))
	_, err := s.Insert(context.Background(), datastore.Document{"_id": "a"})
	assert.ErrorIs(t, err, errors.ErrNoIndexMap)
}
