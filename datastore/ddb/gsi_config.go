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
)

// GSIConfig holds the configuration for GSI key mappings
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "deletedAt-index")
	IndexName string
	// PartitionKeyName is the partition key attribute of the GSI
	PartitionKeyName string
	// AttributeType is the scalar type of the partition key
	AttributeType types.ScalarAttributeType
}

// GSIConfigFor derives the index for a schema field hint. Boolean fields
// cannot key a DynamoDB index, so ok is false for them.
func GSIConfigFor(f datastore.Field) (GSIConfig, bool) {
	if f.Type == datastore.TypeBoolean {
		return GSIConfig{}, false
	}
	return GSIConfig{
		IndexName:        f.Name + "-index",
		PartitionKeyName: f.Name,
		AttributeType:    types.ScalarAttributeTypeS,
	}, true
}

// EnsureIndexes creates a GSI for each indexed schema field that does not
// have one yet. DynamoDB accepts one GSI creation per UpdateTable call.
func (d *Store) EnsureIndexes(ctx context.Context) error {
	desc, err := d.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &d.tableName})
	if err != nil {
		return fmt.Errorf("DescribeTable failed: %w", err)
	}

	existing := make(map[string]bool)
	provisioned := true
	if desc.Table != nil {
		for _, gsi := range desc.Table.GlobalSecondaryIndexes {
			existing[aws.ToString(gsi.IndexName)] = true
		}
		if desc.Table.BillingModeSummary != nil && desc.Table.BillingModeSummary.BillingMode == types.BillingModePayPerRequest {
			provisioned = false
		}
	}

	for _, f := range d.schema.IndexedFields() {
		cfg, ok := GSIConfigFor(f)
		if !ok {
			d.log.Warn().Str("field", f.Name).Msg("boolean fields cannot key a DynamoDB index, skipping")
			continue
		}
		if existing[cfg.IndexName] {
			continue
		}

		create := &types.CreateGlobalSecondaryIndexAction{
			IndexName: aws.String(cfg.IndexName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(cfg.PartitionKeyName), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
		if provisioned {
			create.ProvisionedThroughput = &types.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(5),
				WriteCapacityUnits: aws.Int64(5),
			}
		}

		_, err := d.client.UpdateTable(ctx, &sdk.UpdateTableInput{
			TableName: &d.tableName,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(cfg.PartitionKeyName), AttributeType: cfg.AttributeType},
			},
			GlobalSecondaryIndexUpdates: []types.GlobalSecondaryIndexUpdate{{Create: create}},
		})
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", cfg.IndexName, err)
		}
		d.log.Info().Str("index", cfg.IndexName).Msg("created index")
	}
	return nil
}
