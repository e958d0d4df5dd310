/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/registry"
)

// EntityTypeAttribute tags every item with its collection so that several
// collections can share one table.
const EntityTypeAttribute = "EntityType"

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	UpdateTable(ctx context.Context, params *sdk.UpdateTableInput, optFns ...func(*sdk.Options)) (*sdk.UpdateTableOutput, error)
}

// Store implements datastore.Store for one collection in a DynamoDB table.
type Store struct {
	client    API
	tableName string
	name      string
	schema    *datastore.Schema
	indexMap  map[string]string
	log       zerolog.Logger
}

var _ datastore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithIndexMap overrides the registered index map for the collection.
func WithIndexMap(indexMap map[string]string) Option {
	return func(s *Store) {
		s.indexMap = indexMap
	}
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	// Convert keysInput to a map of attribute values
	av, err := attributevalue.MarshalMap(toStorable(keysInput))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))

	for fieldName, template := range indexMap {
		missing := false
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")

			switch tv := av[key].(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				// absent, NULL, binary and sets do not make keys
				missing = true
				return ""
			}
		})
		if missing {
			expanded = ""
		}
		res[fieldName] = expanded
	}

	return res, nil
}

// ClientConfig holds the settings NewDynamoDBClient needs.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client using AWS credentials.
// Empty keys fall back to the default credential chain.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig, log zerolog.Logger) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})

	log.Info().
		Str("region", cc.Region).
		Str("endpoint", cc.Endpoint).
		Msg("DynamoDB client initialized")
	return client, nil
}

// New constructs a store for collection in tableName. Key templates come
// from the registry unless WithIndexMap is given.
func New(client API, tableName, collection string, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tableName: tableName,
		name:      collection,
		schema:    datastore.NewSchema(datastore.TypeString),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.indexMap == nil {
		s.indexMap = registry.IndexMapOrDefault(collection)
	}
	s.log = s.log.With().Str("table", tableName).Str("collection", collection).Logger()
	return s
}

func (d *Store) Name() string {
	return d.name
}

func (d *Store) Schema() *datastore.Schema {
	return d.schema
}

// keyFor builds the primary key of doc from the index map.
func (d *Store) keyFor(doc datastore.Document) (map[string]types.AttributeValue, error) {
	if d.indexMap["PK"] == "" || d.indexMap["SK"] == "" {
		return nil, fmt.Errorf("%w %q: PK and SK templates are required", errors.ErrNoIndexMap, d.name)
	}
	expanded, err := expandMacros(d.indexMap, map[string]any(doc))
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(expanded)
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
// It assumes that the expanded map has valid non-empty values for "PK" and "SK".
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// toItem marshals a document with its expanded keys and entity type.
func (d *Store) toItem(doc datastore.Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(toStorable(map[string]any(doc)))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	if _, err := d.keyFor(doc); err != nil {
		return nil, err
	}
	expanded, err := expandMacros(d.indexMap, map[string]any(doc))
	if err != nil {
		return nil, err
	}
	for k, v := range expanded {
		if v == "" {
			// sparse secondary index
			continue
		}
		item[k] = &types.AttributeValueMemberS{Value: v}
	}
	item[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: d.name}
	return item, nil
}

// fromItem strips key attributes and casts declared fields back to their
// schema types.
func (d *Store) fromItem(item map[string]types.AttributeValue) (datastore.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	delete(m, EntityTypeAttribute)
	for k := range d.indexMap {
		delete(m, k)
	}

	doc := datastore.Document(m)
	for k, v := range doc {
		cast, err := d.schema.Cast(k, v)
		if err != nil {
			return nil, err
		}
		doc[k] = cast
	}
	return doc, nil
}
