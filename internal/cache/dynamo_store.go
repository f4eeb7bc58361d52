package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

const (
	dynamoPKPrefix     = "SOURCE#"
	dynamoSKItemPrefix = "ITEM#"
)

// dynamoClient defines the minimal subset of the DynamoDB client used by dynamoStore.
type dynamoClient interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoStore implements a Store backed by a DynamoDB table using the
// single-table layout PK=SOURCE#{source}, SK=ITEM#{item_id} with a numeric
// ttl attribute. The table's own TTL sweep is best-effort, so expiry is also
// enforced at read time.
type dynamoStore struct {
	client dynamoClient
	table  string
	ttl    time.Duration
	maxN   int
	now    func() time.Time
}

// openDynamo initializes a DynamoDB-backed Store.
func openDynamo(ctx context.Context, cfg DynamoConfig, opts Options) (Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	loadOpts := []func(*awscfg.LoadOptions) error{}
	if strings.TrimSpace(cfg.Region) != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(cfg.Region))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	clientOpts := []func(*dynamodb.Options){}
	if endpoint := strings.TrimSpace(cfg.EndpointURL); endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &dynamoStore{
		client: dynamodb.NewFromConfig(awsCfg, clientOpts...),
		table:  cfg.TableName,
		ttl:    opts.TTL,
		maxN:   opts.MaxItemsPerSource,
		now:    opts.Now,
	}, nil
}

func (d *dynamoStore) Close() error { return nil }

// Get queries all ITEM# rows for the source and filters out rows past their ttl.
func (d *dynamoStore) Get(ctx context.Context, source domain.Source) ([]domain.NewsItem, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: dynamoPKPrefix + string(source)},
			":sk": &types.AttributeValueMemberS{Value: dynamoSKItemPrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query cache for %s: %w", source, err)
	}

	now := d.now().Unix()
	var items []domain.NewsItem
	for _, attrs := range out.Items {
		if expiry, ok := numberAttr(attrs, "ttl"); !ok || expiry <= now {
			continue
		}
		items = append(items, domain.NewsItem{
			ID:      stringAttr(attrs, "id"),
			Title:   stringAttr(attrs, "title"),
			URL:     stringAttr(attrs, "url"),
			Summary: stringAttr(attrs, "summary"),
			Tags:    stringListAttr(attrs, "tags"),
			Source:  source,
		})
	}
	return items, nil
}

// Set upserts the first MaxItemsPerSource items, each stamped with now+TTL.
func (d *dynamoStore) Set(ctx context.Context, source domain.Source, items []domain.NewsItem) error {
	if len(items) > d.maxN {
		items = items[:d.maxN]
	}
	expiry := strconv.FormatInt(d.now().Add(d.ttl).Unix(), 10)

	for _, item := range items {
		tags := make([]types.AttributeValue, 0, len(item.Tags))
		for _, tag := range item.Tags {
			tags = append(tags, &types.AttributeValueMemberS{Value: tag})
		}

		_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(d.table),
			Item: map[string]types.AttributeValue{
				"PK":      &types.AttributeValueMemberS{Value: dynamoPKPrefix + string(source)},
				"SK":      &types.AttributeValueMemberS{Value: dynamoSKItemPrefix + item.ID},
				"id":      &types.AttributeValueMemberS{Value: item.ID},
				"title":   &types.AttributeValueMemberS{Value: item.Title},
				"url":     &types.AttributeValueMemberS{Value: item.URL},
				"summary": &types.AttributeValueMemberS{Value: item.Summary},
				"tags":    &types.AttributeValueMemberL{Value: tags},
				"source":  &types.AttributeValueMemberS{Value: string(source)},
				"ttl":     &types.AttributeValueMemberN{Value: expiry},
			},
		})
		if err != nil {
			return fmt.Errorf("put cache row %s: %w", item.ID, err)
		}
	}
	return nil
}

// Invalidate deletes every ITEM# row for the source.
func (d *dynamoStore) Invalidate(ctx context.Context, source domain.Source) error {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: dynamoPKPrefix + string(source)},
			":sk": &types.AttributeValueMemberS{Value: dynamoSKItemPrefix},
		},
		ProjectionExpression: aws.String("PK, SK"),
	})
	if err != nil {
		return fmt.Errorf("query cache for %s: %w", source, err)
	}

	for _, attrs := range out.Items {
		_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(d.table),
			Key: map[string]types.AttributeValue{
				"PK": attrs["PK"],
				"SK": attrs["SK"],
			},
		})
		if err != nil {
			return fmt.Errorf("delete cache row: %w", err)
		}
	}
	return nil
}

func stringAttr(attrs map[string]types.AttributeValue, key string) string {
	if v, ok := attrs[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberAttr(attrs map[string]types.AttributeValue, key string) (int64, bool) {
	v, ok := attrs[key].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func stringListAttr(attrs map[string]types.AttributeValue, key string) []string {
	v, ok := attrs[key].(*types.AttributeValueMemberL)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v.Value))
	for _, member := range v.Value {
		if s, ok := member.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}
