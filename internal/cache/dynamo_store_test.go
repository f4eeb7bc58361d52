package cache

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

// fakeDynamo keeps rows in memory keyed by PK+"|"+SK.
type fakeDynamo struct {
	rows map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{rows: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) key(attrs map[string]types.AttributeValue) string {
	pk := attrs["PK"].(*types.AttributeValueMemberS).Value
	sk := attrs["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDynamo) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	pk := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	out := &dynamodb.QueryOutput{}
	for key, attrs := range f.rows {
		if len(key) >= len(pk)+1 && key[:len(pk)+1] == pk+"|" {
			out.Items = append(out.Items, attrs)
		}
	}
	return out, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.rows[f.key(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.rows, f.key(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func newTestDynamo(now *time.Time) *dynamoStore {
	return &dynamoStore{
		client: newFakeDynamo(),
		table:  "bytesip-cache",
		ttl:    time.Hour,
		maxN:   30,
		now:    func() time.Time { return *now },
	}
}

func TestDynamoStoreRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	store := newTestDynamo(&now)
	ctx := context.Background()

	stored := []domain.NewsItem{item(domain.SourceQiita, "abc", "python", "django")}
	if err := store.Set(ctx, domain.SourceQiita, stored); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, domain.SourceQiita)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].ID != "qiita_abc" || len(got[0].Tags) != 2 {
		t.Fatalf("unexpected round trip result: %+v", got)
	}

	now = now.Add(2 * time.Hour)
	got, err = store.Get(ctx, domain.SourceQiita)
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired rows to be filtered, got %d", len(got))
	}
}

func TestDynamoStoreInvalidateRemovesAllRows(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	store := newTestDynamo(&now)
	ctx := context.Background()

	items := []domain.NewsItem{
		item(domain.SourceGitHub, "a/b"),
		item(domain.SourceGitHub, "c/d"),
	}
	if err := store.Set(ctx, domain.SourceGitHub, items); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// A second source must survive invalidation of the first.
	if err := store.Set(ctx, domain.SourceZenn, []domain.NewsItem{item(domain.SourceZenn, "slug")}); err != nil {
		t.Fatalf("Set zenn: %v", err)
	}

	if err := store.Invalidate(ctx, domain.SourceGitHub); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	got, err := store.Get(ctx, domain.SourceGitHub)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected github rows gone, got %d err=%v", len(got), err)
	}
	got, err = store.Get(ctx, domain.SourceZenn)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected zenn rows intact, got %d err=%v", len(got), err)
	}
}
