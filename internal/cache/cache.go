package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

// Package cache provides the per-source news item cache abstraction.

// Store caches news items keyed by source. A Get never returns an item whose
// expiry has passed; expired rows are treated as absent even if they still
// physically exist. Set keeps at most MaxItemsPerSource items (first N in
// input order) and stamps each with now+TTL.
type Store interface {
	Close() error
	Get(ctx context.Context, source domain.Source) ([]domain.NewsItem, error)
	Set(ctx context.Context, source domain.Source, items []domain.NewsItem) error
	Invalidate(ctx context.Context, source domain.Source) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL               time.Duration
	MaxItemsPerSource int

	// Now is an injectable clock for expiry decisions. Defaults to time.Now.
	Now func() time.Time
}

const (
	defaultTTL               = 24 * time.Hour
	defaultMaxItemsPerSource = 30
)

// DynamoConfig holds settings for the DynamoDB-backed store.
type DynamoConfig struct {
	TableName   string
	EndpointURL string
	Region      string
}

// NewStore creates the configured cache backend.
func NewStore(ctx context.Context, typ, boltPath string, dynamo DynamoConfig, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(boltPath) == "" {
			return nil, fmt.Errorf("bbolt cache requires a path")
		}
		return openBolt(boltPath, opts)
	case "dynamodb":
		if strings.TrimSpace(dynamo.TableName) == "" {
			return nil, fmt.Errorf("dynamodb cache requires a table name")
		}
		return openDynamo(ctx, dynamo, opts)
	default:
		return nil, fmt.Errorf("unsupported cache type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.MaxItemsPerSource <= 0 {
		opts.MaxItemsPerSource = defaultMaxItemsPerSource
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) Get(context.Context, domain.Source) ([]domain.NewsItem, error) {
	return nil, nil
}
func (noopStore) Set(context.Context, domain.Source, []domain.NewsItem) error { return nil }
func (noopStore) Invalidate(context.Context, domain.Source) error             { return nil }
