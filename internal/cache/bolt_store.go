package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const cacheBucket = "news_cache"

// boltRow is the stored representation of one cached item.
type boltRow struct {
	Item      domain.NewsItem `json:"item"`
	ExpiresAt int64           `json:"expires_at"`
}

// boltStore implements a Store backed by BoltDB. Each source gets its own
// nested bucket keyed by item id, so sources never contend on the same key.
type boltStore struct {
	db   *bolt.DB
	ttl  time.Duration
	maxN int
	now  func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cacheBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{
		db:   db,
		ttl:  opts.TTL,
		maxN: opts.MaxItemsPerSource,
		now:  opts.Now,
	}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns unexpired items for the source. Expired rows are deleted on the
// way out so the file does not grow unbounded.
func (b *boltStore) Get(_ context.Context, source domain.Source) ([]domain.NewsItem, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now().Unix()
	var items []domain.NewsItem

	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(cacheBucket))
		if root == nil {
			return fmt.Errorf("cache bucket missing")
		}
		bucket := root.Bucket([]byte(source))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var row boltRow
			if err := json.Unmarshal(v, &row); err != nil || row.ExpiresAt <= now {
				if err := cursor.Delete(); err != nil {
					return err
				}
				continue
			}
			items = append(items, row.Item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Set upserts the first MaxItemsPerSource items, each stamped with now+TTL.
func (b *boltStore) Set(_ context.Context, source domain.Source, items []domain.NewsItem) error {
	if b == nil || b.db == nil {
		return nil
	}

	if len(items) > b.maxN {
		items = items[:b.maxN]
	}
	expiresAt := b.now().Add(b.ttl).Unix()

	return b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(cacheBucket))
		if root == nil {
			return fmt.Errorf("cache bucket missing")
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(source))
		if err != nil {
			return fmt.Errorf("create source bucket: %w", err)
		}

		for _, item := range items {
			raw, err := json.Marshal(boltRow{Item: item, ExpiresAt: expiresAt})
			if err != nil {
				return fmt.Errorf("marshal cache row %s: %w", item.ID, err)
			}
			if err := bucket.Put([]byte(item.ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Invalidate removes all stored rows for the source unconditionally.
func (b *boltStore) Invalidate(_ context.Context, source domain.Source) error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(cacheBucket))
		if root == nil {
			return fmt.Errorf("cache bucket missing")
		}
		if root.Bucket([]byte(source)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(source))
	})
}
