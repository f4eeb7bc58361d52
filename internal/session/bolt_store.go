package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// boltStore persists session attributes in a BoltDB file, one JSON document
// per session id. Survives process restarts, unlike MemoryStore.
type boltStore struct {
	db *bolt.DB
}

func openBoltStore(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Attributes(sessionID string) (map[string]any, error) {
	attrs := make(map[string]any)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		raw := bucket.Get([]byte(sessionID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &attrs)
	})
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (b *boltStore) SetAttributes(sessionID string, attrs map[string]any) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}

		merged := make(map[string]any)
		if raw := bucket.Get([]byte(sessionID)); raw != nil {
			if err := json.Unmarshal(raw, &merged); err != nil {
				return fmt.Errorf("decode session %s: %w", sessionID, err)
			}
		}
		for k, v := range attrs {
			merged[k] = v
		}

		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", sessionID, err)
		}
		return bucket.Put([]byte(sessionID), raw)
	})
}
