package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// BoltStore wraps BoltDB; each save slot is one bucket holding the key layout.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt initializes the BoltDB file. The slot bucket is created on first save.
func OpenBolt(path, slot string) (*BoltStore, error) {
	if slot == "" {
		slot = "default"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &BoltStore{
		db:     db,
		bucket: []byte("progress:" + slot),
	}, nil
}

func (s *BoltStore) Load(ctx context.Context) (game.Snapshot, error) {
	if s == nil || s.db == nil {
		return game.Snapshot{}, bolt.ErrDatabaseNotOpen
	}
	fields := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			fields[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return game.Snapshot{}, err
	}
	return DecodeSnapshot(fields)
}

// Save rewrites the slot bucket in one transaction so stale keys never survive.
func (s *BoltStore) Save(ctx context.Context, snap game.Snapshot) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	fields := EncodeSnapshot(snap)
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) != nil {
			if err := tx.DeleteBucket(s.bucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(s.bucket)
		if err != nil {
			return err
		}
		for k, v := range fields {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return nil
		}
		return tx.DeleteBucket(s.bucket)
	})
}

// Close closes the Bolt database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
