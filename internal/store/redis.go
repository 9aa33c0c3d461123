package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/everforgeworks/tap-the-cap/internal/config"
	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// NewRedisClient creates a Redis client and performs a health check.
func NewRedisClient(ctx context.Context, cfg config.StoreConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// RedisStore keeps each save slot in one hash at "tapthecap:progress:{slot}".
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore creates a store for the slot on an existing client.
func NewRedisStore(client *redis.Client, slot string) *RedisStore {
	if slot == "" {
		slot = "default"
	}
	return &RedisStore{rdb: client, key: "tapthecap:progress:" + slot}
}

func (s *RedisStore) Load(ctx context.Context) (game.Snapshot, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("redis: load %s: %w", s.key, err)
	}
	return DecodeSnapshot(fields)
}

// Save replaces the hash atomically.
func (s *RedisStore) Save(ctx context.Context, snap game.Snapshot) error {
	encoded := EncodeSnapshot(snap)
	values := make(map[string]interface{}, len(encoded))
	for k, v := range encoded {
		values[k] = v
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: clear %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
