package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Markers remembers which workbook uploads were already imported.
// Claim is atomic: of two concurrent claims for a key only one wins.
type Markers interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// LocalMarkers keeps markers in process memory.
type LocalMarkers struct {
	lru *LRUCache[struct{}]
}

func NewLocalMarkers(maxSize int, ttl time.Duration) *LocalMarkers {
	return &LocalMarkers{lru: NewLRUCache[struct{}](maxSize, ttl)}
}

func (m *LocalMarkers) Claim(_ context.Context, key string) (bool, error) {
	return m.lru.Add(key, struct{}{}), nil
}

func (m *LocalMarkers) Release(_ context.Context, key string) error {
	m.lru.Delete(key)
	return nil
}

func (m *LocalMarkers) Ping(context.Context) error { return nil }

func (m *LocalMarkers) Close() error { return nil }

// Cleaner exposes the backing LRU to a Manager.
func (m *LocalMarkers) Cleaner() Cleaner { return m.lru }

// RedisMarkers shares markers across service replicas.
type RedisMarkers struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMarkers(addr, password string, db int, ttl time.Duration) *RedisMarkers {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisMarkers{client: client, prefix: "bookkeep:import:", ttl: ttl}
}

func (m *RedisMarkers) Claim(ctx context.Context, key string) (bool, error) {
	return m.client.SetNX(ctx, m.prefix+key, time.Now().UTC().Format(time.RFC3339), m.ttl).Result()
}

func (m *RedisMarkers) Release(ctx context.Context, key string) error {
	return m.client.Del(ctx, m.prefix+key).Err()
}

func (m *RedisMarkers) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisMarkers) Close() error {
	return m.client.Close()
}
