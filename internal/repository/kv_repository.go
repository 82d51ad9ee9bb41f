package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by KVStore.Get on a miss.
var ErrNotFound = errors.New("repository: key not found")

// KVStore is a durable string key-value store partitioned into namespaces.
type KVStore interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Put(ctx context.Context, namespace, key, value string) error
	Ping(ctx context.Context) error
}

// redisKV keeps each namespace in one Redis hash.
type redisKV struct {
	client *redis.Client
}

// NewRedisKV builds a KVStore on a Redis client.
func NewRedisKV(client *redis.Client) KVStore {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := r.client.HGet(ctx, namespace, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %s: %w", namespace, err)
	}
	return value, nil
}

func (r *redisKV) Put(ctx context.Context, namespace, key, value string) error {
	if err := r.client.HSet(ctx, namespace, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", namespace, err)
	}
	return nil
}

func (r *redisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// postgresKV stores entries in the kv_entries table.
type postgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV builds a KVStore on a pgx pool.
func NewPostgresKV(pool *pgxpool.Pool) KVStore {
	return &postgresKV{pool: pool}
}

func (p *postgresKV) Get(ctx context.Context, namespace, key string) (string, error) {
	const query = `SELECT value FROM kv_entries WHERE namespace=$1 AND key=$2`
	var value string
	err := p.pool.QueryRow(ctx, query, namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv entry: %w", err)
	}
	return value, nil
}

func (p *postgresKV) Put(ctx context.Context, namespace, key, value string) error {
	const query = `
        INSERT INTO kv_entries (namespace, key, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := p.pool.Exec(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (p *postgresKV) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// MemoryKV is a process-local KVStore for development and tests.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, namespace, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[namespace][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryKV) Put(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[namespace] == nil {
		m.entries[namespace] = make(map[string]string)
	}
	m.entries[namespace][key] = value
	return nil
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

// Len returns the number of entries in namespace.
func (m *MemoryKV) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[namespace])
}
