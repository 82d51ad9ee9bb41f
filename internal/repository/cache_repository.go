package repository

import (
	"context"
	"errors"
)

// ItemNameRepository caches item node id -> item title. Entries are never invalidated.
type ItemNameRepository interface {
	Get(ctx context.Context, nodeID string) (string, bool, error)
	Save(ctx context.Context, nodeID, name string) error
}

// ThreadRepository caches item title -> forum thread id. Entries are never invalidated.
type ThreadRepository interface {
	Get(ctx context.Context, itemName string) (string, bool, error)
	Save(ctx context.Context, itemName, threadID string) error
}

type namespacedCache struct {
	store     KVStore
	namespace string
}

// NewItemNameRepository builds the item-name cache in the given namespace.
func NewItemNameRepository(store KVStore, namespace string) ItemNameRepository {
	return &namespacedCache{store: store, namespace: namespace}
}

// NewThreadRepository builds the thread-id cache in the given namespace.
func NewThreadRepository(store KVStore, namespace string) ThreadRepository {
	return &namespacedCache{store: store, namespace: namespace}
}

func (c *namespacedCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.store.Get(ctx, c.namespace, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *namespacedCache) Save(ctx context.Context, key, value string) error {
	return c.store.Put(ctx, c.namespace, key, value)
}
