package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string, string) (string, error) { return "", f.err }
func (f failingKV) Put(context.Context, string, string, string) error { return f.err }
func (f failingKV) Ping(context.Context) error { return f.err }

func TestThreadRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKV()
	threads := NewThreadRepository(store, "post_id")

	_, ok, err := threads.Get(ctx, "audacity4")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, threads.Save(ctx, "audacity4", "621"))

	id, ok, err := threads.Get(ctx, "audacity4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "621", id)
	assert.Equal(t, 1, store.Len("post_id"))
}

func TestCaches_AreNamespaced(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKV()
	names := NewItemNameRepository(store, "item_name_to_node_id")
	threads := NewThreadRepository(store, "post_id")

	require.NoError(t, names.Save(ctx, "PVTI_1", "audacity4"))

	_, ok, err := threads.Get(ctx, "PVTI_1")
	require.NoError(t, err)
	assert.False(t, ok)

	name, ok, err := names.Get(ctx, "PVTI_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "audacity4", name)
}

func TestCache_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	names := NewItemNameRepository(failingKV{err: boom}, "ns")

	_, ok, err := names.Get(context.Background(), "PVTI_1")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.ErrorIs(t, names.Save(context.Background(), "PVTI_1", "x"), boom)
}
