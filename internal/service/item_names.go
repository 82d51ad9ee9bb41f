package service

import (
	"context"

	"github.com/spec-kit/forum-relay/internal/repository"
	apperrors "github.com/spec-kit/forum-relay/pkg/util/errorutil"
)

// ItemNames resolves item node ids to titles, reading through the item-name cache.
// A cached title is never refreshed, so renamed items keep their first title here.
type ItemNames struct {
	cache   repository.ItemNameRepository
	tracker Tracker
}

// NewItemNames constructs the read-through lookup.
func NewItemNames(cache repository.ItemNameRepository, tracker Tracker) *ItemNames {
	return &ItemNames{cache: cache, tracker: tracker}
}

// Name returns the title of the item, fetching and caching it on first reference.
func (n *ItemNames) Name(ctx context.Context, nodeID string) (string, error) {
	name, ok, err := n.cache.Get(ctx, nodeID)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if ok {
		return name, nil
	}

	name, err = n.tracker.ItemTitle(ctx, nodeID)
	if err != nil {
		return "", apperrors.NewUpstreamLookupFailed("Failed to fetch item name.", err)
	}
	if name == "" {
		return "", apperrors.NewUpstreamLookupFailed("Item name unavailable.", nil)
	}

	if err := n.cache.Save(ctx, nodeID, name); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return name, nil
}
