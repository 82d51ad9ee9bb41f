package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/forum-relay/internal/domain"
	"github.com/spec-kit/forum-relay/internal/repository"
)

// PostRef is the outcome of a successful resolution. A cache hit yields only ID;
// a live lookup also carries the full Thread.
type PostRef struct {
	ID     string
	Thread *domain.Channel
}

// PostResolver maps item names to forum threads.
type PostResolver struct {
	threads        repository.ThreadRepository
	forum          ForumClient
	guildID        string
	forumChannelID string
}

// NewPostResolver constructs a resolver searching the given guild and forum.
func NewPostResolver(threads repository.ThreadRepository, forum ForumClient, guildID, forumChannelID string) *PostResolver {
	return &PostResolver{threads: threads, forum: forum, guildID: guildID, forumChannelID: forumChannelID}
}

// Resolve returns the thread of itemName, or nil when none exists yet.
// Matches found through live lookups are persisted before returning.
func (r *PostResolver) Resolve(ctx context.Context, itemName string) (*PostRef, error) {
	id, ok, err := r.threads.Get(ctx, itemName)
	if err != nil {
		return nil, fmt.Errorf("read thread cache: %w", err)
	}
	if ok {
		return &PostRef{ID: id}, nil
	}

	active, err := r.forum.ActiveThreads(ctx, r.guildID)
	if err != nil {
		return nil, err
	}
	if thread := findByName(active, itemName); thread != nil {
		return r.remembered(ctx, itemName, thread)
	}

	archived, err := r.forum.ArchivedThreads(ctx, r.forumChannelID)
	if err != nil {
		return nil, err
	}
	if thread := findByName(archived, itemName); thread != nil {
		return r.remembered(ctx, itemName, thread)
	}

	return nil, nil
}

// Remember stores the thread id of a freshly created post.
func (r *PostResolver) Remember(ctx context.Context, itemName, threadID string) error {
	if err := r.threads.Save(ctx, itemName, threadID); err != nil {
		return fmt.Errorf("write thread cache: %w", err)
	}
	return nil
}

func (r *PostResolver) remembered(ctx context.Context, itemName string, thread *domain.Channel) (*PostRef, error) {
	if err := r.Remember(ctx, itemName, thread.ID); err != nil {
		return nil, err
	}
	return &PostRef{ID: thread.ID, Thread: thread}, nil
}

func findByName(channels []domain.Channel, name string) *domain.Channel {
	for i := range channels {
		if channels[i].Name == name {
			found := channels[i]
			return &found
		}
	}
	return nil
}
