package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/forum-relay/internal/domain"
)

var (
	// ErrForumChannelNotFound means the configured forum channel is missing or is not a forum.
	ErrForumChannelNotFound = errors.New("forum channel not found")
	// ErrTagInconsistent means a freshly created tag is absent from the refreshed forum.
	ErrTagInconsistent = errors.New("forum tag missing after creation")
	// ErrNotAThread means a resolved post is not a public forum thread.
	ErrNotAThread = errors.New("resolved post is not a public thread")
)

// ForumState guards the snapshot of the forum channel. Readers run concurrently;
// a writer excludes readers and other writers until the snapshot is swapped.
type ForumState struct {
	mu      sync.RWMutex
	channel *domain.Channel
}

// NewForumState wraps an already fetched forum channel.
func NewForumState(channel *domain.Channel) *ForumState {
	return &ForumState{channel: channel}
}

// LoadForumState fetches the forum channel and wraps it.
func LoadForumState(ctx context.Context, forum ForumClient, forumChannelID string) (*ForumState, error) {
	channel, err := forum.FetchChannel(ctx, forumChannelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrForumChannelNotFound, forumChannelID, err)
	}
	if channel == nil || channel.Type != domain.ChannelTypeForum {
		return nil, fmt.Errorf("%w: %s", ErrForumChannelNotFound, forumChannelID)
	}
	return NewForumState(channel), nil
}

// Read runs fn with shared access to the snapshot. fn must not retain it.
func (s *ForumState) Read(fn func(forum *domain.Channel) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.channel)
}

// Update runs fn with exclusive access. When fn returns a non-nil channel it
// replaces the snapshot.
func (s *ForumState) Update(fn func(current *domain.Channel) (*domain.Channel, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.channel)
	if err != nil {
		return err
	}
	if next != nil {
		s.channel = next
	}
	return nil
}

// Snapshot returns a copy of the current forum channel.
func (s *ForumState) Snapshot() domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.channel == nil {
		return domain.Channel{}
	}
	clone := *s.channel
	clone.AvailableTags = append([]domain.ForumTag(nil), s.channel.AvailableTags...)
	clone.AppliedTags = append([]string(nil), s.channel.AppliedTags...)
	return clone
}
