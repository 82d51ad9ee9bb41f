package service

import (
	"context"

	"github.com/spec-kit/forum-relay/internal/domain"
)

// ForumClient is the chat-platform surface the relay drives. Retry policies,
// if ever needed, belong in an implementation of this interface.
type ForumClient interface {
	FetchChannel(ctx context.Context, channelID string) (*domain.Channel, error)
	ActiveThreads(ctx context.Context, guildID string) ([]domain.Channel, error)
	ArchivedThreads(ctx context.Context, forumChannelID string) ([]domain.Channel, error)
	CreateForumPost(ctx context.Context, forumChannelID string, post domain.NewPost) (*domain.Channel, error)
	EditChannel(ctx context.Context, channelID string, edit domain.ChannelEdit) (*domain.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, channelID string, msg domain.OutgoingMessage) error
}

// Tracker is the issue-tracker surface used to enrich webhook payloads.
type Tracker interface {
	ItemTitle(ctx context.Context, itemNodeID string) (string, error)
	ItemAssignees(ctx context.Context, itemNodeID string) ([]string, error)
	SingleSelectValue(ctx context.Context, itemNodeID, fieldName string) (string, error)
}
