// Package discord adapts the discordgo REST session to the forum operations the relay performs.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/forum-relay/internal/domain"
)

// archivedPageSize is the page size requested when listing archived threads.
const archivedPageSize = 100

// Client issues Discord REST calls on behalf of the bot.
type Client struct {
	session *discordgo.Session
}

// New creates a REST-only client for the bot token. No gateway connection is opened.
func New(botToken string) (*Client, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Client{session: session}, nil
}

// FetchChannel returns the channel with the given id.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	ch, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	return toDomainChannel(ch), nil
}

// ActiveThreads lists every active thread in the guild.
func (c *Client) ActiveThreads(ctx context.Context, guildID string) ([]domain.Channel, error) {
	list, err := c.session.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list active threads of guild %s: %w", guildID, err)
	}
	return toDomainChannels(list), nil
}

// ArchivedThreads lists every public archived thread of a forum channel, newest first.
func (c *Client) ArchivedThreads(ctx context.Context, forumChannelID string) ([]domain.Channel, error) {
	return collectArchived(ctx, func(before *time.Time) (*discordgo.ThreadsList, error) {
		list, err := c.session.ThreadsArchived(forumChannelID, before, archivedPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list archived threads of %s: %w", forumChannelID, err)
		}
		return list, nil
	})
}

type archivedPageFunc func(before *time.Time) (*discordgo.ThreadsList, error)

// collectArchived walks archived thread pages, each one older than the last
// thread of the previous page, until the API reports no more.
func collectArchived(ctx context.Context, fetch archivedPageFunc) ([]domain.Channel, error) {
	var (
		channels []domain.Channel
		before   *time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, err := fetch(before)
		if err != nil {
			return nil, err
		}
		channels = append(channels, toDomainChannels(list)...)
		if list == nil || !list.HasMore {
			return channels, nil
		}
		next := oldestArchiveTimestamp(list)
		if next == nil || (before != nil && !next.Before(*before)) {
			return channels, nil
		}
		before = next
	}
}

func oldestArchiveTimestamp(list *discordgo.ThreadsList) *time.Time {
	var oldest *time.Time
	for _, thread := range list.Threads {
		if thread == nil || thread.ThreadMetadata == nil {
			continue
		}
		ts := thread.ThreadMetadata.ArchiveTimestamp
		if oldest == nil || ts.Before(*oldest) {
			oldest = &ts
		}
	}
	return oldest
}

// CreateForumPost starts a new thread in the forum with an initial message.
func (c *Client) CreateForumPost(ctx context.Context, forumChannelID string, post domain.NewPost) (*domain.Channel, error) {
	thread, err := c.session.ForumThreadStartComplex(forumChannelID,
		&discordgo.ThreadStart{
			Name:                post.Title,
			AutoArchiveDuration: post.AutoArchiveMinutes,
		},
		&discordgo.MessageSend{
			Content:         post.Content,
			AllowedMentions: allowedMentions(post.MentionUserIDs),
		},
		discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create forum post %q: %w", post.Title, err)
	}
	return toDomainChannel(thread), nil
}

// EditChannel applies a partial update to a channel.
func (c *Client) EditChannel(ctx context.Context, channelID string, edit domain.ChannelEdit) (*domain.Channel, error) {
	data := &discordgo.ChannelEdit{
		Archived:    edit.Archived,
		AppliedTags: edit.AppliedTags,
	}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	if edit.AvailableTags != nil {
		tags := make([]discordgo.ForumTag, 0, len(*edit.AvailableTags))
		for _, tag := range *edit.AvailableTags {
			tags = append(tags, discordgo.ForumTag{
				ID:        tag.ID,
				Name:      tag.Name,
				Moderated: tag.Moderated,
				EmojiID:   tag.EmojiID,
				EmojiName: tag.EmojiName,
			})
		}
		data.AvailableTags = &tags
	}

	ch, err := c.session.ChannelEdit(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("edit channel %s: %w", channelID, err)
	}
	return toDomainChannel(ch), nil
}

// DeleteChannel deletes a channel or thread.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := c.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

// SendMessage posts a message; only the listed users are pinged.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg domain.OutgoingMessage) error {
	_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         msg.Content,
		AllowedMentions: allowedMentions(msg.MentionUserIDs),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

func allowedMentions(userIDs []string) *discordgo.MessageAllowedMentions {
	users := make([]string, 0, len(userIDs))
	users = append(users, userIDs...)
	return &discordgo.MessageAllowedMentions{
		Parse: []discordgo.AllowedMentionType{},
		Users: users,
	}
}

func toDomainChannels(list *discordgo.ThreadsList) []domain.Channel {
	if list == nil {
		return nil
	}
	channels := make([]domain.Channel, 0, len(list.Threads))
	for _, thread := range list.Threads {
		if thread == nil {
			continue
		}
		channels = append(channels, *toDomainChannel(thread))
	}
	return channels
}

func toDomainChannel(ch *discordgo.Channel) *domain.Channel {
	if ch == nil {
		return nil
	}
	out := &domain.Channel{
		ID:          ch.ID,
		Name:        ch.Name,
		Type:        channelType(ch.Type),
		ParentID:    ch.ParentID,
		AppliedTags: append([]string(nil), ch.AppliedTags...),
	}
	if ch.ThreadMetadata != nil {
		out.Archived = ch.ThreadMetadata.Archived
	}
	for _, tag := range ch.AvailableTags {
		out.AvailableTags = append(out.AvailableTags, domain.ForumTag{
			ID:        tag.ID,
			Name:      tag.Name,
			Moderated: tag.Moderated,
			EmojiID:   tag.EmojiID,
			EmojiName: tag.EmojiName,
		})
	}
	return out
}

func channelType(t discordgo.ChannelType) domain.ChannelType {
	switch t {
	case discordgo.ChannelTypeGuildPublicThread:
		return domain.ChannelTypePublicThread
	case discordgo.ChannelTypeGuildForum:
		return domain.ChannelTypeForum
	default:
		return domain.ChannelTypeOther
	}
}
