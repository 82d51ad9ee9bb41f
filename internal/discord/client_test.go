package discord

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/forum-relay/internal/domain"
)

func TestToDomainChannel_Thread(t *testing.T) {
	ch := toDomainChannel(&discordgo.Channel{
		ID:             "621",
		Name:           "audacity4",
		Type:           discordgo.ChannelTypeGuildPublicThread,
		ParentID:       "67",
		AppliedTags:    []string{"1", "2"},
		ThreadMetadata: &discordgo.ThreadMetadata{Archived: true},
	})

	require.NotNil(t, ch)
	assert.Equal(t, "621", ch.ID)
	assert.Equal(t, "audacity4", ch.Name)
	assert.Equal(t, "67", ch.ParentID)
	assert.True(t, ch.IsPublicThread())
	assert.True(t, ch.Archived)
	assert.Equal(t, []string{"1", "2"}, ch.AppliedTags)
}

func TestToDomainChannel_Forum(t *testing.T) {
	ch := toDomainChannel(&discordgo.Channel{
		ID:   "67",
		Type: discordgo.ChannelTypeGuildForum,
		AvailableTags: []discordgo.ForumTag{
			{ID: "1", Name: "Size: small"},
			{ID: "2", Name: "Status: Done", Moderated: true, EmojiName: "✅"},
		},
	})

	assert.Equal(t, domain.ChannelTypeForum, ch.Type)
	assert.Equal(t, []domain.ForumTag{
		{ID: "1", Name: "Size: small"},
		{ID: "2", Name: "Status: Done", Moderated: true, EmojiName: "✅"},
	}, ch.AvailableTags)
	assert.False(t, ch.IsPublicThread())
}

func TestChannelType(t *testing.T) {
	assert.Equal(t, domain.ChannelTypeOther, channelType(discordgo.ChannelTypeGuildText))
	assert.Equal(t, domain.ChannelTypeOther, channelType(discordgo.ChannelTypeGuildPrivateThread))
	assert.Nil(t, toDomainChannel(nil))
}

func TestToDomainChannels(t *testing.T) {
	list := &discordgo.ThreadsList{Threads: []*discordgo.Channel{
		{ID: "1", Name: "a", Type: discordgo.ChannelTypeGuildPublicThread},
		nil,
		{ID: "2", Name: "b", Type: discordgo.ChannelTypeGuildPublicThread},
	}}

	channels := toDomainChannels(list)
	require.Len(t, channels, 2)
	assert.Equal(t, "b", channels[1].Name)
	assert.Nil(t, toDomainChannels(nil))
}

func TestAllowedMentions(t *testing.T) {
	mentions := allowedMentions([]string{"2137696742041"})
	assert.Equal(t, []string{"2137696742041"}, mentions.Users)
	assert.Empty(t, mentions.Parse)

	none := allowedMentions(nil)
	assert.NotNil(t, none.Users)
	assert.Empty(t, none.Users)
}

func archivedThread(id string, archivedAt time.Time) *discordgo.Channel {
	return &discordgo.Channel{
		ID:             id,
		Name:           "item-" + id,
		Type:           discordgo.ChannelTypeGuildPublicThread,
		ThreadMetadata: &discordgo.ThreadMetadata{Archived: true, ArchiveTimestamp: archivedAt},
	}
}

func TestCollectArchived_FollowsPages(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var threads []*discordgo.Channel
	for i := 0; i < 250; i++ {
		threads = append(threads, archivedThread(fmt.Sprint(i), base.Add(-time.Duration(i)*time.Minute)))
	}

	var befores []*time.Time
	fetch := func(before *time.Time) (*discordgo.ThreadsList, error) {
		befores = append(befores, before)
		var page []*discordgo.Channel
		for _, thread := range threads {
			if before != nil && !thread.ThreadMetadata.ArchiveTimestamp.Before(*before) {
				continue
			}
			if len(page) == archivedPageSize {
				return &discordgo.ThreadsList{Threads: page, HasMore: true}, nil
			}
			page = append(page, thread)
		}
		return &discordgo.ThreadsList{Threads: page}, nil
	}

	channels, err := collectArchived(context.Background(), fetch)

	require.NoError(t, err)
	require.Len(t, channels, 250)
	assert.Equal(t, "0", channels[0].ID)
	assert.Equal(t, "249", channels[249].ID)
	require.Len(t, befores, 3)
	assert.Nil(t, befores[0])
	assert.Equal(t, base.Add(-99*time.Minute), *befores[1])
	assert.Equal(t, base.Add(-199*time.Minute), *befores[2])
}

func TestCollectArchived_StopsWhenCursorDoesNotAdvance(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	fetch := func(before *time.Time) (*discordgo.ThreadsList, error) {
		calls++
		return &discordgo.ThreadsList{Threads: []*discordgo.Channel{archivedThread("1", stamp)}, HasMore: true}, nil
	}

	channels, err := collectArchived(context.Background(), fetch)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, channels, 2)
}

func TestCollectArchived_PropagatesErrors(t *testing.T) {
	boom := errors.New("discord: 500")
	calls := 0
	fetch := func(before *time.Time) (*discordgo.ThreadsList, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return &discordgo.ThreadsList{Threads: []*discordgo.Channel{archivedThread("1", time.Now())}, HasMore: true}, nil
	}

	_, err := collectArchived(context.Background(), fetch)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = collectArchived(ctx, fetch)
	assert.ErrorIs(t, err, context.Canceled)
}
