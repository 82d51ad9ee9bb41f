package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-relay/internal/domain"
)

// maxMessageLength is the per-message character limit of the chat platform.
const maxMessageLength = 2000

// Messages posted into threads.
const (
	msgCreated      = "Nowy task stworzony %s przez: %s"
	msgArchived     = "Task zarchiwizowany przez: %s."
	msgRestored     = "Task przywrócony przez: %s."
	msgBodyEdited   = "Opis taska zaktualizowany przez: %s. Nowy opis: \n%s"
	msgAssignees    = "Osoby przypisane do taska edytowane, aktualni przypisani: %s"
	msgNoAssignees  = "Osoby przypisane do taska edytowane, brak przypisanych osób."
	msgDateEdited   = "Data zadania zaktualizowana przez: %s. Nowa data: %s"
	unknownUserText = "nieznany użytkownik"
)

// mention is a resolved chat identity: the text shown in a message and the
// user ids allowed to be pinged by it.
type mention struct {
	text string
	ids  []string
}

func (b *Bot) resolveAuthor(logger *zap.Logger, senderID string) mention {
	id, ok := b.discordID(logger, senderID)
	if !ok {
		return mention{text: unknownUserText}
	}
	return mention{text: userMention(id), ids: []string{id}}
}

func (b *Bot) discordID(logger *zap.Logger, githubNodeID string) (string, bool) {
	if b.identities == nil {
		return "", false
	}
	id, ok, err := b.identities.DiscordID(githubNodeID)
	if err != nil {
		logger.Warn("identity lookup failed", zap.String("node_id", githubNodeID), zap.Error(err))
		return "", false
	}
	return id, ok
}

func userMention(discordID string) string {
	return "<@" + discordID + ">"
}

// apply performs the side effect of event on thread and returns the message to post, if any.
func (b *Bot) apply(ctx context.Context, event domain.ProjectItemEvent, thread *domain.Channel, author mention) (domain.OutgoingMessage, error) {
	reply := func(format string, args ...any) domain.OutgoingMessage {
		return domain.OutgoingMessage{Content: fmt.Sprintf(format, args...), MentionUserIDs: author.ids}
	}

	switch e := event.(type) {
	case domain.SimpleEvent:
		switch e.Kind {
		case domain.SimpleEventCreated:
			return domain.OutgoingMessage{}, nil
		case domain.SimpleEventArchived:
			if err := b.setArchived(ctx, thread.ID, true); err != nil {
				return domain.OutgoingMessage{}, err
			}
			return reply(msgArchived, author.text), nil
		case domain.SimpleEventRestored:
			if err := b.setArchived(ctx, thread.ID, false); err != nil {
				return domain.OutgoingMessage{}, err
			}
			return reply(msgRestored, author.text), nil
		case domain.SimpleEventDeleted:
			return domain.OutgoingMessage{}, b.forum.DeleteChannel(ctx, thread.ID)
		}
		return domain.OutgoingMessage{}, fmt.Errorf("unhandled simple event kind %q", e.Kind)

	case domain.BodyEdited:
		return reply(msgBodyEdited, author.text, e.Body), nil

	case domain.TitleEdited:
		title := e.Title
		_, err := b.forum.EditChannel(ctx, thread.ID, domain.ChannelEdit{Name: &title})
		return domain.OutgoingMessage{}, err

	case domain.AssigneesEdited:
		return b.assigneesMessage(e), nil

	case domain.SingleSelectEdited:
		return domain.OutgoingMessage{}, b.applySingleSelect(ctx, thread, e)

	case domain.DateEdited:
		return reply(msgDateEdited, author.text, e.Date), nil
	}
	return domain.OutgoingMessage{}, fmt.Errorf("unhandled event type %T", event)
}

func (b *Bot) setArchived(ctx context.Context, threadID string, archived bool) error {
	_, err := b.forum.EditChannel(ctx, threadID, domain.ChannelEdit{Archived: &archived})
	return err
}

// assigneesMessage mentions every assignee with a known chat identity. Unknown
// assignees are listed by node id and are not pinged.
func (b *Bot) assigneesMessage(e domain.AssigneesEdited) domain.OutgoingMessage {
	if len(e.Assignees) == 0 {
		return domain.OutgoingMessage{Content: msgNoAssignees}
	}
	logger := b.logger.With(zap.String("item", e.Name))
	texts := make([]string, 0, len(e.Assignees))
	var ids []string
	for _, nodeID := range e.Assignees {
		id, ok := b.discordID(logger, nodeID)
		if !ok {
			texts = append(texts, nodeID)
			continue
		}
		texts = append(texts, userMention(id))
		ids = append(ids, id)
	}
	return domain.OutgoingMessage{
		Content:        fmt.Sprintf(msgAssignees, strings.Join(texts, ", ")),
		MentionUserIDs: ids,
	}
}

// applySingleSelect keeps at most one tag per field prefix on the thread. An
// empty value clears the field.
func (b *Bot) applySingleSelect(ctx context.Context, thread *domain.Channel, e domain.SingleSelectEdited) error {
	tagName := domain.TagName(e.Field, e.Value)
	applied := make([]string, 0, len(thread.AppliedTags)+1)
	var (
		tag   domain.ForumTag
		found bool
	)
	err := b.state.Read(func(forum *domain.Channel) error {
		for _, id := range thread.AppliedTags {
			if current, ok := forum.TagByID(id); ok && domain.HasTagPrefix(current.Name, e.Field) {
				continue
			}
			applied = append(applied, id)
		}
		if e.Value != "" {
			tag, found = forum.TagByName(tagName)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.Value != "" {
		if !found {
			if tag, err = b.createTag(ctx, tagName); err != nil {
				return err
			}
		}
		applied = append(applied, tag.ID)
	}

	_, err = b.forum.EditChannel(ctx, thread.ID, domain.ChannelEdit{AppliedTags: &applied})
	return err
}

// createTag adds a tag to the forum, refreshes the shared snapshot and returns
// the tag as assigned by the platform.
func (b *Bot) createTag(ctx context.Context, name string) (domain.ForumTag, error) {
	var tag domain.ForumTag
	err := b.state.Update(func(forum *domain.Channel) (*domain.Channel, error) {
		if forum == nil {
			return nil, ErrForumChannelNotFound
		}
		if existing, ok := forum.TagByName(name); ok {
			tag = existing
			return nil, nil
		}

		tags := make([]domain.ForumTag, 0, len(forum.AvailableTags)+1)
		tags = append(tags, forum.AvailableTags...)
		tags = append(tags, domain.ForumTag{Name: name})
		if _, err := b.forum.EditChannel(ctx, forum.ID, domain.ChannelEdit{AvailableTags: &tags}); err != nil {
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}

		refreshed, err := b.forum.FetchChannel(ctx, forum.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh forum channel: %w", err)
		}
		if refreshed == nil || refreshed.Type != domain.ChannelTypeForum {
			return nil, fmt.Errorf("%w: %s", ErrForumChannelNotFound, forum.ID)
		}
		created, ok := refreshed.TagByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTagInconsistent, name)
		}
		b.logger.Info("forum tag created", zap.String("tag", name), zap.String("tag_id", created.ID))
		tag = created
		return refreshed, nil
	})
	return tag, err
}

// splitMessage cuts content into chunks of at most limit characters.
func splitMessage(content string, limit int) []string {
	if utf8.RuneCountInString(content) <= limit {
		return []string{content}
	}
	runes := []rune(content)
	chunks := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
