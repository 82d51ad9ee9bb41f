package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxTagNameLength is the longest forum tag name the chat platform accepts.
const MaxTagNameLength = 48

// AutoArchiveMinutes is the inactivity period after which new posts archive (7 days).
const AutoArchiveMinutes = 10080

// ChannelType distinguishes the chat channel kinds the relay cares about.
type ChannelType string

const (
	ChannelTypePublicThread ChannelType = "public_thread"
	ChannelTypeForum        ChannelType = "forum"
	ChannelTypeOther        ChannelType = "other"
)

// ForumTag is a tag defined on a forum channel. Moderation and emoji settings are
// carried so that rewriting the tag list leaves existing tags untouched.
type ForumTag struct {
	ID        string
	Name      string
	Moderated bool
	EmojiID   string
	EmojiName string
}

// Channel is the subset of a chat channel the relay reads and edits.
// Threads carry AppliedTags; forums carry AvailableTags.
type Channel struct {
	ID            string
	Name          string
	Type          ChannelType
	ParentID      string
	Archived      bool
	AppliedTags   []string
	AvailableTags []ForumTag
}

// IsPublicThread reports whether the channel is a public thread, the only kind of post the relay edits.
func (c *Channel) IsPublicThread() bool {
	return c != nil && c.Type == ChannelTypePublicThread
}

// TagByName returns the available tag with exactly the given name.
func (c *Channel) TagByName(name string) (ForumTag, bool) {
	if c == nil {
		return ForumTag{}, false
	}
	for _, tag := range c.AvailableTags {
		if tag.Name == name {
			return tag, true
		}
	}
	return ForumTag{}, false
}

// TagByID returns the available tag with the given id.
func (c *Channel) TagByID(id string) (ForumTag, bool) {
	if c == nil {
		return ForumTag{}, false
	}
	for _, tag := range c.AvailableTags {
		if tag.ID == id {
			return tag, true
		}
	}
	return ForumTag{}, false
}

// ChannelEdit describes a partial channel update; nil fields are left unchanged.
type ChannelEdit struct {
	Name          *string
	Archived      *bool
	AppliedTags   *[]string
	AvailableTags *[]ForumTag
}

// NewPost is the payload of a forum post creation.
type NewPost struct {
	Title              string
	Content            string
	AutoArchiveMinutes int
	MentionUserIDs     []string
}

// OutgoingMessage is a message posted into a thread.
type OutgoingMessage struct {
	Content        string
	MentionUserIDs []string
}

// TagPrefix is the name prefix shared by all tags of a field type.
func TagPrefix(field FieldType) string {
	return string(field) + ": "
}

// TagName encodes a field value as a forum tag name, truncated to MaxTagNameLength characters.
func TagName(field FieldType, value string) string {
	name := TagPrefix(field) + value
	if utf8.RuneCountInString(name) <= MaxTagNameLength {
		return name
	}
	return string([]rune(name)[:MaxTagNameLength])
}

// HasTagPrefix reports whether tagName belongs to the given field type.
func HasTagPrefix(tagName string, field FieldType) bool {
	return strings.HasPrefix(tagName, TagPrefix(field))
}
