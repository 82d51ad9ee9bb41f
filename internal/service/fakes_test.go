package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/forum-relay/internal/domain"
)

const (
	testGuildID = "10"
	testForumID = "100"
)

var errUnknownChannel = errors.New("unknown channel")

// fakeForum is an in-memory chat platform holding one forum and its threads.
type fakeForum struct {
	mu       sync.Mutex
	channels map[string]*domain.Channel
	calls    map[string]int
	messages map[string][]domain.OutgoingMessage
	posts    []domain.NewPost
	nextID   int

	sendErr         error
	dropCreatedTags bool
}

func newFakeForum(tags ...domain.ForumTag) *fakeForum {
	f := &fakeForum{
		channels: map[string]*domain.Channel{},
		calls:    map[string]int{},
		messages: map[string][]domain.OutgoingMessage{},
		nextID:   900,
	}
	f.channels[testForumID] = &domain.Channel{
		ID:            testForumID,
		Name:          "tasks",
		Type:          domain.ChannelTypeForum,
		AvailableTags: tags,
	}
	return f
}

func (f *fakeForum) addThread(id, name string, appliedTags ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[id] = &domain.Channel{
		ID:          id,
		Name:        name,
		Type:        domain.ChannelTypePublicThread,
		ParentID:    testForumID,
		AppliedTags: appliedTags,
	}
}

func (f *fakeForum) channel(id string) domain.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneChannel(f.channels[id])
}

func (f *fakeForum) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeForum) sent(channelID string) []domain.OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OutgoingMessage(nil), f.messages[channelID]...)
}

func (f *fakeForum) FetchChannel(_ context.Context, channelID string) (*domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["FetchChannel"]++
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errUnknownChannel
	}
	clone := cloneChannel(ch)
	return &clone, nil
}

func (f *fakeForum) ActiveThreads(_ context.Context, _ string) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ActiveThreads"]++
	return f.threads(false), nil
}

func (f *fakeForum) ArchivedThreads(_ context.Context, _ string) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ArchivedThreads"]++
	return f.threads(true), nil
}

func (f *fakeForum) threads(archived bool) []domain.Channel {
	var out []domain.Channel
	for _, ch := range f.channels {
		if ch.Type == domain.ChannelTypeForum || ch.Archived != archived {
			continue
		}
		out = append(out, cloneChannel(ch))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeForum) CreateForumPost(_ context.Context, forumChannelID string, post domain.NewPost) (*domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateForumPost"]++
	f.posts = append(f.posts, post)
	f.nextID++
	thread := &domain.Channel{
		ID:       fmt.Sprintf("%d", f.nextID),
		Name:     post.Title,
		Type:     domain.ChannelTypePublicThread,
		ParentID: forumChannelID,
	}
	f.channels[thread.ID] = thread
	clone := cloneChannel(thread)
	return &clone, nil
}

func (f *fakeForum) EditChannel(_ context.Context, channelID string, edit domain.ChannelEdit) (*domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["EditChannel"]++
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errUnknownChannel
	}
	if edit.Name != nil {
		ch.Name = *edit.Name
	}
	if edit.Archived != nil {
		ch.Archived = *edit.Archived
	}
	if edit.AppliedTags != nil {
		ch.AppliedTags = append([]string(nil), (*edit.AppliedTags)...)
	}
	if edit.AvailableTags != nil {
		tags := make([]domain.ForumTag, 0, len(*edit.AvailableTags))
		for _, tag := range *edit.AvailableTags {
			if tag.ID == "" {
				if f.dropCreatedTags {
					continue
				}
				f.nextID++
				tag.ID = fmt.Sprintf("tag-%d", f.nextID)
			}
			tags = append(tags, tag)
		}
		ch.AvailableTags = tags
	}
	clone := cloneChannel(ch)
	return &clone, nil
}

func (f *fakeForum) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteChannel"]++
	if _, ok := f.channels[channelID]; !ok {
		return errUnknownChannel
	}
	delete(f.channels, channelID)
	return nil
}

func (f *fakeForum) SendMessage(_ context.Context, channelID string, msg domain.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SendMessage"]++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	return nil
}

func cloneChannel(ch *domain.Channel) domain.Channel {
	if ch == nil {
		return domain.Channel{}
	}
	clone := *ch
	clone.AppliedTags = append([]string(nil), ch.AppliedTags...)
	clone.AvailableTags = append([]domain.ForumTag(nil), ch.AvailableTags...)
	return clone
}

// fakeTracker serves canned issue tracker lookups.
type fakeTracker struct {
	mu           sync.Mutex
	titles       map[string]string
	assignees    map[string][]string
	singleSelect map[string]string
	err          error
	calls        map[string]int
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		titles:       map[string]string{},
		assignees:    map[string][]string{},
		singleSelect: map[string]string{},
		calls:        map[string]int{},
	}
}

func (t *fakeTracker) callCount(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[name]
}

func (t *fakeTracker) ItemTitle(_ context.Context, nodeID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls["ItemTitle"]++
	if t.err != nil {
		return "", t.err
	}
	return t.titles[nodeID], nil
}

func (t *fakeTracker) ItemAssignees(_ context.Context, nodeID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls["ItemAssignees"]++
	if t.err != nil {
		return nil, t.err
	}
	return t.assignees[nodeID], nil
}

func (t *fakeTracker) SingleSelectValue(_ context.Context, nodeID, fieldName string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls["SingleSelectValue"]++
	if t.err != nil {
		return "", t.err
	}
	return t.singleSelect[nodeID+"/"+fieldName], nil
}

// fakeIdentities maps GitHub node ids to Discord ids.
type fakeIdentities map[string]string

func (m fakeIdentities) DiscordID(githubNodeID string) (string, bool, error) {
	id, ok := m[githubNodeID]
	return id, ok, nil
}
