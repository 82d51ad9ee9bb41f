package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-relay/internal/domain"
	"github.com/spec-kit/forum-relay/internal/events"
	"github.com/spec-kit/forum-relay/internal/observability"
	"github.com/spec-kit/forum-relay/internal/repository"
)

// Dispatcher outcomes recorded per event.
const (
	outcomeApplied = "applied"
	outcomeDropped = "dropped"
	outcomeFailed  = "failed"
)

// BotDependencies wires the dispatcher.
type BotDependencies struct {
	Queue      *events.Queue
	Forum      ForumClient
	Resolver   *PostResolver
	State      *ForumState
	Identities repository.IdentityRepository
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// ItemLink returns the tracker URL of an item, or "" to omit it.
	ItemLink func(itemID int64) string
}

// Bot drains the event queue one envelope at a time and mirrors each event
// into the forum.
type Bot struct {
	queue      *events.Queue
	forum      ForumClient
	resolver   *PostResolver
	state      *ForumState
	identities repository.IdentityRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
	itemLink   func(itemID int64) string
}

// NewBot constructs the dispatcher.
func NewBot(deps BotDependencies) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	itemLink := deps.ItemLink
	if itemLink == nil {
		itemLink = func(int64) string { return "" }
	}
	return &Bot{
		queue:      deps.Queue,
		forum:      deps.Forum,
		resolver:   deps.Resolver,
		state:      deps.State,
		identities: deps.Identities,
		logger:     logger,
		metrics:    deps.Metrics,
		itemLink:   itemLink,
	}
}

// Run processes events until ctx is cancelled or the queue is closed, in which
// case it returns nil. Fatal forum errors stop the loop and are returned.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("dispatcher started")
	for {
		if err := b.RunOnce(ctx); err != nil {
			if errors.Is(err, events.ErrQueueClosed) || ctx.Err() != nil {
				b.logger.Info("dispatcher stopped")
				return nil
			}
			return err
		}
	}
}

// RunOnce waits for the next envelope and processes it. Failures of the event
// itself are logged and swallowed; only queue and fatal forum errors are returned.
func (b *Bot) RunOnce(ctx context.Context) error {
	env, err := b.queue.Pop(ctx)
	if err != nil {
		return err
	}
	return b.handle(ctx, env)
}

func (b *Bot) handle(ctx context.Context, env events.Envelope) error {
	name := domain.EventName(env.Event)
	ref := env.Event.Ref()
	logger := b.logger.With(
		zap.String("delivery_id", env.DeliveryID),
		zap.String("event", name),
		zap.String("item", ref.Name),
	)
	logger.Info("processing event")

	err := b.safeProcess(ctx, logger, env.Event)
	switch {
	case err == nil:
		b.metrics.RecordEvent(name, outcomeApplied)
		return nil
	case errors.Is(err, ErrForumChannelNotFound), errors.Is(err, ErrTagInconsistent):
		b.metrics.RecordEvent(name, outcomeFailed)
		logger.Error("fatal forum error", zap.Error(err))
		return err
	case errors.Is(err, ErrNotAThread):
		b.metrics.RecordEvent(name, outcomeDropped)
		return nil
	default:
		b.metrics.RecordEvent(name, outcomeFailed)
		logger.Error("error processing update", zap.Error(err))
		return nil
	}
}

func (b *Bot) safeProcess(ctx context.Context, logger *zap.Logger, event domain.ProjectItemEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing event: %v", r)
		}
	}()
	return b.process(ctx, logger, event)
}

func (b *Bot) process(ctx context.Context, logger *zap.Logger, event domain.ProjectItemEvent) error {
	ref := event.Ref()
	author := b.resolveAuthor(logger, ref.SenderID)

	post, err := b.resolver.Resolve(ctx, ref.Name)
	if err != nil {
		return fmt.Errorf("resolve post: %w", err)
	}

	var thread *domain.Channel
	switch {
	case post == nil:
		logger.Info("post not found, creating new post")
		thread, err = b.createPost(ctx, logger, ref, author)
	case post.Thread != nil:
		thread = post.Thread
	default:
		thread, err = b.forum.FetchChannel(ctx, post.ID)
	}
	if err != nil {
		return err
	}

	if !thread.IsPublicThread() {
		if thread != nil && thread.ID != "" {
			logger.Error("post is not a public thread", zap.String("post_id", thread.ID))
		} else if post != nil {
			logger.Error("post is not a public thread", zap.String("post_id", post.ID))
		} else {
			logger.Error("post is not a public thread", zap.String("node_id", ref.NodeID))
		}
		return ErrNotAThread
	}

	msg, err := b.apply(ctx, event, thread, author)
	if err != nil {
		return err
	}
	if msg.Content == "" {
		return nil
	}
	for _, chunk := range splitMessage(msg.Content, maxMessageLength) {
		if err := b.forum.SendMessage(ctx, thread.ID, domain.OutgoingMessage{Content: chunk, MentionUserIDs: msg.MentionUserIDs}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) createPost(ctx context.Context, logger *zap.Logger, ref domain.ItemRef, author mention) (*domain.Channel, error) {
	content := fmt.Sprintf(msgCreated, ref.Name, author.text)
	if link := b.itemLink(ref.ItemID); link != "" {
		content += "\n" + link
	}

	var thread *domain.Channel
	err := b.state.Read(func(forum *domain.Channel) error {
		if forum == nil {
			return ErrForumChannelNotFound
		}
		var err error
		thread, err = b.forum.CreateForumPost(ctx, forum.ID, domain.NewPost{
			Title:              ref.Name,
			Content:            content,
			AutoArchiveMinutes: domain.AutoArchiveMinutes,
			MentionUserIDs:     author.ids,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if thread != nil && thread.ID != "" {
		if err := b.resolver.Remember(ctx, ref.Name, thread.ID); err != nil {
			logger.Warn("failed to cache new post", zap.String("post_id", thread.ID), zap.Error(err))
		}
	}
	return thread, nil
}
