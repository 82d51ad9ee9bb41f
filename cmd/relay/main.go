package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/forum-relay/internal/api/http"
	"github.com/spec-kit/forum-relay/internal/api/http/handlers"
	"github.com/spec-kit/forum-relay/internal/auth"
	"github.com/spec-kit/forum-relay/internal/config"
	"github.com/spec-kit/forum-relay/internal/discord"
	"github.com/spec-kit/forum-relay/internal/events"
	"github.com/spec-kit/forum-relay/internal/github"
	"github.com/spec-kit/forum-relay/internal/observability"
	"github.com/spec-kit/forum-relay/internal/persistence"
	"github.com/spec-kit/forum-relay/internal/repository"
	"github.com/spec-kit/forum-relay/internal/service"
	"github.com/spec-kit/forum-relay/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	itemNames := repository.NewItemNameRepository(store, cfg.Cache.ItemNameKey)
	threads := repository.NewThreadRepository(store, cfg.Cache.PostIDKey)
	identities := repository.NewYAMLIdentityRepository(cfg.Identity.MappingPath)

	tracker := github.New(cfg.GitHub.GraphQLURL, cfg.GitHub.Token, &http.Client{Timeout: 30 * time.Second})
	forum, err := discord.New(cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal("failed to create discord client", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	queue := events.NewQueue()
	botLogger := logger.Named(observability.BotLogger)
	serverLogger := logger.Named(observability.ServerLogger)

	state, err := service.LoadForumState(ctx, forum, cfg.Discord.ForumChannelID)
	if err != nil {
		botLogger.Fatal("failed to load forum channel", zap.Error(err))
	}
	botLogger.Info("discord client ready", zap.String("forum_channel_id", cfg.Discord.ForumChannelID))

	bot := service.NewBot(service.BotDependencies{
		Queue:      queue,
		Forum:      forum,
		Resolver:   service.NewPostResolver(threads, forum, cfg.Discord.GuildID, cfg.Discord.ForumChannelID),
		State:      state,
		Identities: identities,
		Logger:     botLogger,
		Metrics:    metrics,
		ItemLink:   cfg.GitHub.ItemLink,
	})
	botDone := worker.StartBotWorker(ctx, bot, botLogger)

	classifier := service.NewClassifier(cfg.GitHub.ProjectNodeID, service.NewItemNames(itemNames, tracker), tracker)
	verifier := auth.NewSignatureVerifier(cfg.GitHub.WebhookSecret)
	if !verifier.Enabled() {
		serverLogger.Warn("GITHUB_WEBHOOK_SECRET is not set; signature verification is disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, serverLogger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Cache.Backend, store),
		Webhook: handlers.NewWebhookHandler(verifier, classifier, queue, serverLogger),
	}
	if cfg.Admin.JWTSecret != "" {
		routes.Admin = handlers.NewAdminHandler(threads, queue, metrics)
		routes.AdminMiddleware = auth.NewAdminMiddleware(auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTLMinutes))
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		serverLogger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			serverLogger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger, botDone)

	_ = app.ShutdownWithTimeout(5 * time.Second)
	queue.Close()
	cancel()
	<-botDone
}

// openStore connects the configured cache backend and returns it with its cleanup.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.KVStore, func()) {
	switch cfg.Cache.Backend {
	case config.CacheBackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, persistence.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresKV(pg.Pool), pg.Close
	case config.CacheBackendMemory:
		logger.Warn("using in-memory cache; thread mappings are lost on restart")
		return repository.NewMemoryKV(), func() {}
	default:
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		return repository.NewRedisKV(rdb.Client), rdb.Close
	}
}

// waitForShutdown blocks until a termination signal arrives or the bot stops on its own.
func waitForShutdown(logger *zap.Logger, botDone <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-botDone:
		logger.Error("bot stopped; shutting down")
	}
}
