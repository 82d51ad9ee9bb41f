package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
)

// Config aggregates runtime configuration for the relay.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Discord  DiscordConfig
	GitHub   GitHubConfig
	Cache    CacheConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Admin    AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// DiscordConfig identifies the bot and the forum it posts into.
type DiscordConfig struct {
	BotToken       string
	GuildID        string
	ForumChannelID string
}

// GitHubConfig holds issue tracker access and webhook values.
type GitHubConfig struct {
	Token            string
	ProjectNodeID    string
	WebhookSecret    string
	GraphQLURL       string
	OrganizationName string
	ProjectNumber    string
}

// CacheConfig selects the key-value backend and the namespaces of both caches.
type CacheConfig struct {
	Backend     string
	ItemNameKey string
	PostIDKey   string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IdentityConfig points at the GitHub node id to Discord user id mapping.
type IdentityConfig struct {
	MappingPath string
}

// AdminConfig defines admin endpoint authentication.
type AdminConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "forum-relay"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Discord: DiscordConfig{
			BotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
			GuildID:        os.Getenv("DISCORD_GUILD_ID"),
			ForumChannelID: os.Getenv("FORUM_CHANNEL_ID"),
		},
		GitHub: GitHubConfig{
			Token:            os.Getenv("GITHUB_TOKEN"),
			ProjectNodeID:    os.Getenv("GITHUB_PROJECT_NODE_ID"),
			WebhookSecret:    os.Getenv("GITHUB_WEBHOOK_SECRET"),
			GraphQLURL:       getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
			OrganizationName: os.Getenv("GITHUB_ORGANIZATION_NAME"),
			ProjectNumber:    getEnv("GITHUB_PROJECT_NUMBER", "1"),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendRedis)),
			ItemNameKey: getEnv("ITEM_NAME_CACHE_KEY", "item_name_to_node_id"),
			PostIDKey:   getEnv("POST_ID_CACHE_KEY", "post_id"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Identity: IdentityConfig{
			MappingPath: getEnv("GITHUB_ID_TO_DISCORD_ID_MAPPING_PATH", "github_id_to_discord_id_mapping.yaml"),
		},
		Admin: AdminConfig{
			JWTSecret:       os.Getenv("ADMIN_JWT_SECRET"),
			TokenTTLMinutes: getEnvAsInt("ADMIN_TOKEN_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Validate reports every required value that is missing.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"DISCORD_BOT_TOKEN":      c.Discord.BotToken,
		"DISCORD_GUILD_ID":       c.Discord.GuildID,
		"FORUM_CHANNEL_ID":       c.Discord.ForumChannelID,
		"GITHUB_PROJECT_NODE_ID": c.GitHub.ProjectNodeID,
	}
	for _, key := range []string{"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "FORUM_CHANNEL_ID", "GITHUB_PROJECT_NODE_ID"} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	switch c.Cache.Backend {
	case CacheBackendRedis, CacheBackendMemory:
	case CacheBackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ItemLink builds the project board URL of an item, or "" when no organization is configured.
func (g GitHubConfig) ItemLink(itemID int64) string {
	if g.OrganizationName == "" || itemID == 0 {
		return ""
	}
	return fmt.Sprintf("https://github.com/orgs/%s/projects/%s?pane=issue&itemId=%d", g.OrganizationName, g.ProjectNumber, itemID)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
