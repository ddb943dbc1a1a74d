package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Change feed sources.
const (
	ChangeFeedStore = "store"
	ChangeFeedRedis = "redis"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageDriver  string
	MigrationsPath string

	JWTSecret       string
	JWTIssuer       string
	FrontendBaseURL string

	// RateLimit uses the ulule/limiter formatted notation, e.g. "100-M".
	RateLimit string
	RedisURL  string
	// ChangeFeed selects where the projection hears about writes from other instances.
	ChangeFeed string

	ApprovalMaxAttempts int
	ApprovalLockTTL     time.Duration
	ProjectionPeriod    string

	NotificationBuffer int
	DiscordBotToken    string
	DiscordChannelID   string
	PosthogAPIKey      string
	PosthogEndpoint    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "org-funding-app")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CHANGE_FEED", ChangeFeedStore)
	v.SetDefault("APPROVAL_MAX_ATTEMPTS", 3)
	v.SetDefault("APPROVAL_LOCK_TTL", "10s")
	v.SetDefault("PROJECTION_PERIOD", "month")
	v.SetDefault("NOTIFICATION_BUFFER", 64)
	v.SetDefault("DISCORD_BOT_TOKEN", "")
	v.SetDefault("DISCORD_CHANNEL_ID", "")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:         v.GetString("PGSQL_URL"),
		Port:                v.GetString("PORT"),
		IsProduction:        v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       v.GetBool("ENABLE_DB_CHECK"),
		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsPath:      v.GetString("MIGRATIONS_PATH"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTIssuer:           v.GetString("JWT_ISSUER"),
		FrontendBaseURL:     v.GetString("FRONTEND_BASE_URL"),
		RateLimit:           v.GetString("RATE_LIMIT"),
		RedisURL:            v.GetString("REDIS_URL"),
		ChangeFeed:          strings.ToLower(v.GetString("CHANGE_FEED")),
		ApprovalMaxAttempts: v.GetInt("APPROVAL_MAX_ATTEMPTS"),
		ProjectionPeriod:    strings.ToLower(v.GetString("PROJECTION_PERIOD")),
		NotificationBuffer:  v.GetInt("NOTIFICATION_BUFFER"),
		DiscordBotToken:     v.GetString("DISCORD_BOT_TOKEN"),
		DiscordChannelID:    v.GetString("DISCORD_CHANNEL_ID"),
		PosthogAPIKey:       v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:     v.GetString("POSTHOG_ENDPOINT"),
	}

	lockTTLStr := v.GetString("APPROVAL_LOCK_TTL")
	lockTTL, err := time.ParseDuration(lockTTLStr)
	if err != nil || lockTTL <= 0 {
		lockTTL = 10 * time.Second
		log.Printf("Warning: Invalid value for APPROVAL_LOCK_TTL ('%s'). Defaulting to %s.\n", lockTTLStr, lockTTL)
	}
	cfg.ApprovalLockTTL = lockTTL

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.ApprovalMaxAttempts <= 0 {
		cfg.ApprovalMaxAttempts = 3
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL must be set when STORAGE_DRIVER=%s", StorageDriverPostgres)
		}
	case StorageDriverMemory:
		if cfg.IsProduction {
			return nil, fmt.Errorf("STORAGE_DRIVER=%s is not allowed in production", StorageDriverMemory)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.ChangeFeed {
	case ChangeFeedStore:
	case ChangeFeedRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL must be set when CHANGE_FEED=%s", ChangeFeedRedis)
		}
	default:
		return nil, fmt.Errorf("unknown CHANGE_FEED %q", cfg.ChangeFeed)
	}

	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}
