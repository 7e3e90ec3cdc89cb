package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(func() (*Config, error) { return Load(".env") }))

// Config represents the bot configuration
type Config struct {
	AppEnv      string
	BotToken    string
	BotUsername string
	BotDebug    bool
	AdminUsers  []string

	Database struct {
		Driver string
		DSN    string
	}
	Session struct {
		Backend string
		TTL     time.Duration
		Sweep   string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	BroadcastProgressEvery int
}

// Load reads configuration from an optional .env file and the environment.
// Values already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_DSN", "./bot.db")
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_SWEEP", "@every 10m")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BROADCAST_PROGRESS_EVERY", 25)

	cfg := &Config{
		AppEnv:                 v.GetString("APP_ENV"),
		BotToken:               v.GetString("BOT_TOKEN"),
		BotUsername:            strings.TrimPrefix(v.GetString("BOT_USERNAME"), "@"),
		BotDebug:               v.GetBool("BOT_DEBUG"),
		AdminUsers:             parseCommaSeparated(v.GetString("ADMIN_USERS")),
		BroadcastProgressEvery: v.GetInt("BROADCAST_PROGRESS_EVERY"),
	}
	cfg.Database.Driver = v.GetString("DB_DRIVER")
	cfg.Database.DSN = v.GetString("DB_DSN")
	cfg.Session.Backend = v.GetString("SESSION_BACKEND")
	cfg.Session.TTL = v.GetDuration("SESSION_TTL")
	cfg.Session.Sweep = v.GetString("SESSION_SWEEP")
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s", c.Database.Driver)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND: %s", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.BroadcastProgressEvery <= 0 {
		c.BroadcastProgressEvery = 25
	}
	return nil
}

// IsAdmin checks if a username is in the list of admin users
func (c *Config) IsAdmin(username string) bool {
	username = strings.TrimPrefix(username, "@")
	if username == "" {
		return false
	}
	for _, admin := range c.AdminUsers {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimPrefix(strings.TrimSpace(part), "@")
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
