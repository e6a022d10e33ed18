package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken        string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database configuration
	DatabaseURL string

	// Bot configuration
	CommandPrefix     string
	HeartbeatName     string
	AdminDiscordIDs   []int64 // Discord IDs treated as super administrators
	PresencePollSecs  int
	HeartbeatInterval int // seconds

	// Dashboard configuration
	HTTPPort      string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	AdminUsername string
	AdminPassword string

	// Generative text API used for channel rename suggestions
	GeminiAPIKey string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  os.Getenv("DISCORD_REDIRECT_URI"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Bot settings with defaults
		CommandPrefix:     "저스트 ",
		HeartbeatName:     "justbot",
		PresencePollSecs:  60,
		HeartbeatInterval: 60,

		HTTPPort:      os.Getenv("HTTP_PORT"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AdminUsername: os.Getenv("DASHBOARD_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("DASHBOARD_ADMIN_PASSWORD"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if prefix := os.Getenv("COMMAND_PREFIX"); prefix != "" {
		config.CommandPrefix = prefix
	}
	if name := os.Getenv("HEARTBEAT_NAME"); name != "" {
		config.HeartbeatName = name
	}
	if secs := os.Getenv("PRESENCE_POLL_SECONDS"); secs != "" {
		if parsed, err := strconv.Atoi(secs); err == nil {
			config.PresencePollSecs = parsed
		}
	}

	// Parse admin Discord IDs
	if adminIDs := os.Getenv("ADMIN_DISCORD_IDS"); adminIDs != "" {
		idStrings := strings.Split(adminIDs, ",")
		for _, idStr := range idStrings {
			idStr = strings.TrimSpace(idStr)
			if idStr != "" {
				if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
					config.AdminDiscordIDs = append(config.AdminDiscordIDs, id)
				}
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}
	if config.RedisAddr == "" {
		config.RedisAddr = "127.0.0.1:6379"
	}
	if config.AdminUsername == "" {
		config.AdminUsername = "admin"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether the given Discord ID is a configured super administrator.
func (c *Config) IsAdmin(discordID int64) bool {
	for _, id := range c.AdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}
