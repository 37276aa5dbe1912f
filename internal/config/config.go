package config

import (
	"fmt"
	"os"
)

// Config holds the runtime settings for the server binary.
// Values come from the environment; Load applies defaults for everything
// except the secrets, which must be set explicitly.
type Config struct {
	ServerAddr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  []byte
	AdminToken string

	// TelegramBotToken enables the ops alert bot when non-empty.
	TelegramBotToken string
	// TelegramOpsChatID is the chat the alert bot posts to.
	TelegramOpsChatID int64
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:       getenv("SERVER_ADDR", ":8080"),
		DBHost:           getenv("DB_HOST", "localhost"),
		DBUser:           getenv("DB_USER", "user"),
		DBPassword:       getenv("DB_PASSWORD", "password"),
		DBName:           getenv("DB_NAME", "schoolchatdb"),
		DBPort:           getenv("DB_PORT", "5432"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	cfg.JWTSecret = []byte(secret)

	if chatID := os.Getenv("TELEGRAM_OPS_CHAT_ID"); chatID != "" {
		if _, err := fmt.Sscanf(chatID, "%d", &cfg.TelegramOpsChatID); err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_OPS_CHAT_ID: %w", err)
		}
	}

	return cfg, nil
}

// PostgresDSN builds the gorm connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}
