package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	NATS         NATSConfig
	Telegram     TelegramConfig
	Admin        AdminConfig
	Verification VerificationConfig
	Shortlink    ShortlinkConfig
}

type ServerConfig struct {
	Port         string
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type TelegramConfig struct {
	BotToken   string
	WebhookURL string
	AdminIDs   []int64
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	SessionTTL   time.Duration
}

type VerificationConfig struct {
	Enabled      bool
	FreeLimit    int
	ResetHour    int
	Period       time.Duration
	TokenTTL     time.Duration
	TutorialLink string
}

type ShortlinkConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			BaseURL:      getEnv("SITE_BASE_URL", "http://localhost:8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "moviegate"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("BOT_TOKEN", ""),
			WebhookURL: getEnv("WEBHOOK_URL", ""),
			AdminIDs:   getInt64List("ADMIN_IDS"),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			SessionTTL:   getDuration("ADMIN_SESSION_TTL", 12*time.Hour),
		},
		Verification: VerificationConfig{
			Enabled:      getBool("VERIFICATION_ON", true),
			FreeLimit:    getInt("VERIFICATION_FREE_LIMIT", 3),
			ResetHour:    getInt("VERIFICATION_RESET_HOUR", 0),
			Period:       time.Duration(getInt("VERIFICATION_PERIOD_HOURS", 24)) * time.Hour,
			TokenTTL:     time.Duration(getInt("VERIFICATION_TOKEN_TTL", 604800)) * time.Second,
			TutorialLink: getEnv("VERIFICATION_TUTORIAL_LINK", ""),
		},
		Shortlink: ShortlinkConfig{
			APIURL:  getEnv("SHORTLINK_API_URL", ""),
			APIKey:  getEnv("SHORTLINK_API_KEY", ""),
			Timeout: getDuration("SHORTLINK_TIMEOUT", 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getInt64List(key string) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
