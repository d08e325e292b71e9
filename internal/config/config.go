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

const devJWTSecret = "insecure-development-secret"

// Config captures the runtime configuration for the social graph service.
type Config struct {
	AppPort      int
	DatabaseURL  string
	MigrationDir string
	SeedDir      string
	LogLevel     string
	RedisURL     string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	FriendRequestLimit  int
	FriendRequestWindow time.Duration
	AuthRatePerMinute   int
	AuthRateBurst       int
}

// Load reads configuration from environment variables, applying defaults for
// local development. Values in a .env file in the working directory, if one
// exists, fill in variables the environment leaves unset.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppPort:      getInt("SOCIALGRAPH_PORT", 8080),
		DatabaseURL:  getString("SOCIALGRAPH_DATABASE_URL", ""),
		MigrationDir: getString("SOCIALGRAPH_MIGRATIONS", "migrations"),
		SeedDir:      getString("SOCIALGRAPH_SEEDS", "seeds"),
		LogLevel:     getString("SOCIALGRAPH_LOG_LEVEL", "info"),
		RedisURL:     getString("SOCIALGRAPH_REDIS_URL", ""),

		JWTSecret:  getString("SOCIALGRAPH_JWT_SECRET", devJWTSecret),
		AccessTTL:  getDuration("SOCIALGRAPH_ACCESS_TTL", 5*time.Minute),
		RefreshTTL: getDuration("SOCIALGRAPH_REFRESH_TTL", 24*time.Hour),

		FriendRequestLimit:  getInt("SOCIALGRAPH_FRIEND_REQUEST_LIMIT", 3),
		FriendRequestWindow: getDuration("SOCIALGRAPH_FRIEND_REQUEST_WINDOW", time.Minute),
		AuthRatePerMinute:   getInt("SOCIALGRAPH_AUTH_RATE_PER_MINUTE", 30),
		AuthRateBurst:       getInt("SOCIALGRAPH_AUTH_RATE_BURST", 10),
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.AppPort)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, errors.New("token lifetimes must be positive")
	}

	return cfg, nil
}

// UsesDevSecret reports whether tokens are signed with the built-in
// development secret.
func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
