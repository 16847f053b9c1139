package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ClashAPIToken    string
	ClashAPIBaseURL  string
	DBPath           string
	ServerPort       string
	LogLevel         string
	AllowedOrigins   []string
	PlayerRefreshTTL time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ClashAPIToken:    getEnv("CLASH_API_TOKEN", ""),
		ClashAPIBaseURL:  getEnv("CLASH_API_BASE_URL", "https://api.clashroyale.com/v1"),
		DBPath:           getEnv("DB_PATH", "royale.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:   splitOrigins(getEnv("ALLOWED_ORIGINS", "*")),
		PlayerRefreshTTL: 5 * time.Minute,
	}

	if cfg.ClashAPIToken == "" {
		return nil, fmt.Errorf("CLASH_API_TOKEN is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("base_url", cfg.ClashAPIBaseURL).
		Dur("player_refresh_ttl", cfg.PlayerRefreshTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
