// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds the codeartd settings.
type Config struct {
	Port        int
	DBPath      string
	AdminKey    string // Bearer token for preset writes. Empty = those endpoints disabled.
	LogLevel    slog.Level
	MaxCells    int // rows*cols bound checked before generation
	SceneRate   int // scene requests per IP per minute
	CORSOrigins []string
}

// Defaults.
const (
	DefaultPort      = 8080
	DefaultDBPath    = "data/codeart.db"
	DefaultMaxCells  = 40000
	DefaultSceneRate = 600
)

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		DBPath:   envOrDefault("CODEART_DB_PATH", DefaultDBPath),
		AdminKey: os.Getenv("CODEART_ADMIN_KEY"),
	}

	var err error
	if cfg.Port, err = envIntOrDefault("CODEART_PORT", DefaultPort); err != nil {
		return Config{}, err
	}
	if cfg.MaxCells, err = envIntOrDefault("CODEART_MAX_CELLS", DefaultMaxCells); err != nil {
		return Config{}, err
	}
	if cfg.SceneRate, err = envIntOrDefault("CODEART_SCENE_RATE", DefaultSceneRate); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("CODEART_PORT %d out of range", cfg.Port)
	}
	if cfg.MaxCells <= 0 {
		return Config{}, fmt.Errorf("CODEART_MAX_CELLS must be positive, got %d", cfg.MaxCells)
	}
	if cfg.SceneRate <= 0 {
		return Config{}, fmt.Errorf("CODEART_SCENE_RATE must be positive, got %d", cfg.SceneRate)
	}

	if cfg.LogLevel, err = parseLevel(envOrDefault("CODEART_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("CODEART_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
