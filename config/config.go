package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort            = "3003"
	DefaultAllowedOrigins  = "*"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds the process configuration.
type Config struct {
	Port            string
	AllowedOrigins  string
	LogLevel        string
	ShutdownTimeout time.Duration
	Rooms           []domain.RoomConfig
}

// DefaultRooms returns the rooms seeded when no rooms file is configured.
func DefaultRooms() []domain.RoomConfig {
	return []domain.RoomConfig{
		{ID: "general", Name: "General Interfaith", Description: "Open discussion about all religions and spirituality"},
		{ID: "islamic", Name: "Islamic Discussion", Description: "Focus on Islamic teachings and practices"},
		{ID: "christian", Name: "Christian Inquiry", Description: "Discussion about Christianity and its various denominations"},
		{ID: "eastern", Name: "Eastern Philosophies", Description: "Buddhism, Hinduism, Taoism and Eastern traditions"},
		{ID: "comparative", Name: "Comparative Religion", Description: "Comparing different religious traditions"},
		{ID: "meditation", Name: "Meditation & Mindfulness", Description: "Practices and experiences across traditions"},
	}
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; variables already set in
// the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		ShutdownTimeout: DefaultShutdownTimeout,
		Rooms:           DefaultRooms(),
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", v)
		}
		cfg.ShutdownTimeout = d
	}

	if path := os.Getenv("ROOMS_FILE"); path != "" {
		rooms, err := LoadRooms(path)
		if err != nil {
			return nil, err
		}
		cfg.Rooms = rooms
	}

	return cfg, nil
}

// LoadRooms reads an ordered JSON array of {id, name, description}.
func LoadRooms(path string) ([]domain.RoomConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms file: %w", err)
	}
	var rooms []domain.RoomConfig
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("failed to parse rooms file %s: %w", path, err)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("rooms file %s lists no rooms", path)
	}
	return rooms, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
