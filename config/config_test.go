package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("ROOMS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultAllowedOrigins, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	require.Len(t, cfg.Rooms, 6)

	ids := make([]string, 0, len(cfg.Rooms))
	for _, r := range cfg.Rooms {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"general", "islamic", "christian", "eastern", "comparative", "meditation"}, ids)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooms.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "zen", "name": "Zen", "description": "Sitting"},
		{"id": "sufi", "name": "Sufism", "description": "Mystic paths"}
	]`), 0o600))

	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("ROOMS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	require.Len(t, cfg.Rooms, 2)
	assert.Equal(t, "zen", cfg.Rooms[0].ID)
	assert.Equal(t, "Mystic paths", cfg.Rooms[1].Description)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("ROOMS_FILE", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRooms_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"id":`},
		{name: "empty list", content: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadRooms(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRooms(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}
