package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 256, cfg.Server.WebSocket.SendBufferSize)
	assert.Equal(t, 60*time.Second, cfg.Server.WebSocket.PongWait)
	assert.Equal(t, 4, cfg.Game.EpidemicCards)
	assert.Equal(t, "Atlanta", cfg.Game.StartingCity)
	assert.True(t, cfg.Game.StandardSetup)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  websocket:
    address: "127.0.0.1:9000"
    allowed_origins: ["https://example.org"]
    pong_wait: 30s
game:
  epidemic_cards: 6
  starting_city: Paris
  replay_dir: /tmp/replays
database:
  driver: postgres
  url: postgres://localhost/pandemic
  max_conns: 4
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.WebSocket.Address)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.WebSocket.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.WebSocket.PongWait)
	assert.Equal(t, 6, cfg.Game.EpidemicCards)
	assert.Equal(t, "Paris", cfg.Game.StartingCity)
	assert.Equal(t, "/tmp/replays", cfg.Game.ReplayDir)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PANDEMIC_GAME_EPIDEMIC_CARDS", "5")
	t.Setenv("PANDEMIC_LOGGING_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "game:\n  epidemic_cards: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Game.EpidemicCards)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "database.url")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no address", func(c *Config) { c.Server.WebSocket.Address = "" }, "address"},
		{"relative path", func(c *Config) { c.Server.WebSocket.Path = "ws" }, "path"},
		{"no send buffer", func(c *Config) { c.Server.WebSocket.SendBufferSize = 0 }, "send_buffer_size"},
		{"too few epidemics", func(c *Config) { c.Game.EpidemicCards = 3 }, "epidemic_cards"},
		{"too many epidemics", func(c *Config) { c.Game.EpidemicCards = 7 }, "epidemic_cards"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")

	changed := make(chan *Config, 16)
	w, err := Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "info", w.Config().Logging.Level)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	// A single write can surface as several events, some seeing a truncated file.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Logging.Level == "debug" {
				assert.Equal(t, "debug", w.Config().Logging.Level)
				return
			}
		case <-timeout:
			t.Fatal("config change was not observed")
		}
	}
}
