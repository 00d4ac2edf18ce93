package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nonfamousd/copperhead-server/internal/game"
)

// Config is the full server configuration. Precedence is ENV over file
// over defaults.
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	TickRate   time.Duration `yaml:"-"`
	TickMS     int           `yaml:"tick_ms"`
	GridWidth  int           `yaml:"grid_width"`
	GridHeight int           `yaml:"grid_height"`
	MaxRooms   int           `yaml:"max_rooms"`
	BotBinary  string        `yaml:"bot_binary"`
	LogLevel   string        `yaml:"log_level"`
	ClientURL  string        `yaml:"client_url"`
}

const (
	DefaultListenAddr = ":8000"
	DefaultMaxRooms   = 10
	DefaultBotBinary  = "copperbot"
	DefaultClientURL  = "https://revodavid.github.io/copperhead-client/"
)

func defaults() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		TickRate:   game.TickRate,
		GridWidth:  game.GridWidth,
		GridHeight: game.GridHeight,
		MaxRooms:   DefaultMaxRooms,
		BotBinary:  DefaultBotBinary,
		LogLevel:   "info",
		ClientURL:  DefaultClientURL,
	}
}

// Load builds the configuration. A missing .env and a missing YAML file
// are both fine; environment variables always win.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if cfg.TickMS > 0 {
		cfg.TickRate = time.Duration(cfg.TickMS) * time.Millisecond
	}

	cfg.ListenAddr = envString("COPPERHEAD_ADDR", cfg.ListenAddr)
	cfg.BotBinary = envString("COPPERHEAD_BOT_BINARY", cfg.BotBinary)
	cfg.LogLevel = envString("COPPERHEAD_LOG_LEVEL", cfg.LogLevel)
	cfg.ClientURL = envString("COPPERHEAD_CLIENT_URL", cfg.ClientURL)

	if v := os.Getenv("COPPERHEAD_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid COPPERHEAD_TICK_MS %q", v)
		}
		cfg.TickRate = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("COPPERHEAD_MAX_ROOMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid COPPERHEAD_MAX_ROOMS %q", v)
		}
		cfg.MaxRooms = n
	}
	if v := os.Getenv("COPPERHEAD_GRID_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COPPERHEAD_GRID_WIDTH %q", v)
		}
		cfg.GridWidth = n
	}
	if v := os.Getenv("COPPERHEAD_GRID_HEIGHT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COPPERHEAD_GRID_HEIGHT %q", v)
		}
		cfg.GridHeight = n
	}

	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("tick rate must be positive, got %s", cfg.TickRate)
	}
	if cfg.MaxRooms <= 0 {
		return Config{}, fmt.Errorf("max rooms must be positive, got %d", cfg.MaxRooms)
	}
	// Snakes spawn at x=5 and x=width-6; the grid must keep those apart.
	if cfg.GridWidth < 12 {
		return Config{}, fmt.Errorf("grid width must be at least 12, got %d", cfg.GridWidth)
	}
	if cfg.GridHeight < 4 {
		return Config{}, fmt.Errorf("grid height must be at least 4, got %d", cfg.GridHeight)
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// AdvertisedWSURL is the WebSocket base URL players should paste into the
// client. Inside GitHub Codespaces the forwarded HTTPS port is used.
func (c Config) AdvertisedWSURL() string {
	if name := os.Getenv("CODESPACE_NAME"); name != "" {
		domain := os.Getenv("GITHUB_CODESPACES_PORT_FORWARDING_DOMAIN")
		if domain == "" {
			domain = "app.github.dev"
		}
		return fmt.Sprintf("wss://%s-%s.%s/ws/", name, c.port(), domain)
	}
	return fmt.Sprintf("ws://localhost:%s/ws/", c.port())
}

// InCodespaces reports whether the server runs inside GitHub Codespaces,
// where the forwarded port must be made public before anyone can join.
func (c Config) InCodespaces() bool {
	return os.Getenv("CODESPACE_NAME") != ""
}

func (c Config) port() string {
	for i := len(c.ListenAddr) - 1; i >= 0; i-- {
		if c.ListenAddr[i] == ':' {
			return c.ListenAddr[i+1:]
		}
	}
	return c.ListenAddr
}
