package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the server.
type Config struct {
	AppName  string
	HTTP     HTTPConfig
	Logger   LoggerConfig
	Store    StoreConfig
	Game     GameConfig
	Cadence  CadenceConfig
	Shutdown time.Duration
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type StoreConfig struct {
	Driver        string // memory, bolt or redis
	BoltPath      string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	Slot          string // Save slot name, one ledger per slot
}

type GameConfig struct {
	File       string // Game definition (.yaml, .yml or .toml); empty uses the built-in one
	DeviceTier string
}

// CadenceConfig holds the host-owned tick intervals.
type CadenceConfig struct {
	ProductionTick   time.Duration
	AutosaveInterval time.Duration
	PublishInterval  time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the server can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName: getString("APP_NAME", "tap-the-cap"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8081"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Store: StoreConfig{
			Driver:        getString("STORE_DRIVER", "bolt"),
			BoltPath:      getString("BOLTDB_PATH", "./data/progress.db"),
			RedisURL:      getString("REDIS_URL", "redis://localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getInt("REDIS_DB", 0),
			Slot:          getString("SAVE_SLOT", "default"),
		},
		Game: GameConfig{
			File:       os.Getenv("GAME_FILE"),
			DeviceTier: getString("DEVICE_TIER", "default"),
		},
		Cadence: CadenceConfig{
			ProductionTick:   getDuration("PRODUCTION_TICK", 100*time.Millisecond),
			AutosaveInterval: getDuration("AUTOSAVE_INTERVAL", 30*time.Second),
			PublishInterval:  getDuration("PUBLISH_INTERVAL", 250*time.Millisecond),
		},
		Shutdown: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "bolt", "redis":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Slot == "" {
		return fmt.Errorf("config: SAVE_SLOT must not be empty")
	}
	if c.Cadence.ProductionTick <= 0 || c.Cadence.AutosaveInterval <= 0 || c.Cadence.PublishInterval <= 0 {
		return fmt.Errorf("config: tick intervals must be positive")
	}
	return nil
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
