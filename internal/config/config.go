package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

const DefaultPath = "config.json"

type ServerConfig struct {
	Port           int `json:"port" env:"BATTLESHIPS_PORT"`
	AdminPort      int `json:"admin_port" env:"BATTLESHIPS_ADMIN_PORT"`
	MaxConnections int `json:"max_connections" env:"BATTLESHIPS_MAX_CONNECTIONS"`
	OutboxSize     int `json:"outbox_size" env:"BATTLESHIPS_OUTBOX_SIZE"`
	FailureLimit   int `json:"failure_limit" env:"BATTLESHIPS_FAILURE_LIMIT"`
}

type BoardConfig struct {
	Rows                 int   `json:"rows" env:"BATTLESHIPS_BOARD_ROWS"`
	Cols                 int   `json:"cols" env:"BATTLESHIPS_BOARD_COLS"`
	ShipSizes            []int `json:"ship_sizes" env:"BATTLESHIPS_SHIP_SIZES" envSeparator:","`
	MaxPlacementAttempts int   `json:"max_placement_attempts" env:"BATTLESHIPS_MAX_PLACEMENT_ATTEMPTS"`
	MaxBoardRestarts     int   `json:"max_board_restarts" env:"BATTLESHIPS_MAX_BOARD_RESTARTS"`
}

type ArchiveConfig struct {
	Enabled   bool   `json:"enabled" env:"BATTLESHIPS_ARCHIVE_ENABLED"`
	Backend   string `json:"backend" env:"BATTLESHIPS_ARCHIVE_BACKEND"`
	CacheSize int    `json:"cache_size" env:"BATTLESHIPS_ARCHIVE_CACHE_SIZE"`
	CacheTTL  string `json:"cache_ttl" env:"BATTLESHIPS_ARCHIVE_CACHE_TTL"`
}

type DatabaseConfig struct {
	Host               string `json:"host" env:"BATTLESHIPS_DB_HOST"`
	Port               uint64 `json:"port" env:"BATTLESHIPS_DB_PORT"`
	Username           string `json:"username" env:"BATTLESHIPS_DB_USERNAME"`
	Password           string `json:"password" env:"BATTLESHIPS_DB_PASSWORD"`
	Database           string `json:"database" env:"BATTLESHIPS_DB_DATABASE"`
	UseTLS             bool   `json:"use_tls" env:"BATTLESHIPS_DB_USE_TLS"`
	ConnectTimeout     string `json:"connect_timeout"`
	SocketTimeout      string `json:"socket_timeout"`
	ConnectIdleTimeout string `json:"connect_idle_timeout"`
	OperationTimeout   string `json:"operation_timeout"`
	Heartbeat          string `json:"heartbeat"`
	MinPoolSize        uint64 `json:"min_pool_size"`
	MaxPoolSize        uint64 `json:"max_pool_size"`
}

type Config struct {
	Server    ServerConfig   `json:"server"`
	Board     BoardConfig    `json:"board"`
	Archive   ArchiveConfig  `json:"archive"`
	Database  DatabaseConfig `json:"database"`
	DebugMode bool           `json:"debug_mode" env:"BATTLESHIPS_DEBUG"`
	AppName   string         `json:"app_name" env:"BATTLESHIPS_APP_NAME"`
	LogPath   string         `json:"log_path" env:"BATTLESHIPS_LOG_PATH"`
}

// ErrConfigCreated is returned together with the defaults when no
// configuration file existed and a fresh one was written.
var ErrConfigCreated = errors.New("the configuration file did not exist and has been created with default values")

var (
	mu          sync.RWMutex
	config      = Default()
	initialized = false
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           12345,
			AdminPort:      0,
			MaxConnections: 10000,
			OutboxSize:     64,
			FailureLimit:   3,
		},
		Board: BoardConfig{
			Rows:                 10,
			Cols:                 10,
			ShipSizes:            []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1},
			MaxPlacementAttempts: 10000,
			MaxBoardRestarts:     100,
		},
		Archive: ArchiveConfig{
			Enabled:   true,
			Backend:   "memory",
			CacheSize: 1024,
			CacheTTL:  "1d",
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               27017,
			Database:           "battleships",
			ConnectTimeout:     "10s",
			SocketTimeout:      "30s",
			ConnectIdleTimeout: "5m",
			OperationTimeout:   "5s",
			Heartbeat:          "10s",
			MinPoolSize:        1,
			MaxPoolSize:        20,
		},
		AppName: "battleships-server",
		LogPath: "logs",
	}
}

// ReadConfig loads path, applies BATTLESHIPS_* environment overrides and
// validates the result. A missing file is created from the defaults and
// reported with ErrConfigCreated; the returned config is still usable.
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	var created bool

	bytes, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data, _ := json.MarshalIndent(cfg, "", "\t")
		if writeErr := os.WriteFile(path, data, 0644); writeErr != nil {
			return cfg, fmt.Errorf("create configuration file %s: %w", path, writeErr)
		}
		created = true
	case err != nil:
		return cfg, fmt.Errorf("read configuration file %s: %w", path, err)
	default:
		if err := json.Unmarshal(bytes, &cfg); err != nil {
			return cfg, fmt.Errorf("the configuration file does not contain valid JSON: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}

	Set(cfg)
	if created {
		return cfg, ErrConfigCreated
	}
	return cfg, nil
}

// Set replaces the process-wide configuration.
func Set(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	config = cfg
	initialized = true
}

// GetConfig returns the configuration loaded by ReadConfig or Set, falling
// back to reading DefaultPath.
func GetConfig() (Config, error) {
	mu.RLock()
	if initialized {
		defer mu.RUnlock()
		return config, nil
	}
	mu.RUnlock()
	cfg, err := ReadConfig(DefaultPath)
	if errors.Is(err, ErrConfigCreated) {
		return cfg, nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Server.AdminPort < 0 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("admin port must be between 0 and 65535, got %d", c.Server.AdminPort)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be positive, got %d", c.Server.MaxConnections)
	}
	if c.Server.OutboxSize < 1 {
		return fmt.Errorf("outbox_size must be positive, got %d", c.Server.OutboxSize)
	}
	if c.Server.FailureLimit < 1 {
		return fmt.Errorf("failure_limit must be at least 1, got %d", c.Server.FailureLimit)
	}
	if c.Board.Rows < 1 || c.Board.Cols < 1 || c.Board.Cols > 26 {
		return fmt.Errorf("board must be at least 1x1 with at most 26 columns, got %dx%d", c.Board.Rows, c.Board.Cols)
	}
	if len(c.Board.ShipSizes) == 0 {
		return errors.New("ship_sizes must not be empty")
	}
	for _, size := range c.Board.ShipSizes {
		if size < 1 {
			return fmt.Errorf("ship sizes must be positive, got %d", size)
		}
	}
	switch c.Archive.Backend {
	case "", "memory", "mongo":
	default:
		return fmt.Errorf("archive backend must be memory or mongo, got %q", c.Archive.Backend)
	}
	return nil
}
