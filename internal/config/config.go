// Package config loads the engine configuration from a TOML file with
// environment-variable overrides for deployment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Queue     QueueConfig     `toml:"queue"`
	Sync      SyncConfig      `toml:"sync"`
	Recurring RecurringConfig `toml:"recurring"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type QueueConfig struct {
	// Path is the offline queue's own database file, kept separate from the
	// relational store so it stays writable while the backend is unreachable.
	Path string `toml:"path"`
}

type SyncConfig struct {
	// MaxRetries is the number of failed replays before an action is dropped.
	MaxRetries int `toml:"max_retries"`

	// ProbeURL is the health endpoint used for connectivity detection.
	// Empty means the backend is treated as always reachable.
	ProbeURL string `toml:"probe_url"`

	// ProbeIntervalSec is how often the connectivity watcher polls.
	ProbeIntervalSec int `toml:"probe_interval_sec"`

	// ProbeTimeoutSec bounds one probe request.
	ProbeTimeoutSec int `toml:"probe_timeout_sec"`
}

type RecurringConfig struct {
	// CheckIntervalSec is how often the server scans for due recurring
	// expenses. Occurrences are dated by day, so an hourly scan is plenty.
	CheckIntervalSec int `toml:"check_interval_sec"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "data/splitsmart.db",
		},
		Queue: QueueConfig{
			Path: "data/offline-queue.db",
		},
		Sync: SyncConfig{
			MaxRetries:       3,
			ProbeIntervalSec: 15,
			ProbeTimeoutSec:  5,
		},
		Recurring: RecurringConfig{
			CheckIntervalSec: 3600,
		},
	}
}

// Load reads the config file at path (if it exists) over the defaults, then
// applies environment overrides. A missing file is not an error; the defaults
// stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SPLITSMART_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("QUEUE_PATH"); v != "" {
		cfg.Queue.Path = v
	}
	if v := os.Getenv("SYNC_PROBE_URL"); v != "" {
		cfg.Sync.ProbeURL = v
	}
	if v := os.Getenv("SYNC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sync.MaxRetries = n
		}
	}
}
