package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Discord    DiscordConfig    `json:"discord"`
	Keys       KeysConfig       `json:"keys"`
	Storage    StorageConfig    `json:"storage"`
	Database   DatabaseConfig   `json:"database"`
	Events     EventsConfig     `json:"events"`
	Setup      SetupConfig      `json:"setup"`
	Transcript TranscriptConfig `json:"transcript"`
	Messages   MessagesConfig   `json:"messages"`
}

type DiscordConfig struct {
	Token  string `json:"token"`
	Prefix string `json:"prefix"`
}

// KeysConfig carries the one-time redemption keys. The valid set lives in
// config; the consumed set lives in the persisted store.
type KeysConfig struct {
	Valid []string `json:"valid"`
}

type StorageConfig struct {
	DataFile string `json:"data_file"`
}

type DatabaseConfig struct {
	Driver  string        `json:"driver"`
	SQLite  SQLiteConfig  `json:"sqlite"`
	MongoDB MongoDBConfig `json:"mongodb"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type EventsConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

type SetupConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

type TranscriptConfig struct {
	// MaxMessages caps how far back a transcript reaches. Histories longer
	// than this keep the newest messages; the cap is a documented
	// limitation of the archive, not a silent drop.
	MaxMessages int `json:"max_messages"`
}

type MessagesConfig struct {
	Path string `json:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = "$"
	}
	if cfg.Storage.DataFile == "" {
		cfg.Storage.DataFile = "data/store.json"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/archive.db"
	}
	if cfg.Setup.TimeoutSeconds <= 0 {
		cfg.Setup.TimeoutSeconds = 180
	}
	if cfg.Transcript.MaxMessages <= 0 {
		cfg.Transcript.MaxMessages = 1000
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "tickets"
	}
	if cfg.Messages.Path == "" {
		cfg.Messages.Path = "messages.yaml"
	}
	return &cfg, nil
}
