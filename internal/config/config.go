package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/ckanutils/ckansync/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".ckanny", "config.json")
	DefaultDataDir    = filepath.Join(home, ".ckanny")
)

var (
	ErrNoRemote = errors.New("config: remote ckan url missing")
)

// Config holds everything ckanny needs to talk to a CKAN instance and run
// conditional syncs. It is loaded from flags/env/file by the CLI and passed
// explicitly to constructors; nothing reads the environment at use time.
type Config struct {
	Remote      string `json:"remote"`
	APIKey      string `json:"api_key,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	HashTableID string `json:"hash_table_id,omitempty"`

	ChunkBytes int `json:"chunk_bytes,omitempty"` // hash/read chunk size
	ChunkRows  int `json:"chunk_rows,omitempty"`  // rows per datastore write

	// DataDir holds the local journal database and lock files.
	DataDir string `json:"data_dir,omitempty"`

	Path string `json:"-"`
}

// Fill copies values from other into fields left unset, so rewriting the
// config file doesn't drop settings the current run didn't mention.
func (c *Config) Fill(other *Config) {
	if c.Remote == "" {
		c.Remote = other.Remote
	}
	if c.APIKey == "" {
		c.APIKey = other.APIKey
	}
	if c.UserAgent == "" {
		c.UserAgent = other.UserAgent
	}
	if c.HashTableID == "" {
		c.HashTableID = other.HashTableID
	}
	if c.ChunkBytes == 0 {
		c.ChunkBytes = other.ChunkBytes
	}
	if c.ChunkRows == 0 {
		c.ChunkRows = other.ChunkRows
	}
	if c.DataDir == "" {
		c.DataDir = other.DataDir
	}
}

func (c *Config) Validate() error {
	if c.Remote == "" {
		return ErrNoRemote
	}
	return nil
}

// JournalPath is the local hash table database location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "hash_table.db")
}

// LockDir holds per-resource lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.DataDir, "locks")
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	return &cfg, nil
}
