package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kvcached/kvcached/secret"
)

// Validation errors. Any one of these aborts startup per spec.md §6:
// "Missing or unparseable fields abort startup."
var (
	ErrMissingMaxSizeMB  = errors.New("config: ram.maxSizeMB is required")
	ErrMissingDBFile     = errors.New("config: disk.dbFile is required")
	ErrMissingSocketPath = errors.New("config: socket.socketPath is required")
)

// Config mirrors the ram/disk/socket nesting of the on-disk
// configuration file.
type Config struct {
	RAM struct {
		MaxSizeMB int `json:"maxSizeMB"`
	} `json:"ram"`
	Disk struct {
		DBFile string `json:"dbFile"`
	} `json:"disk"`
	Socket struct {
		SocketPath string `json:"socketPath"`
	} `json:"socket"`

	// WorkerPoolSize bounds concurrent dispatch (spec.md §5's "fixed-size
	// worker pool, default ~20"). Optional; zero defers to the
	// dispatcher's own default.
	WorkerPoolSize int `json:"workerPoolSize"`
}

// Load reads path, unmarshals it, validates that every required field
// is present, expands ${VAR}-style references in the two path fields,
// and resolves both to absolute paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dbFile, err := secret.ExpandEnvStrict(cfg.Disk.DBFile)
	if err != nil {
		return nil, fmt.Errorf("config: expanding disk.dbFile: %w", err)
	}
	socketPath, err := secret.ExpandEnvStrict(cfg.Socket.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("config: expanding socket.socketPath: %w", err)
	}

	if dbFile, err = filepath.Abs(dbFile); err != nil {
		return nil, fmt.Errorf("config: resolving disk.dbFile: %w", err)
	}
	if socketPath, err = filepath.Abs(socketPath); err != nil {
		return nil, fmt.Errorf("config: resolving socket.socketPath: %w", err)
	}

	cfg.Disk.DBFile = dbFile
	cfg.Socket.SocketPath = socketPath
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RAM.MaxSizeMB <= 0 {
		return ErrMissingMaxSizeMB
	}
	if c.Disk.DBFile == "" {
		return ErrMissingDBFile
	}
	if c.Socket.SocketPath == "" {
		return ErrMissingSocketPath
	}
	return nil
}
