package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and configures the backend.
type Config struct {
	// Driver is detected from URL when empty or "auto".
	Driver Driver

	// URL is the PostgreSQL connection string.
	URL string

	// SQLitePath defaults to ~/.preflight/preflight.db. ":memory:" opens a
	// private in-memory database.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

type openFunc func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]openFunc{}

// Register installs the opener for a driver. Driver packages call it from init.
func Register(driver Driver, open func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[driver] = open
}

// NewConnection opens a connection for the configured driver. The driver
// package must be imported for its side effects.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("database driver %s is not registered", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns the local-mode database location.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".preflight", "preflight.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
