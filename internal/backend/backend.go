// Package backend selects and constructs the storage backend from
// configuration.
package backend

import (
	"fmt"
	"path/filepath"

	"pennyjar/internal/config"
)

// Type names a storage backend implementation.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Config holds what backend construction needs.
type Config struct {
	Type Type

	// Memory specific: directory for the optional JSON snapshot.
	// Empty means purely volatile.
	DataDirectory string

	// SQLite specific.
	SQLiteDBPath string

	// Postgres specific.
	PostgresURL string
}

// FromAppConfig converts the application config to a backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		PostgresURL:   appConfig.PostgresURL,
	}, nil
}

// Validate checks that the selected type has what it needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	case MemoryBackend:
		// Snapshot directory is optional.
	}
	return nil
}

// snapshotPath returns where the memory backend mirrors its state, or
// empty when no data directory is configured.
func (c Config) snapshotPath() string {
	if c.DataDirectory == "" {
		return ""
	}
	return filepath.Join(c.DataDirectory, "ledger.json")
}
