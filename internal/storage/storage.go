// Package storage provides persistence backends for the ledger state.
//
// Backends implement full-state load/save semantics: the in-memory ledger
// store is authoritative and writes its whole snapshot after each mutation.
// Whether the snapshot lands in a process-local JSON file, a SQLite database
// or a Postgres table set is a deployment choice.
package storage

import (
	"context"

	"pennyjar/internal/core"
)

// Backend persists ledger state snapshots.
type Backend interface {
	// Load reads the persisted state. The second return value is false when
	// no state has ever been saved (fresh deployment).
	Load(ctx context.Context) (*core.State, bool, error)

	// Save persists the full state snapshot, replacing any previous one.
	Save(ctx context.Context, st *core.State) error

	// Close releases backend resources.
	Close() error
}
