package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pennyjar/internal/core"
)

// Memory keeps the state in process memory, optionally mirrored to a JSON
// snapshot file so a restart picks up where the session left off. With an
// empty path it is purely volatile.
type Memory struct {
	mu    sync.Mutex
	path  string
	state *core.State
}

// NewMemory returns a volatile in-process backend.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryFromFile returns a backend that seeds from and saves to the JSON
// snapshot at path. A missing or unreadable file just means a fresh start.
func NewMemoryFromFile(path string) *Memory {
	m := &Memory{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	var st core.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return m
	}
	m.state = &st
	return m
}

func (m *Memory) Load(_ context.Context) (*core.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, false, nil
	}
	return m.state.Clone(), true, nil
}

func (m *Memory) Save(_ context.Context, st *core.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st.Clone()
	if m.path == "" {
		return nil
	}
	return m.writeSnapshot()
}

// writeSnapshot writes atomically via a temp file rename.
func (m *Memory) writeSnapshot() error {
	raw, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
