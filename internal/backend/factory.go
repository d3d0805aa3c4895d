package backend

import (
	"context"
	"fmt"

	"pennyjar/internal/log"
	"pennyjar/internal/storage"
)

// Factory constructs storage backends.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage)
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg. The returned cleanup closes
// whatever the backend opened and is safe to call once at shutdown.
func (f *Factory) Create(ctx context.Context, cfg Config) (storage.Backend, CleanupFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch cfg.Type {
	case MemoryBackend:
		return f.createMemory(ctx, cfg)
	case SQLiteBackend:
		return f.createSQLite(ctx, cfg)
	case PostgresBackend:
		return f.createPostgres(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *Factory) createMemory(ctx context.Context, cfg Config) (storage.Backend, CleanupFunc, error) {
	var m *storage.Memory
	if path := cfg.snapshotPath(); path != "" {
		m = storage.NewMemoryFromFile(path)
		f.logger.InfoContext(ctx, "Using memory backend with snapshot file",
			log.FieldBackend, cfg.Type.String(), "snapshot_path", path)
	} else {
		m = storage.NewMemory()
		f.logger.InfoContext(ctx, "Using volatile memory backend",
			log.FieldBackend, cfg.Type.String())
	}
	return m, m.Close, nil
}

func (f *Factory) createSQLite(ctx context.Context, cfg Config) (storage.Backend, CleanupFunc, error) {
	db, err := storage.NewSQLite(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Using sqlite backend",
		log.FieldBackend, cfg.Type.String(), "db_path", cfg.SQLiteDBPath)
	return db, db.Close, nil
}

func (f *Factory) createPostgres(ctx context.Context, cfg Config) (storage.Backend, CleanupFunc, error) {
	pool, err := storage.NewPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize postgres backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Using postgres backend",
		log.FieldBackend, cfg.Type.String())
	return pool, pool.Close, nil
}
