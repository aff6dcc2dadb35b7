package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/webtray/webtray/internal/config"
	"github.com/webtray/webtray/internal/database"
	"github.com/webtray/webtray/internal/types"
)

// New creates a blob store based on configuration. The returned closer
// releases any database connection.
func New(ctx context.Context, cfg *config.StorageConfig) (types.BlobStore, io.Closer, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "file":
		store, err := NewFileStore(os.ExpandEnv(cfg.Path))
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case "mysql", "sqlite3":
		db, err := database.NewConnection(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewSQLStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
