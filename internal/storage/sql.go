package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/database"
	"github.com/webtray/webtray/internal/types"
)

// SQLStore keeps blobs in the client_blobs table of a MySQL or SQLite
// database.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM client_blobs WHERE blob_key = ?", key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("blob %q", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %q: %w", key, err)
	}
	return payload, nil
}

// Save upserts with REPLACE INTO, which both MySQL and SQLite understand.
func (s *SQLStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"REPLACE INTO client_blobs (blob_key, payload) VALUES (?, ?)", key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save blob %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM client_blobs WHERE blob_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

var _ types.BlobStore = (*SQLStore)(nil)
