package database

import (
	"context"
	"fmt"
)

// BlobsTable holds durable client state: the persisted cart and auth session.
const BlobsTable = "client_blobs"

const mysqlBlobsSQL = `CREATE TABLE IF NOT EXISTS client_blobs (
    blob_key VARCHAR(191) PRIMARY KEY,
    payload LONGBLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const sqliteBlobsSQL = `CREATE TABLE IF NOT EXISTS client_blobs (
    blob_key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// EnsureSchema creates the tables the SQL storage backends need.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmt := sqliteBlobsSQL
	if db.Driver == "mysql" {
		stmt = mysqlBlobsSQL
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s: %w", BlobsTable, err)
	}
	return nil
}

// DropSchema removes the storage tables.
func (db *DB) DropSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+BlobsTable)
	return err
}
