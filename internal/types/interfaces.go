package types

import "context"

// BlobStore is durable client storage: opaque blobs under fixed string keys.
// Load returns an error satisfying errors.Is(err, errors.NotFound) for absent keys.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// StoreScope supplies the identifier of the store the session is working in.
type StoreScope interface {
	ActiveStoreID() (int64, bool)
}

// TokenSource supplies the bearer token attached to API requests.
type TokenSource interface {
	Token() string
}

// Notifier delivers transient user-facing messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}
