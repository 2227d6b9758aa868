package store

import (
	"context"
	"errors"
)

// Predefined errors for store operations
var (
	ErrKeyNotFound   = errors.New("store: key not found")
	ErrUnknownDriver = errors.New("store: unknown storage driver")
	ErrStoreClosed   = errors.New("store: store is closed")
	ErrEmptyKey      = errors.New("store: key must not be empty")
	ErrValueTooLarge = errors.New("store: value exceeds storage quota")
)

// KeyValueStorer is the persistence medium of the catalog: a flat
// read/write-by-key store holding whole serialized snapshots.
//
// Get returns ErrKeyNotFound when nothing has been written under key.
// Set always replaces the previous value completely.
type KeyValueStorer interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
