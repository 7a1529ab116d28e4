// Package kvstore provides the key-value persistence surface the
// watcher stores its state in.
package kvstore

import "context"

// Store persists opaque values under string keys.
//
// Get returns a nil value and no error when the key has never been
// written. Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value stored under key, or nil if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}
