package keysource

import "context"

// Source reads a key from persistent storage.
type Source interface {
	// Read returns the raw key bytes. Returns an error wrapping ErrNotFound
	// if no key has been provisioned.
	Read(ctx context.Context) ([]byte, error)
}

// WritableSource is a Source that can also persist a key, used when
// provisioning a freshly generated key.
type WritableSource interface {
	Source

	// Write persists the key, overwriting any existing value.
	Write(ctx context.Context, key []byte) error
}
