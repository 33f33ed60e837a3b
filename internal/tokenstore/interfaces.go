package tokenstore

import "context"

// TokenStore reads, writes and deletes a token in persistent storage.
type TokenStore interface {
	// Read returns the stored token. Returns an error wrapping ErrNotFound
	// if no token has been written.
	Read(ctx context.Context) (string, error)

	// Write persists the token, replacing any existing one.
	Write(ctx context.Context, token string) error

	// Delete removes the stored token. Returns an error wrapping ErrNotFound
	// if there is nothing to remove.
	Delete(ctx context.Context) error
}

// Sealer turns plaintext into an authenticated blob and back.
// Implemented by *codec.Codec.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(blob []byte) ([]byte, error)
}
