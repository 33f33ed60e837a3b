package keysource

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the length of keys produced by Generate.
const KeySize = 32

var (
	// ErrNotFound is returned when a backend holds no key.
	ErrNotFound = errors.New("key not found")

	// ErrMalformedKey is returned when stored key material is not valid hex.
	ErrMalformedKey = errors.New("malformed key encoding")

	// ErrReadOnly is returned by backends that cannot persist keys.
	ErrReadOnly = errors.New("key source is read-only")
)

// Generate returns KeySize random bytes from r, or from crypto/rand if r is nil.
func Generate(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

// Encode returns the storage form of a key.
func Encode(key []byte) string {
	return hex.EncodeToString(key)
}

// Decode parses the storage form of a key. Surrounding whitespace is ignored.
func Decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty value", ErrMalformedKey)
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		// hex errors echo the offending byte; keep key material out of messages
		return nil, ErrMalformedKey
	}
	return key, nil
}
