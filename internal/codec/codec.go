package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the required key length for every supported algorithm.
	KeySize = 32
	// NonceSize is the length of the nonce appended to every blob.
	NonceSize = 12
	// TagSize is the length of the authentication tag.
	TagSize = 16
	// MinBlobSize is the length of a blob sealed from an empty plaintext.
	MinBlobSize = NonceSize + TagSize
)

// Algorithm names an AEAD construction.
type Algorithm string

const (
	AlgorithmAES256GCM        Algorithm = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// DefaultAlgorithm is used when no WithAlgorithm option is given.
const DefaultAlgorithm = AlgorithmAES256GCM

// Option configures a Codec.
type Option func(*codecConfig)

// codecConfig holds configuration for New.
type codecConfig struct {
	algorithm Algorithm
	random    io.Reader
}

// WithAlgorithm selects the AEAD construction.
func WithAlgorithm(algorithm Algorithm) Option {
	return func(c *codecConfig) {
		c.algorithm = algorithm
	}
}

// WithRandom sets the nonce source. If not provided, crypto/rand.Reader is used.
func WithRandom(r io.Reader) Option {
	return func(c *codecConfig) {
		c.random = r
	}
}

// Codec seals and opens blobs under a single key.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	aead      cipher.AEAD
	algorithm Algorithm
	random    io.Reader
}

// New creates a Codec for the given key. The key must be exactly KeySize bytes;
// it is not retained after New returns.
func New(key []byte, opts ...Option) (*Codec, error) {
	cfg := &codecConfig{
		algorithm: DefaultAlgorithm,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}

	aead, err := newAEAD(cfg.algorithm, key)
	if err != nil {
		return nil, err
	}

	// Every supported construction must match the fixed blob layout
	if aead.NonceSize() != NonceSize || aead.Overhead() != TagSize {
		return nil, fmt.Errorf("%w: %s has nonce size %d and overhead %d", ErrUnsupportedAlgorithm, cfg.algorithm, aead.NonceSize(), aead.Overhead())
	}

	return &Codec{
		aead:      aead,
		algorithm: cfg.algorithm,
		random:    cfg.random,
	}, nil
}

func newAEAD(algorithm Algorithm, key []byte) (cipher.AEAD, error) {
	switch algorithm {
	case AlgorithmAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return cipher.NewGCM(block)
	case AlgorithmChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return aead, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// Algorithm returns the AEAD construction this Codec uses.
func (c *Codec) Algorithm() Algorithm {
	return c.algorithm
}

// Seal encrypts plaintext under a fresh random nonce and returns
// ciphertext+tag followed by the nonce.
func (c *Codec) Seal(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(c.random, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %w", ErrSealFailed, err)
	}

	out := make([]byte, 0, len(plaintext)+TagSize+NonceSize)
	out = c.aead.Seal(out, nonce[:], plaintext, nil)
	return append(out, nonce[:]...), nil
}

// Open verifies and decrypts a blob produced by Seal under the same key.
// No plaintext is returned unless the tag verifies.
func (c *Codec) Open(blob []byte) ([]byte, error) {
	if len(blob) < MinBlobSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrMalformedBlob, len(blob), MinBlobSize)
	}

	split := len(blob) - NonceSize
	sealed, nonce := blob[:split], blob[split:]

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		// cipher.AEAD reports every verification failure the same way
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
