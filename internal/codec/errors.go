package codec

import "errors"

var (
	// ErrInvalidKey is returned by New when the key is not exactly KeySize bytes.
	// It is a configuration error; there is no per-call recovery.
	ErrInvalidKey = errors.New("invalid key length")

	// ErrUnsupportedAlgorithm is returned by New for an unknown Algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrMalformedBlob is returned by Open when the blob is shorter than MinBlobSize.
	ErrMalformedBlob = errors.New("malformed blob")

	// ErrDecryptionFailed is returned by Open when the authentication tag does not verify.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSealFailed is returned by Seal when no nonce could be generated.
	ErrSealFailed = errors.New("seal failed")
)
