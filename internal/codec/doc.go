// Package codec seals and opens token payloads with a 256-bit AEAD cipher.
//
// A sealed blob has a fixed layout with no header or version byte:
//
//	[ciphertext | tag (16 bytes) | nonce (12 bytes)]
//
// Supported algorithms:
//   - AES-256-GCM (default)
//   - ChaCha20-Poly1305
//
// Both use 12-byte nonces and 16-byte tags, so the layout is identical.
// The algorithm is not recorded in the blob: a blob sealed with one
// algorithm fails to open with the other (ErrDecryptionFailed).
package codec
