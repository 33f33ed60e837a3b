// Package keysource provides the 32-byte key that package codec seals tokens with.
//
// Supports three backends with different security and deployment tradeoffs:
//   - Env: Read-only environment variable access (requires external secret management)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - File: Local key file with atomic writes and strict permissions
//
// Keys are stored hex-encoded in every backend. Sources only decode; the key
// length is enforced when the codec is constructed, so a wrong-sized key fails
// at startup rather than being truncated or padded.
package keysource
