package keysource

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringSource provides OS-native secure storage for the key.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringSource struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringSource implements WritableSource
var _ WritableSource = (*KeyringSource)(nil)

// NewKeyringSource creates a KeyringSource using the given service and user identifiers.
func NewKeyringSource(service, user string) (*KeyringSource, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringSource{
		service: service,
		user:    user,
	}, nil
}

// Read decodes the key from the system keyring.
func (k *KeyringSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("keyring entry for service %s, user %s: %w", k.service, k.user, ErrNotFound)
		}
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	key, err := Decode(value)
	if err != nil {
		return nil, fmt.Errorf("keyring entry for service %s, user %s: %w", k.service, k.user, err)
	}
	return key, nil
}

// Write stores the key in the system keyring, overwriting any existing value.
func (k *KeyringSource) Write(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Set(k.service, k.user, Encode(key)); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}
