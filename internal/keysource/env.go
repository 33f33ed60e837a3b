package keysource

import (
	"context"
	"fmt"
	"os"
)

// EnvSource provides read-only access to a key stored in an environment variable.
type EnvSource struct {
	envKey string
}

// Compile-time check to ensure EnvSource implements Source
var _ Source = (*EnvSource)(nil)

// NewEnvSource creates an EnvSource for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvSource(envKey string) (*EnvSource, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set: %w", envKey, ErrNotFound)
	}

	return &EnvSource{
		envKey: envKey,
	}, nil
}

// Read decodes the key from the environment variable.
func (e *EnvSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value := os.Getenv(e.envKey)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is empty: %w", e.envKey, ErrNotFound)
	}

	key, err := Decode(value)
	if err != nil {
		return nil, fmt.Errorf("environment variable %s: %w", e.envKey, err)
	}
	return key, nil
}
