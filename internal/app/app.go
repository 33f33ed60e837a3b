package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/florianilch/tokenkeeper/internal/codec"
	"github.com/florianilch/tokenkeeper/internal/keysource"
	"github.com/florianilch/tokenkeeper/internal/tokenstore"
)

// ErrKeyExists is returned by ProvisionKey when a key is already provisioned
// and overwriting was not requested.
var ErrKeyExists = errors.New("key already provisioned")

// Option configures an App.
type Option func(*appOptions)

// appOptions holds configuration for New.
type appOptions struct {
	keySource keysource.Source
}

// WithKeySource overrides the key source described by the configuration.
func WithKeySource(source keysource.Source) Option {
	return func(o *appOptions) {
		o.keySource = source
	}
}

// App exposes the token operations the host application dispatches to.
// It holds no state besides the immutable codec, so it is safe for concurrent use.
type App struct {
	cfg   *Config
	codec *codec.Codec
}

// New creates a new App instance. The key is read and validated here so a
// misconfigured key fails at startup instead of on first use.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	source := o.keySource
	if source == nil {
		var err error
		source, err = cfg.Key.NewKeySource()
		if err != nil {
			return nil, fmt.Errorf("failed to create key source: %w", err)
		}
	}

	key, err := source.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read key from %s: %w", cfg.Key.Location(), err)
	}
	c, err := codec.New(key, codec.WithAlgorithm(cfg.Cipher))
	clear(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	slog.DebugContext(ctx, "token store ready", "data_dir", cfg.DataDir, "cipher", c.Algorithm(), "key_source", cfg.Key.Source)

	return &App{
		cfg:   cfg,
		codec: c,
	}, nil
}

// TokenPath returns the default token file location.
func (a *App) TokenPath() string {
	return a.cfg.TokenPath()
}

// Store returns a FileStore for path, or for TokenPath if path is empty.
func (a *App) Store(path string) (*tokenstore.FileStore, error) {
	if path == "" {
		path = a.TokenPath()
	}
	return tokenstore.NewFileStore(path, a.codec)
}

// SaveToken encrypts token and writes it to path, replacing any existing token.
func (a *App) SaveToken(ctx context.Context, path, token string) error {
	store, err := a.Store(path)
	if err != nil {
		return err
	}

	if err := store.Write(ctx, token); err != nil {
		slog.DebugContext(ctx, "saving token failed", "path", store.Path(), "error", err)
		return err
	}

	slog.DebugContext(ctx, "token saved", "path", store.Path())
	return nil
}

// GetToken reads and decrypts the token at path.
func (a *App) GetToken(ctx context.Context, path string) (string, error) {
	store, err := a.Store(path)
	if err != nil {
		return "", err
	}

	token, err := store.Read(ctx)
	if err != nil {
		slog.DebugContext(ctx, "loading token failed", "path", store.Path(), "error", err)
		return "", err
	}

	slog.DebugContext(ctx, "token loaded", "path", store.Path())
	return token, nil
}

// RemoveToken deletes the token at path. Returns an error wrapping
// tokenstore.ErrNotFound if there is no token.
func (a *App) RemoveToken(ctx context.Context, path string) error {
	store, err := a.Store(path)
	if err != nil {
		return err
	}

	if err := store.Delete(ctx); err != nil {
		slog.DebugContext(ctx, "removing token failed", "path", store.Path(), "error", err)
		return err
	}

	slog.DebugContext(ctx, "token removed", "path", store.Path())
	return nil
}

// TokenSource returns an oauth2 token source backed by the token at path.
// A nil factory serves the stored token as a static bearer token.
func (a *App) TokenSource(path string, factory TokenSourceFactory) (*PersistentTokenSource, error) {
	store, err := a.Store(path)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		factory = StaticTokenSourceFactory
	}
	return NewPersistentTokenSource(factory, store)
}

// ProvisionedKey describes the outcome of ProvisionKey.
type ProvisionedKey struct {
	// Encoded is the hex form of the new key. Only set when the key could not
	// be stored and must be handed to the operator.
	Encoded string

	// Location describes where the key is, or must be, stored.
	Location string

	// Stored reports whether the key was written to its source.
	Stored bool
}

// ProvisionKey generates a fresh key for the configured key source.
// Writable sources (keyring, file) receive the key directly; an existing key is
// only replaced when overwrite is set. For the read-only env source the
// encoded key is returned instead.
func ProvisionKey(ctx context.Context, cfg *Config, overwrite bool) (*ProvisionedKey, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	key, err := keysource.Generate(nil)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	result := &ProvisionedKey{Location: cfg.Key.Location()}

	// The env source refuses to construct while the variable is unset, which
	// is exactly the state before first provisioning
	if cfg.Key.Source == KeySourceTypeEnv {
		result.Encoded = keysource.Encode(key)
		return result, nil
	}

	source, err := cfg.Key.NewKeySource()
	if err != nil {
		return nil, fmt.Errorf("failed to create key source: %w", err)
	}
	writable, ok := source.(keysource.WritableSource)
	if !ok {
		return nil, fmt.Errorf("%s: %w", result.Location, keysource.ErrReadOnly)
	}

	if !overwrite {
		existing, err := writable.Read(ctx)
		switch {
		case err == nil:
			clear(existing)
			return nil, fmt.Errorf("%s: %w", result.Location, ErrKeyExists)
		case !errors.Is(err, keysource.ErrNotFound):
			return nil, fmt.Errorf("checking existing key: %w", err)
		}
	}

	if err := writable.Write(ctx, key); err != nil {
		return nil, fmt.Errorf("storing key in %s: %w", result.Location, err)
	}

	slog.InfoContext(ctx, "key provisioned", "location", result.Location)
	result.Stored = true
	return result, nil
}
