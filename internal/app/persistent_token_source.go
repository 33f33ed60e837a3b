package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/florianilch/tokenkeeper/internal/tokenstore"
)

// TokenSourceFactory turns the decrypted stored token into an oauth2.TokenSource.
type TokenSourceFactory func(token string) oauth2.TokenSource

// StaticTokenSourceFactory serves the stored token unchanged as a bearer access token.
func StaticTokenSourceFactory(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// PersistentTokenSource is an oauth2.TokenSource backed by the encrypted store.
// The stored token is read on the first Token call, not at construction.
// Whenever the wrapped source hands out a new refresh token it is sealed and
// written back, so the next process starts from the rotated value.
type PersistentTokenSource struct {
	factory TokenSourceFactory
	store   tokenstore.TokenStore

	mu        sync.Mutex
	source    oauth2.TokenSource
	loadErr   error
	persisted string // refresh token currently on disk
}

var _ oauth2.TokenSource = (*PersistentTokenSource)(nil)

// NewPersistentTokenSource creates a PersistentTokenSource over store.
func NewPersistentTokenSource(factory TokenSourceFactory, store tokenstore.TokenStore) (*PersistentTokenSource, error) {
	if factory == nil {
		return nil, fmt.Errorf("missing token source factory")
	}
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}
	return &PersistentTokenSource{factory: factory, store: store}, nil
}

// Token returns a token from the wrapped source. A failed initial load
// (missing file, wrong key, corrupt blob) is returned on every call without
// touching the store again.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	source, err := p.load()
	if err != nil {
		return nil, err
	}

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token from token source: %w", err)
	}

	// Static sources never carry a refresh token
	if token.RefreshToken != "" {
		p.persist(token.RefreshToken)
	}
	return token, nil
}

func (p *PersistentTokenSource) load() (oauth2.TokenSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil || p.loadErr != nil {
		return p.source, p.loadErr
	}

	// oauth2.TokenSource.Token has no context parameter
	stored, err := p.store.Read(context.Background())
	if err != nil {
		p.loadErr = fmt.Errorf("failed to read stored token: %w", err)
		return nil, p.loadErr
	}

	p.persisted = stored
	p.source = p.factory(stored)
	return p.source, nil
}

// persist writes refresh back unless it is already on disk. A failed write is
// logged and retried on the next call; the access token in hand stays valid.
func (p *PersistentTokenSource) persist(refresh string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if refresh == p.persisted {
		return
	}

	ctx := context.Background()
	if err := p.store.Write(ctx, refresh); err != nil {
		slog.ErrorContext(ctx, "failed to persist refresh token", "error", err)
		return
	}
	p.persisted = refresh
}
