// Package auth provides the token provider that keeps a usable access
// token available for Graph calls.
//
// Microsoft rotates refresh tokens on use, so two concurrent refreshes
// against the same credential set make the second fail with
// invalid_grant. The provider therefore serializes the whole
// read-exchange-persist sequence behind one mutex per credential set.
package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
	"github.com/rollcall-labs/rollcall/internal/core/ports/driven"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

// expiryMargin subtracts a safety window from the access token's
// lifetime so a token is never used in the last moments before expiry.
const expiryMargin = 2 * time.Minute

// Refresher exchanges a refresh token for a fresh access token.
// Implemented by microsoft.OAuthHandler.
type Refresher interface {
	RefreshToken(ctx context.Context, creds domain.CredentialSet, scope string) (*domain.OAuthToken, error)
}

// Provider caches the current access token and refreshes it on demand.
// The access token lives only in memory; the rotated refresh token is
// written back to the credential store after every exchange.
type Provider struct {
	mu        sync.Mutex
	store     driven.CredentialStore
	refresher Refresher
	scope     string
	current   *domain.OAuthToken
}

// NewProvider creates a token provider over a credential store.
// scope optionally narrows the refresh exchange; empty keeps the scopes
// of the original consent.
func NewProvider(store driven.CredentialStore, refresher Refresher, scope string) *Provider {
	return &Provider{
		store:     store,
		refresher: refresher,
		scope:     scope,
	}
}

// GetToken returns a valid access token, refreshing if the cached one is
// absent or near expiry.
func (p *Provider) GetToken(ctx context.Context) (string, error) {
	token, err := p.token(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// ForceRefresh discards the cached access token and performs a fresh
// exchange. Returns the new token.
func (p *Provider) ForceRefresh(ctx context.Context) (*domain.OAuthToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = nil
	return p.refreshLocked(ctx)
}

// token returns the cached token or refreshes it under the lock.
func (p *Provider) token(ctx context.Context) (*domain.OAuthToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current.Valid(expiryMargin) {
		return p.current, nil
	}
	return p.refreshLocked(ctx)
}

// refreshLocked runs the serialized read-exchange-persist sequence.
// Callers must hold p.mu.
func (p *Provider) refreshLocked(ctx context.Context) (*domain.OAuthToken, error) {
	creds, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if !creds.HasRefreshToken() {
		return nil, domain.ErrConsentRequired
	}

	token, err := p.refresher.RefreshToken(ctx, creds, p.scope)
	if err != nil {
		return nil, err
	}

	if token.RefreshToken != "" && token.RefreshToken != creds.RefreshToken {
		logger.Debug("auth: refresh token rotated, persisting")
		if err := p.store.UpdateRefreshToken(token.RefreshToken); err != nil {
			// The exchange already consumed the old token. Failing to
			// persist the new one strands the credential set, so this is
			// not a warning we can swallow.
			return nil, err
		}
	}

	p.current = token
	return token, nil
}

// Token implements oauth2.TokenSource, letting Graph calls ride
// x/oauth2 transports.
func (p *Provider) Token() (*oauth2.Token, error) {
	token, err := p.token(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}, nil
}

var _ oauth2.TokenSource = (*Provider)(nil)
var _ driven.TokenProvider = (*Provider)(nil)
