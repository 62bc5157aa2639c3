package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// memStore is an in-memory credential store for tests.
type memStore struct {
	mu    sync.Mutex
	creds domain.CredentialSet
}

func (s *memStore) Load() (domain.CredentialSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *memStore) Save(creds domain.CredentialSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *memStore) UpdateRefreshToken(refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.RefreshToken = refreshToken
	return nil
}

// rotatingRefresher simulates Microsoft's single-use refresh tokens: an
// exchange with anything but the current token fails.
type rotatingRefresher struct {
	mu        sync.Mutex
	current   string
	exchanges int
	lifetime  time.Duration
}

func (r *rotatingRefresher) RefreshToken(
	_ context.Context, creds domain.CredentialSet, _ string,
) (*domain.OAuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if creds.RefreshToken != r.current {
		return nil, assert.AnError
	}

	r.exchanges++
	r.current = creds.RefreshToken + "+"
	lifetime := r.lifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	return &domain.OAuthToken{
		AccessToken:  "access-" + r.current,
		RefreshToken: r.current,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(lifetime),
	}, nil
}

func validCreds() domain.CredentialSet {
	return domain.CredentialSet{
		TenantID:     "t",
		ClientID:     "c",
		ClientSecret: "s",
		RefreshToken: "r0",
	}
}

func TestProvider_GetToken_RefreshesAndPersistsRotation(t *testing.T) {
	store := &memStore{creds: validCreds()}
	refresher := &rotatingRefresher{current: "r0"}
	provider := NewProvider(store, refresher, "")

	token, err := provider.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-r0+", token)

	creds, _ := store.Load()
	assert.Equal(t, "r0+", creds.RefreshToken, "rotated refresh token must be persisted")
}

func TestProvider_GetToken_CachesUntilExpiry(t *testing.T) {
	store := &memStore{creds: validCreds()}
	refresher := &rotatingRefresher{current: "r0"}
	provider := NewProvider(store, refresher, "")

	first, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	second, err := provider.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, refresher.exchanges, "cached token must not trigger a second exchange")
}

func TestProvider_GetToken_RefreshesNearExpiry(t *testing.T) {
	store := &memStore{creds: validCreds()}
	// Lifetime below the expiry margin forces a refresh every call.
	refresher := &rotatingRefresher{current: "r0", lifetime: time.Second}
	provider := NewProvider(store, refresher, "")

	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	_, err = provider.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, refresher.exchanges)
}

func TestProvider_GetToken_SerializesConcurrentRefreshes(t *testing.T) {
	store := &memStore{creds: validCreds()}
	refresher := &rotatingRefresher{current: "r0", lifetime: time.Second}
	provider := NewProvider(store, refresher, "")

	// With single-use refresh tokens, any unserialized concurrent
	// exchange would fail inside rotatingRefresher.
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = provider.GetToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}
}

func TestProvider_GetToken_NoRefreshToken(t *testing.T) {
	store := &memStore{creds: domain.CredentialSet{TenantID: "t", ClientID: "c", ClientSecret: "s"}}
	provider := NewProvider(store, &rotatingRefresher{}, "")

	_, err := provider.GetToken(context.Background())

	require.ErrorIs(t, err, domain.ErrConsentRequired)
}

func TestProvider_GetToken_IncompleteCredentials(t *testing.T) {
	store := &memStore{creds: domain.CredentialSet{TenantID: "t"}}
	provider := NewProvider(store, &rotatingRefresher{}, "")

	_, err := provider.GetToken(context.Background())

	require.ErrorIs(t, err, domain.ErrCredentialsIncomplete)
}

func TestProvider_ForceRefresh(t *testing.T) {
	store := &memStore{creds: validCreds()}
	refresher := &rotatingRefresher{current: "r0"}
	provider := NewProvider(store, refresher, "")

	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)

	token, err := provider.ForceRefresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, refresher.exchanges)
	assert.Equal(t, "access-r0++", token.AccessToken)
}

func TestProvider_Token_OAuth2TokenSource(t *testing.T) {
	store := &memStore{creds: validCreds()}
	provider := NewProvider(store, &rotatingRefresher{current: "r0"}, "")

	token, err := provider.Token()

	require.NoError(t, err)
	assert.Equal(t, "access-r0+", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.Valid())
}
