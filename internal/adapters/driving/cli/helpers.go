package cli

import (
	"fmt"
	"time"

	"github.com/rollcall-labs/rollcall/internal/adapters/driven/auth"
	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft/meetings"
	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// loadCredentials reads the credential file and validates the static fields.
// It does not require a refresh token; commands that need one check
// HasRefreshToken themselves so they can point the user at 'rollcall login'.
func loadCredentials() (domain.CredentialSet, error) {
	if credentialStore == nil {
		return domain.CredentialSet{}, fmt.Errorf("credential store not configured")
	}
	creds, err := credentialStore.Load()
	if err != nil {
		return domain.CredentialSet{}, fmt.Errorf("loading credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return domain.CredentialSet{}, fmt.Errorf("%w\n\nRun 'rollcall setup' to configure credentials", err)
	}
	return creds, nil
}

// newTokenProvider builds the serialized token provider for the current
// credential set.
func newTokenProvider(creds domain.CredentialSet) *auth.Provider {
	handler := microsoft.NewOAuthHandler(creds.TenantID)
	return auth.NewProvider(credentialStore, handler, "")
}

// newMeetingsClient builds a Graph meetings client using the configured
// rate limits.
func newMeetingsClient(provider *auth.Provider) (*meetings.Client, error) {
	settings, err := settingsStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	limiter := microsoft.NewRateLimiterWithConfig(microsoft.RateLimitConfig{
		RequestsPerSecond: settings.Graph.RequestsPerSecond,
		BurstSize:         settings.Graph.BurstSize,
	})
	return meetings.New(provider,
		meetings.WithBaseURL(settings.Graph.Endpoint),
		meetings.WithRateLimiter(limiter),
	), nil
}

// formatDuration renders an attendance duration as "1h 02m 05s".
func formatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
