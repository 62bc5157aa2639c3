package domain

import (
	"errors"
	"fmt"
	"time"
)

// CredentialSet identifies an Azure app registration plus the delegated
// refresh token captured during interactive consent. The refresh token is
// the only mutable field: Microsoft rotates it on use.
type CredentialSet struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate checks that all fields required for a token exchange are present.
func (c CredentialSet) Validate() error {
	var missing []string
	if c.TenantID == "" {
		missing = append(missing, "TENANT_ID")
	}
	if c.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrCredentialsIncomplete, missing)
	}
	return nil
}

// HasRefreshToken reports whether interactive consent has been completed.
func (c CredentialSet) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// OAuthToken holds the result of a token exchange. The access token is
// ephemeral and must never be persisted; the refresh token replaces the
// one in the credential set when the provider rotates it.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// Valid reports whether the access token is present and not within
// margin of its expiry.
func (t *OAuthToken) Valid(margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(margin).Before(t.Expiry)
}

// Domain errors shared across adapters.
var (
	// ErrCredentialsIncomplete indicates required credential fields are missing.
	ErrCredentialsIncomplete = errors.New("credentials incomplete")

	// ErrConsentRequired indicates no refresh token exists yet and the
	// interactive login flow must be run.
	ErrConsentRequired = errors.New("no refresh token: run 'rollcall login' to grant consent")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates caller-supplied input failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
