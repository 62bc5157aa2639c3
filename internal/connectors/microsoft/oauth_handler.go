package microsoft

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	drivenoauth "github.com/rollcall-labs/rollcall/internal/adapters/driven/oauth"
	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// OAuthHandler implements the delegated OAuth flows for a single tenant.
// Handles Microsoft-specific requirements like offline_access for refresh
// tokens and prompt=consent so the one-time grant covers every scope.
type OAuthHandler struct {
	tenantID string
	client   *drivenoauth.Client
}

// NewOAuthHandler creates an OAuth handler for a tenant-scoped authority.
func NewOAuthHandler(tenantID string) *OAuthHandler {
	return &OAuthHandler{
		tenantID: tenantID,
		client:   drivenoauth.NewClient(TokenURL(tenantID)),
	}
}

// TokenClient exposes the underlying token endpoint client.
func (h *OAuthHandler) TokenClient() *drivenoauth.Client {
	return h.client
}

// BuildAuthURL constructs the authorization URL a user must visit to
// grant delegated consent. offline_access is forced into the scope list
// so the grant yields a refresh token.
func (h *OAuthHandler) BuildAuthURL(clientID, redirectURI, state string, scopes []string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	scopes = ensureOfflineAccess(scopes)

	params := url.Values{
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(scopes, " ")},
		"state":         {state},
		// Microsoft-specific: response_mode=query for easier code extraction
		"response_mode": {"query"},
		// Force the consent screen so the grant covers all scopes at once
		"prompt": {"consent"},
	}

	return AuthorizeURL(h.tenantID) + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens. Run once after
// the user completes the consent flow.
func (h *OAuthHandler) ExchangeCode(
	ctx context.Context,
	creds domain.CredentialSet,
	code, redirectURI string,
	scopes []string,
) (*domain.OAuthToken, error) {
	resp, err := h.client.ExchangeCode(
		ctx, creds.ClientID, creds.ClientSecret,
		code, redirectURI, strings.Join(ensureOfflineAccess(scopes), " "),
	)
	if err != nil {
		return nil, err
	}

	return &domain.OAuthToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Expiry:       resp.Expiry,
	}, nil
}

// RefreshToken exchanges the stored refresh token for a fresh access
// token. Failure is terminal: a rejected refresh token requires new
// interactive consent, not a retry.
func (h *OAuthHandler) RefreshToken(
	ctx context.Context,
	creds domain.CredentialSet,
	scope string,
) (*domain.OAuthToken, error) {
	if !creds.HasRefreshToken() {
		return nil, domain.ErrConsentRequired
	}

	resp, err := h.client.Refresh(ctx, creds.ClientID, creds.ClientSecret, creds.RefreshToken, scope)
	if err != nil {
		return nil, err
	}

	// Microsoft may return a new refresh token
	newRefreshToken := resp.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = creds.RefreshToken
	}

	return &domain.OAuthToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: newRefreshToken,
		TokenType:    resp.TokenType,
		Expiry:       resp.Expiry,
	}, nil
}

// SetupHint returns guidance for registering the OAuth app.
func (h *OAuthHandler) SetupHint() string {
	return "Create OAuth app at portal.azure.com > App registrations (delegated permissions, no admin consent needed)"
}

// AuthorizeURL returns the tenant-scoped authorization endpoint.
func AuthorizeURL(tenantID string) string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", tenantID)
}

// TokenURL returns the tenant-scoped token endpoint.
func TokenURL(tenantID string) string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
}

// DefaultScopes are the delegated permissions requested at consent time.
// All scopes are requested upfront to avoid re-authorization.
var DefaultScopes = []string{
	"offline_access",      // Required for refresh tokens
	"OnlineMeetings.Read", // Attendance reports
	"Calendars.Read",      // Meeting lookups via calendar
	"Mail.Read",           // Invite emails
	"User.Read",           // User profile
}

// ensureOfflineAccess guarantees the scope list yields a refresh token.
func ensureOfflineAccess(scopes []string) []string {
	for _, s := range scopes {
		if s == "offline_access" {
			return scopes
		}
	}
	out := make([]string, 0, len(scopes)+1)
	out = append(out, "offline_access")
	out = append(out, scopes...)
	return out
}
