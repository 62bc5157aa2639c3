// Package oauth implements the token endpoint exchange used by the
// Microsoft identity platform: one-time authorization-code exchange and
// repeatable refresh-token exchange.
//
// Failures are never retried here. A rejected refresh almost always means
// the refresh token was revoked, expired, or already consumed by a
// concurrent exchange, and the fix is new interactive consent rather than
// a retry loop.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// requestTimeout bounds every call to the token endpoint. A timeout is
// terminal for the current invocation.
const requestTimeout = 30 * time.Second

// ErrNoAccessToken indicates a 200 response that lacked a usable
// access_token field. The workflow must halt rather than build a
// malformed Authorization header.
var ErrNoAccessToken = errors.New("oauth: token response has no access_token")

// TokenResponse is the JSON body returned by the token endpoint.
// Fields beyond access_token are carried through but not interpreted.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`

	// Expiry is computed from ExpiresIn at receive time.
	Expiry time.Time `json:"-"`
}

// UpstreamError is a non-success response from the identity provider,
// surfaced verbatim. Code and Description come from the provider's
// {error, error_description} body; Body holds the raw response for the
// cases where the body is not the documented JSON shape.
type UpstreamError struct {
	StatusCode  int
	Code        string
	Description string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		if e.Description != "" {
			return fmt.Sprintf("token endpoint returned %d: %s: %s", e.StatusCode, e.Code, e.Description)
		}
		return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// IsInvalidGrant reports whether the provider rejected the grant itself,
// which requires new interactive consent rather than a retry.
func (e *UpstreamError) IsInvalidGrant() bool {
	return e.Code == "invalid_grant"
}

// Client calls a single OAuth2 token endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a token endpoint client.
// endpoint is the full token URL, e.g.
// https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// SetHTTPClient overrides the HTTP client. Used by tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ExchangeCode exchanges an authorization code for tokens. Run once,
// immediately after interactive consent.
func (c *Client) ExchangeCode(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI, scope string,
) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", clientID)
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	if scope != "" {
		data.Set("scope", scope)
	}

	return c.post(ctx, data)
}

// Refresh exchanges a refresh token for a fresh access token. Microsoft
// may rotate the refresh token; callers must persist the returned one.
func (c *Client) Refresh(
	ctx context.Context,
	clientID, clientSecret, refreshToken, scope string,
) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", clientID)
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
	data.Set("refresh_token", refreshToken)
	if scope != "" {
		data.Set("scope", scope)
	}

	return c.post(ctx, data)
}

// post performs the form-encoded exchange and decodes the result.
func (c *Client) post(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newUpstreamError(resp.StatusCode, body)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	if tokenResp.ExpiresIn > 0 {
		tokenResp.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &tokenResp, nil
}

// newUpstreamError decodes the provider's error body without masking it.
func newUpstreamError(status int, body []byte) *UpstreamError {
	ue := &UpstreamError{StatusCode: status, Body: body}

	var errBody struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		ue.Code = errBody.Error
		ue.Description = errBody.ErrorDescription
	}

	return ue
}
