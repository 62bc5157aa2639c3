package oauth

import (
	"encoding/json"
	"fmt"
)

// bearerPrefix is the Authorization scheme, including the single
// separating space.
const bearerPrefix = "Bearer "

// FormatBearer renders a token response as an Authorization header value.
// It fails if the access token is absent or empty; a malformed header must
// never reach a Graph call.
func FormatBearer(tr *TokenResponse) (string, error) {
	if tr == nil {
		return "", fmt.Errorf("format bearer: %w", ErrNoAccessToken)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("format bearer: %w", ErrNoAccessToken)
	}
	return bearerPrefix + tr.AccessToken, nil
}

// FormatBearerJSON extracts access_token from a raw token endpoint body
// and renders it as an Authorization header value. Useful when the caller
// has the response as opaque JSON rather than a decoded TokenResponse.
func FormatBearerJSON(raw []byte) (string, error) {
	var body struct {
		AccessToken *string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("format bearer: decode response: %w", err)
	}
	if body.AccessToken == nil || *body.AccessToken == "" {
		return "", fmt.Errorf("format bearer: %w", ErrNoAccessToken)
	}
	return bearerPrefix + *body.AccessToken, nil
}
