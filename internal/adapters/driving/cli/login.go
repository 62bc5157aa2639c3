package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

var loginScopes []string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Grant consent and capture a refresh token",
	Long: `Login runs the one-time interactive consent flow.

It prints an authorization URL for your tenant. Open it in a browser, sign
in as the account whose meetings you want to read, and approve the requested
permissions. The browser is then redirected to the configured redirect URI
with a 'code' parameter; paste the full redirected URL (or just the code)
back here.

The authorization code is exchanged for tokens and the refresh token is
stored in the credential file. Every later command renews access from it
without a browser.`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, _ []string) error {
	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	scopes := settings.OAuth.Scopes
	if len(loginScopes) > 0 {
		scopes = loginScopes
	}
	redirectURI := settings.OAuth.RedirectURI

	handler := microsoft.NewOAuthHandler(creds.TenantID)
	state := uuid.NewString()
	authURL := handler.BuildAuthURL(creds.ClientID, redirectURI, state, scopes)

	cmd.Println("Open this URL in a browser and approve the requested permissions:")
	cmd.Println()
	cmd.Println("  " + authURL)
	cmd.Println()
	cmd.Println("After approving you will be redirected to " + redirectURI + ".")
	cmd.Println("The page may not load; that is fine. Copy the URL from the address bar.")
	cmd.Println()
	cmd.Print("Paste the redirected URL (or the code): ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	code, err := parseAuthCode(strings.TrimSpace(line), state)
	if err != nil {
		return err
	}

	token, err := handler.ExchangeCode(cmd.Context(), creds, code, redirectURI, scopes)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("token response carried no refresh token; ensure offline_access is consented")
	}
	if err := credentialStore.UpdateRefreshToken(token.RefreshToken); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	logger.Debug("login: refresh token stored, access token valid until %s", token.Expiry.Format("15:04:05"))

	// Best-effort identity check so the user sees who they consented as.
	if info, err := microsoft.GetUserInfo(cmd.Context(), token.AccessToken); err == nil {
		cmd.Printf("\nConsent granted for %s (%s).\n", info.DisplayName, info.UserPrincipalName)
	} else {
		cmd.Println("\nConsent granted and refresh token stored.")
	}
	cmd.Println("Non-interactive commands will now renew access automatically.")
	return nil
}

// parseAuthCode extracts the authorization code from a pasted redirect URL
// or accepts a bare code. When the pasted URL carries a state parameter it
// must match the one we issued.
func parseAuthCode(input, wantState string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("no authorization code provided")
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parsing redirect URL: %w", err)
	}
	q := u.Query()
	if errCode := q.Get("error"); errCode != "" {
		return "", fmt.Errorf("authorization failed: %s: %s", errCode, q.Get("error_description"))
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL carries no code parameter")
	}
	if gotState := q.Get("state"); gotState != "" && gotState != wantState {
		return "", fmt.Errorf("state mismatch: the redirect URL is from a different login attempt")
	}
	return code, nil
}

func init() {
	loginCmd.Flags().StringSliceVar(&loginScopes, "scopes", nil, "override the requested delegated scopes")
	rootCmd.AddCommand(loginCmd)
}
