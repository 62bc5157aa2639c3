package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	drivenoauth "github.com/rollcall-labs/rollcall/internal/adapters/driven/oauth"
	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

var tokenJSON bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Work with access tokens",
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token and print the Authorization header value",
	Long: `Refresh exchanges the stored refresh token for a fresh access token and
prints it formatted as a Bearer authorization header value, ready to paste
into an HTTP Authorization header.

Microsoft rotates refresh tokens on every exchange; the replacement token is
persisted to the credential file before anything is printed.

With --json the full token response is printed instead.`,
	RunE: runTokenRefresh,
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [access-token]",
	Short: "Decode an access token's claims without verifying it",
	Long: `Inspect decodes the claims of a Graph access token so you can check which
identity, tenant and scopes it carries and when it expires. The signature is
not verified; this is a debugging aid, not a validation step.

Without an argument a fresh token is obtained first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenInspect,
}

func runTokenRefresh(cmd *cobra.Command, _ []string) error {
	resp, err := refreshOnce(cmd)
	if err != nil {
		return err
	}

	if tokenJSON {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding token response: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	bearer, err := drivenoauth.FormatBearer(resp)
	if err != nil {
		return err
	}
	cmd.Println(bearer)
	return nil
}

func runTokenInspect(cmd *cobra.Command, args []string) error {
	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		resp, err := refreshOnce(cmd)
		if err != nil {
			return err
		}
		raw = resp.AccessToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	printClaim(cmd, claims, "upn", "User")
	printClaim(cmd, claims, "preferred_username", "Username")
	printClaim(cmd, claims, "name", "Name")
	printClaim(cmd, claims, "tid", "Tenant")
	printClaim(cmd, claims, "appid", "App")
	printClaim(cmd, claims, "aud", "Audience")
	printClaim(cmd, claims, "scp", "Scopes")
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cmd.Printf("%-10s %s (%s)\n", "Expires", exp.Format(time.RFC3339), time.Until(exp.Time).Round(time.Second))
	}

	known := map[string]bool{
		"upn": true, "preferred_username": true, "name": true, "tid": true,
		"appid": true, "aud": true, "scp": true, "exp": true,
	}
	var rest []string
	for k := range claims {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	if len(rest) > 0 {
		logger.Debug("token inspect: other claims present: %v", rest)
	}
	return nil
}

// refreshOnce performs a single refresh grant against the tenant token
// endpoint and persists a rotated refresh token before returning.
func refreshOnce(cmd *cobra.Command) (*drivenoauth.TokenResponse, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	if !creds.HasRefreshToken() {
		return nil, fmt.Errorf("no refresh token stored: run 'rollcall login' first")
	}

	client := drivenoauth.NewClient(microsoft.TokenURL(creds.TenantID))
	resp, err := client.Refresh(cmd.Context(), creds.ClientID, creds.ClientSecret, creds.RefreshToken, "")
	if err != nil {
		var upstream *drivenoauth.UpstreamError
		if errors.As(err, &upstream) && upstream.IsInvalidGrant() {
			return nil, fmt.Errorf("%w\n\nThe stored refresh token was rejected (expired or revoked); run 'rollcall login' again", err)
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if resp.RefreshToken != "" && resp.RefreshToken != creds.RefreshToken {
		if err := credentialStore.UpdateRefreshToken(resp.RefreshToken); err != nil {
			return nil, fmt.Errorf("persisting rotated refresh token: %w", err)
		}
		logger.Debug("token refresh: rotated refresh token persisted")
	}
	return resp, nil
}

func printClaim(cmd *cobra.Command, claims jwt.MapClaims, key, label string) {
	if v, ok := claims[key]; ok {
		cmd.Printf("%-10s %v\n", label, v)
	}
}

func init() {
	tokenRefreshCmd.Flags().BoolVar(&tokenJSON, "json", false, "print the full token response as JSON")
	tokenCmd.AddCommand(tokenRefreshCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
	rootCmd.AddCommand(tokenCmd)
}
