package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure Azure app registration credentials",
	Long: `Setup records the Azure app registration this tool authenticates as.

You need an app registration in your tenant with delegated Graph permissions
(OnlineMeetings.Read at minimum) and a Web redirect URI. The client secret is
read without echo and stored with mode 0600 in the credential file.

After setup, run 'rollcall login' once to grant consent and capture the
refresh token.`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, _ []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	existing, err := credentialStore.Load()
	if err != nil {
		return fmt.Errorf("reading existing credentials: %w", err)
	}

	tenantID, err := promptValue(cmd, reader, "Tenant ID (directory ID)", existing.TenantID)
	if err != nil {
		return err
	}
	clientID, err := promptValue(cmd, reader, "Client ID (application ID)", existing.ClientID)
	if err != nil {
		return err
	}
	clientSecret, err := promptSecret(cmd, reader, "Client secret", existing.ClientSecret != "")
	if err != nil {
		return err
	}
	if clientSecret == "" {
		clientSecret = existing.ClientSecret
	}

	creds := domain.CredentialSet{
		TenantID:     strings.TrimSpace(tenantID),
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: clientSecret,
		RefreshToken: existing.RefreshToken,
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := credentialStore.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	cmd.Printf("Credentials saved to %s\n", credentialStore.Path())
	cmd.Println(microsoft.NewOAuthHandler(creds.TenantID).SetupHint())
	if !creds.HasRefreshToken() {
		cmd.Println("Next: run 'rollcall login' to grant consent and capture a refresh token.")
	}
	return nil
}

// promptValue reads a line, keeping the current value when the user enters
// nothing.
func promptValue(cmd *cobra.Command, reader *bufio.Reader, label, current string) (string, error) {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

// promptSecret reads the client secret without echo when stdin is a
// terminal, falling back to a plain line read otherwise (piped input in
// tests and scripts).
func promptSecret(cmd *cobra.Command, reader *bufio.Reader, label string, hasCurrent bool) (string, error) {
	suffix := ""
	if hasCurrent {
		suffix = " [keep current]"
	}
	cmd.Printf("%s%s: ", label, suffix)

	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
