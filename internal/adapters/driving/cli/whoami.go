package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the stored credentials",
	Long: `Whoami refreshes an access token and asks Graph who it belongs to.
Useful as a smoke test that setup and login worked.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		creds, err := loadCredentials()
		if err != nil {
			return err
		}
		provider := newTokenProvider(creds)
		accessToken, err := provider.GetToken(cmd.Context())
		if err != nil {
			return err
		}
		info, err := microsoft.GetUserInfo(cmd.Context(), accessToken)
		if err != nil {
			return fmt.Errorf("looking up signed-in user: %w", err)
		}
		cmd.Printf("%s <%s>\n", info.DisplayName, info.GetUserEmail())
		cmd.Printf("Object ID: %s\n", info.ID)
		cmd.Printf("Tenant:    %s\n", creds.TenantID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
