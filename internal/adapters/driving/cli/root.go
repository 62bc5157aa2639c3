package cli

import (
	"github.com/spf13/cobra"

	"github.com/rollcall-labs/rollcall/internal/adapters/driven/config/envfile"
	"github.com/rollcall-labs/rollcall/internal/adapters/driven/config/file"
	"github.com/rollcall-labs/rollcall/internal/core/ports/driven"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

var (
	// version is injected from main via SetVersion.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Injected store implementations; see SetServices.
	credentialStore *envfile.Store
	settingsStore   *file.SettingsStore
	reportStore     driven.ReportStore
)

// Services holds the stores the CLI commands operate on.
type Services struct {
	Credentials *envfile.Store
	Settings    *file.SettingsStore
	Reports     driven.ReportStore
}

// SetServices injects store implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	credentialStore = s.Credentials
	settingsStore = s.Settings
	reportStore = s.Reports
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "rollcall",
	Short: "Extract Teams meeting attendance via delegated Microsoft Graph access",
	Long: `Rollcall extracts attendance reports for Microsoft Teams meetings using
delegated (user-consented, no admin) Microsoft Graph permissions.

Consent is granted once, interactively, with 'rollcall login'. Every later
run renews access non-interactively from the stored refresh token, so the
tool fits scheduled automation.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rollcall version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}
