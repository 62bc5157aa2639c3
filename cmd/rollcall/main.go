package main

import (
	"log"
	"os"

	"github.com/rollcall-labs/rollcall/internal/adapters/driven/config/envfile"
	"github.com/rollcall-labs/rollcall/internal/adapters/driven/config/file"
	"github.com/rollcall-labs/rollcall/internal/adapters/driven/storage/sqlite"
	"github.com/rollcall-labs/rollcall/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	// Credential file holds the app registration plus the rotating
	// refresh token.
	credentialStore, err := envfile.NewStore("")
	if err != nil {
		log.Printf("failed to create credential store: %v", err)
		return 1
	}

	settingsStore, err := file.NewSettingsStore("")
	if err != nil {
		log.Printf("failed to create settings store: %v", err)
		return 1
	}

	// SQLite archive of fetched attendance reports.
	reportStore, err := sqlite.NewStore("")
	if err != nil {
		log.Printf("failed to create report store: %v", err)
		return 1
	}
	defer reportStore.Close()

	cli.SetServices(&cli.Services{
		Credentials: credentialStore,
		Settings:    settingsStore,
		Reports:     reportStore,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
