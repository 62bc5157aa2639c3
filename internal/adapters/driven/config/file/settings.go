// Package file provides the TOML-backed settings store.
//
// Settings cover everything that is not a credential: OAuth scopes,
// redirect URI, Graph endpoint and output locations. Credentials live in
// the env file handled by the envfile package.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is the settings file name under the rollcall home dir.
const DefaultFileName = "config.toml"

// Settings is the persisted application configuration.
type Settings struct {
	OAuth OAuthSettings `toml:"oauth"`
	Graph GraphSettings `toml:"graph"`
	// OutputDir is where exported attendance reports are written.
	OutputDir string `toml:"output_dir"`
}

// OAuthSettings configures the consent and token exchange flows.
type OAuthSettings struct {
	// RedirectURI must match the app registration's redirect URI.
	RedirectURI string `toml:"redirect_uri"`
	// Scopes are the delegated permissions requested at consent time.
	Scopes []string `toml:"scopes"`
}

// GraphSettings configures the Microsoft Graph client.
type GraphSettings struct {
	Endpoint          string  `toml:"endpoint"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
}

// DefaultSettings returns the configuration used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		OAuth: OAuthSettings{
			RedirectURI: "https://localhost",
			Scopes: []string{
				"offline_access",
				"OnlineMeetings.Read",
				"Calendars.Read",
				"Mail.Read",
				"User.Read",
			},
		},
		Graph: GraphSettings{
			Endpoint:          "https://graph.microsoft.com/v1.0",
			RequestsPerSecond: 10.0,
			BurstSize:         15,
		},
		OutputDir: "attendance_reports",
	}
}

// SettingsStore loads and saves settings from a TOML file.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore creates a store for the given path. An empty path
// resolves to ~/.rollcall/config.toml.
func NewSettingsStore(path string) (*SettingsStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".rollcall", DefaultFileName)
	}
	return &SettingsStore{path: path}, nil
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads settings, filling defaults for anything unset. A missing
// file returns pure defaults.
func (s *SettingsStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}

	applyDefaults(&settings)
	return settings, nil
}

// Save writes settings to disk, creating the directory if needed.
func (s *SettingsStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields so partially written files keep
// working.
func applyDefaults(settings *Settings) {
	defaults := DefaultSettings()
	if settings.OAuth.RedirectURI == "" {
		settings.OAuth.RedirectURI = defaults.OAuth.RedirectURI
	}
	if len(settings.OAuth.Scopes) == 0 {
		settings.OAuth.Scopes = defaults.OAuth.Scopes
	}
	if settings.Graph.Endpoint == "" {
		settings.Graph.Endpoint = defaults.Graph.Endpoint
	}
	if settings.Graph.RequestsPerSecond <= 0 {
		settings.Graph.RequestsPerSecond = defaults.Graph.RequestsPerSecond
	}
	if settings.Graph.BurstSize <= 0 {
		settings.Graph.BurstSize = defaults.Graph.BurstSize
	}
	if settings.OutputDir == "" {
		settings.OutputDir = defaults.OutputDir
	}
}
