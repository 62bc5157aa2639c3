package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsStore(t *testing.T) *SettingsStore {
	t.Helper()
	store, err := NewSettingsStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	return store
}

func TestSettingsStore_Load_MissingFileReturnsDefaults(t *testing.T) {
	store := newTestSettingsStore(t)

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	assert.Contains(t, settings.OAuth.Scopes, "offline_access")
	assert.Contains(t, settings.OAuth.Scopes, "OnlineMeetings.Read")
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	store := newTestSettingsStore(t)

	settings := DefaultSettings()
	settings.OAuth.RedirectURI = "http://localhost:8910/callback"
	settings.OutputDir = "/tmp/reports"

	require.NoError(t, store.Save(settings))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8910/callback", loaded.OAuth.RedirectURI)
	assert.Equal(t, "/tmp/reports", loaded.OutputDir)
	assert.Equal(t, settings.Graph, loaded.Graph)
}

func TestSettingsStore_Load_PartialFileFillsDefaults(t *testing.T) {
	store := newTestSettingsStore(t)

	partial := "[oauth]\nredirect_uri = \"https://example.test\"\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(partial), 0600))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", settings.OAuth.RedirectURI)
	assert.NotEmpty(t, settings.OAuth.Scopes)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", settings.Graph.Endpoint)
	assert.Equal(t, "attendance_reports", settings.OutputDir)
}

func TestSettingsStore_Load_InvalidTOML(t *testing.T) {
	store := newTestSettingsStore(t)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not [valid toml"), 0600))

	settings, err := store.Load()
	require.Error(t, err)
	// Defaults still come back so callers can proceed deliberately.
	assert.Equal(t, DefaultSettings(), settings)
}
