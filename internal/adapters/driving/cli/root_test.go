package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "rollcall", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	want := []string{"setup", "login", "token", "whoami", "attendance", "version"}
	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %q", name)
	}
}

func TestTokenSubcommands(t *testing.T) {
	got := make(map[string]bool)
	for _, c := range tokenCmd.Commands() {
		got[c.Name()] = true
	}
	assert.True(t, got["refresh"])
	assert.True(t, got["inspect"])
}

func TestAttendanceSubcommands(t *testing.T) {
	got := make(map[string]bool)
	for _, c := range attendanceCmd.Commands() {
		got[c.Name()] = true
	}
	assert.True(t, got["fetch"])
	assert.True(t, got["list"])
	assert.True(t, got["show"])
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "1.2.3")
}

func TestVerboseFlagRegistered(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestAttendanceFetchFlags(t *testing.T) {
	for _, name := range []string{"invite", "meeting", "wait", "poll-interval", "output", "no-archive"} {
		assert.NotNil(t, attendanceFetchCmd.Flags().Lookup(name), "missing flag %q", name)
	}
}
