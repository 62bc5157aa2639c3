package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthCode(t *testing.T) {
	const state = "9f1c2a58-2f1e-4d6b-8c2a-3f4b5c6d7e8f"

	tests := []struct {
		name     string
		input    string
		wantCode string
		wantErr  string
	}{
		{
			name:     "bare code",
			input:    "M.C107_BAY.2.U.abc-def",
			wantCode: "M.C107_BAY.2.U.abc-def",
		},
		{
			name:     "full redirect URL",
			input:    "https://localhost/?code=M.C107_BAY.2.U.abc&state=" + state + "&session_state=xyz",
			wantCode: "M.C107_BAY.2.U.abc",
		},
		{
			name:     "redirect URL without state",
			input:    "https://localhost/?code=thecode",
			wantCode: "thecode",
		},
		{
			name:    "state mismatch",
			input:   "https://localhost/?code=thecode&state=other",
			wantErr: "state mismatch",
		},
		{
			name:    "error redirect",
			input:   "https://localhost/?error=access_denied&error_description=User+declined&code=",
			wantErr: "access_denied",
		},
		{
			name:    "no code parameter",
			input:   "https://localhost/?code=&state=" + state,
			wantErr: "no code parameter",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: "no authorization code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := parseAuthCode(tt.input, state)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
