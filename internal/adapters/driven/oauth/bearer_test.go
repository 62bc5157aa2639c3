package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBearer(t *testing.T) {
	tests := []struct {
		name    string
		tr      *TokenResponse
		want    string
		wantErr bool
	}{
		{
			name: "valid token",
			tr:   &TokenResponse{AccessToken: "abc123", TokenType: "Bearer"},
			want: "Bearer abc123",
		},
		{
			name: "token with unusual characters passes through untouched",
			tr:   &TokenResponse{AccessToken: "eyJ0eXAiOiJKV1QifQ.payload.sig"},
			want: "Bearer eyJ0eXAiOiJKV1QifQ.payload.sig",
		},
		{
			name:    "empty access token",
			tr:      &TokenResponse{TokenType: "Bearer"},
			wantErr: true,
		},
		{
			name:    "nil response",
			tr:      nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatBearer(tt.tr)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoAccessToken)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBearer_Idempotent(t *testing.T) {
	tr := &TokenResponse{AccessToken: "abc123"}

	first, err := FormatBearer(tr)
	require.NoError(t, err)
	second, err := FormatBearer(tr)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFormatBearerJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "valid body",
			raw:  `{"access_token": "abc123", "token_type": "Bearer", "expires_in": 3599}`,
			want: "Bearer abc123",
		},
		{
			name:    "missing access_token",
			raw:     `{"token_type": "Bearer"}`,
			wantErr: true,
		},
		{
			name:    "null access_token",
			raw:     `{"access_token": null}`,
			wantErr: true,
		},
		{
			name:    "empty access_token",
			raw:     `{"access_token": ""}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `Bearer abc123`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatBearerJSON([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBearer_SingleSpaceNoTrailing(t *testing.T) {
	got, err := FormatBearer(&TokenResponse{AccessToken: "T"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer T", got)
	assert.NotContains(t, got, "  ")
}
