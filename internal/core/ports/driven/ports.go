// Package driven defines the ports implemented by driven adapters.
package driven

import (
	"context"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// TokenProvider supplies a valid access token for Graph calls, refreshing
// behind the scenes when the cached one nears expiry.
type TokenProvider interface {
	// GetToken returns a current access token.
	GetToken(ctx context.Context) (string, error)
}

// CredentialStore persists the credential set between runs.
type CredentialStore interface {
	Load() (domain.CredentialSet, error)
	Save(creds domain.CredentialSet) error
	// UpdateRefreshToken rotates only the refresh token in place.
	UpdateRefreshToken(refreshToken string) error
}

// ReportStore archives fetched attendance reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report domain.Report, entries []domain.AttendanceEntry) error
	ListReports(ctx context.Context) ([]domain.Report, error)
	// GetReport returns a report and its entries.
	// Returns domain.ErrNotFound if no such report exists.
	GetReport(ctx context.Context, id string) (*domain.Report, []domain.AttendanceEntry, error)
}
