// Package microsoft provides OAuth2 and Graph API plumbing for the
// Microsoft identity platform.
//
// This package provides:
//   - Authorization URL construction for the delegated consent flow
//   - Code and refresh-token exchange against the v2.0 token endpoint
//   - Rate limiting for Microsoft Graph API requests
//   - Error handling for Microsoft Graph API responses
//
// Unlike multi-tenant apps that authenticate against the "common"
// authority, rollcall always uses a tenant-scoped authority
// (https://login.microsoftonline.com/{tenant}) because attendance
// reports are only readable inside the organiser's tenant.
//
// # OAuth2 Flow
//
//   - Auth URL:  https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize
//   - Token URL: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token
//
// The "offline_access" scope is required for refresh tokens. Consent is
// captured once, interactively; every later run exchanges the stored
// refresh token. Microsoft rotates refresh tokens on use, so the rotated
// token must be written back after each exchange.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per
// app. This package implements conservative rate limiting to avoid
// hitting quotas.
package microsoft
