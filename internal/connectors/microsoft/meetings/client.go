// Package meetings fetches online meetings and their attendance reports
// from Microsoft Graph.
//
// Attendance reports become available only after a meeting ends; a 404 on
// the attendanceReports collection is an expected state, not a failure.
package meetings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft"
	"github.com/rollcall-labs/rollcall/internal/core/ports/driven"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

// Client fetches online meeting data from Microsoft Graph.
type Client struct {
	baseURL       string
	tokenProvider driven.TokenProvider
	rateLimiter   *microsoft.RateLimiter
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Graph endpoint. Used by tests and for
// sovereign-cloud deployments.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimiter overrides the default rate limiter.
func WithRateLimiter(rl *microsoft.RateLimiter) Option {
	return func(c *Client) { c.rateLimiter = rl }
}

// New creates a meetings client.
func New(tokenProvider driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:       microsoft.GraphBaseURL,
		tokenProvider: tokenProvider,
		rateLimiter:   microsoft.NewRateLimiter(),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listResponse is the paged collection wrapper Graph uses everywhere.
type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// GetMeeting fetches a single online meeting by its thread ID
// ("19:meeting_...@thread.v2"). Falls back to the quoted-ID endpoint
// shape, which some tenants require.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*OnlineMeeting, error) {
	body, status, err := c.get(ctx, c.baseURL+"/me/onlineMeetings/"+url.PathEscape(meetingID))
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}

	if status == http.StatusNotFound {
		logger.Debug("meetings: meeting %s not found, retrying quoted-ID endpoint", meetingID)
		body, status, err = c.get(ctx,
			c.baseURL+"/me/onlineMeetings('"+url.PathEscape(meetingID)+"')")
		if err != nil {
			return nil, fmt.Errorf("get meeting: %w", err)
		}
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("get meeting failed: status %d: %w", status, microsoft.WrapError(status))
	}

	var meeting OnlineMeeting
	if err := json.Unmarshal(body, &meeting); err != nil {
		return nil, fmt.Errorf("decode meeting: %w", err)
	}
	return &meeting, nil
}

// ListMeetings lists the user's online meetings, optionally filtered with
// an OData $filter expression. Pages through @odata.nextLink.
func (c *Client) ListMeetings(ctx context.Context, filter string) ([]OnlineMeeting, error) {
	u := c.baseURL + "/me/onlineMeetings"
	if filter != "" {
		u += "?$filter=" + url.QueryEscape(filter)
	}
	return collectPages[OnlineMeeting](ctx, c, u, "list meetings")
}

// GetAttendanceReports fetches all attendance reports for a meeting.
// Returns an empty slice with no error when the meeting has no reports
// yet (the meeting has not ended).
func (c *Client) GetAttendanceReports(ctx context.Context, meetingID string) ([]AttendanceReport, error) {
	u := c.baseURL + "/me/onlineMeetings/" + url.PathEscape(meetingID) + "/attendanceReports"

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("get attendance reports: %w", err)
	}
	if status == http.StatusNotFound {
		logger.Debug("meetings: no attendance reports yet for %s", meetingID)
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get attendance reports failed: status %d: %w",
			status, microsoft.WrapError(status))
	}

	var page listResponse[AttendanceReport]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode attendance reports: %w", err)
	}
	return page.Value, nil
}

// GetAttendanceRecords fetches the attendee records of one report.
func (c *Client) GetAttendanceRecords(
	ctx context.Context, meetingID, reportID string,
) ([]AttendanceRecord, error) {
	u := c.baseURL + "/me/onlineMeetings/" + url.PathEscape(meetingID) +
		"/attendanceReports/" + url.PathEscape(reportID) + "/attendanceRecords"
	return collectPages[AttendanceRecord](ctx, c, u, "get attendance records")
}

// collectPages walks a paged Graph collection to completion.
func collectPages[T any](ctx context.Context, c *Client, u, op string) ([]T, error) {
	var all []T

	for u != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, status, err := c.get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("%s failed: status %d: %w", op, status, microsoft.WrapError(status))
		}

		var page listResponse[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%s: decode response: %w", op, err)
		}

		all = append(all, page.Value...)
		u = page.NextLink
	}

	return all, nil
}

// get performs a rate-limited, authorised GET and returns the body and
// status. 429 responses feed their Retry-After into the limiter.
func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("get token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	if microsoft.IsRateLimited(resp.StatusCode) {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.rateLimiter.RecordRateLimitError(retryAfter)
	}

	logger.Debug("meetings: GET %s -> %d (%d bytes)", u, resp.StatusCode, len(body))
	return body, resp.StatusCode, nil
}
