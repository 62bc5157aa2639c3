package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5*time.Minute + 3*time.Second, "5m 03s"},
		{time.Hour + 2*time.Minute + 5*time.Second, "1h 02m 05s"},
		{0, "0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestRenderAttendance(t *testing.T) {
	joined := time.Date(2026, 3, 2, 14, 0, 12, 0, time.UTC)
	entries := []domain.AttendanceEntry{
		{
			DisplayName: "Ada Lovelace",
			Email:       "ada@contoso.com",
			JoinedAt:    joined,
			LeftAt:      joined.Add(50 * time.Minute),
			Duration:    50 * time.Minute,
		},
		{DisplayName: "Guest 1", Duration: 5 * time.Minute},
	}

	out := renderAttendance("Weekly sync", "19:meeting_abc@thread.v2", entries)
	assert.Contains(t, out, "Weekly sync")
	assert.Contains(t, out, "2 attendee(s)")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@contoso.com")
	assert.Contains(t, out, "50m 00s")
	assert.Contains(t, out, "Guest 1")
}

func TestRenderAttendanceFallsBackToThreadID(t *testing.T) {
	out := renderAttendance("", "19:meeting_abc@thread.v2", nil)
	assert.Contains(t, out, "19:meeting_abc@thread.v2")
	assert.Contains(t, out, "no attendance records")
}

func TestRenderReportList(t *testing.T) {
	reports := []domain.Report{
		{
			ID:        "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
			ThreadID:  "19:meeting_abc@thread.v2",
			Subject:   "Weekly sync",
			FetchedAt: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		},
		{
			ID:        "11111111-2222-3333-4444-555555555555",
			ThreadID:  "19:meeting_def@thread.v2",
			FetchedAt: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
		},
	}

	out := renderReportList(reports)
	assert.Contains(t, out, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	assert.Contains(t, out, "Weekly sync")
	// Reports without a subject fall back to the thread ID.
	assert.Contains(t, out, "19:meeting_def@thread.v2")
}

func TestRenderReportListEmpty(t *testing.T) {
	out := renderReportList(nil)
	assert.Contains(t, out, "no archived reports")
}
