package meetings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttendanceRecord_Email(t *testing.T) {
	nested := AttendanceRecord{}
	nested.Identity.EmailAddress = &struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}{Name: "Ada", Address: "ada@contoso.com"}
	nested.EmailAddress = "flat@contoso.com"

	assert.Equal(t, "ada@contoso.com", nested.Email())

	flat := AttendanceRecord{EmailAddress: "flat@contoso.com"}
	assert.Equal(t, "flat@contoso.com", flat.Email())

	empty := AttendanceRecord{}
	assert.Empty(t, empty.Email())
}

func TestAttendanceRecord_ToEntry(t *testing.T) {
	rec := AttendanceRecord{
		JoinDateTime:             "2026-08-20T09:00:00Z",
		LeaveDateTime:            "2026-08-20T09:55:00Z",
		TotalAttendanceInSeconds: 3300,
	}
	rec.Identity.DisplayName = "Ada Lovelace"
	rec.EmailAddress = "ada@contoso.com"

	entry := rec.ToEntry()

	assert.Equal(t, "Ada Lovelace", entry.DisplayName)
	assert.Equal(t, "ada@contoso.com", entry.Email)
	assert.Equal(t, 55*time.Minute, entry.Duration)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), entry.JoinedAt)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 55, 0, 0, time.UTC), entry.LeftAt)
}

func TestAttendanceRecord_ToEntry_TimesFromIntervals(t *testing.T) {
	rec := AttendanceRecord{
		TotalAttendanceInSeconds: 600,
		AttendanceIntervals: []AttendanceInterval{
			{JoinDateTime: "2026-08-20T09:00:00Z", LeaveDateTime: "2026-08-20T09:05:00Z", DurationInSeconds: 300},
			{JoinDateTime: "2026-08-20T09:30:00Z", LeaveDateTime: "2026-08-20T09:35:00Z", DurationInSeconds: 300},
		},
	}

	entry := rec.ToEntry()

	assert.Equal(t, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), entry.JoinedAt)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 35, 0, 0, time.UTC), entry.LeftAt)
}
