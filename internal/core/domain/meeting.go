package domain

import "time"

// MeetingInfo holds identifiers extracted from a Teams meeting invite.
// ThreadID is the online meeting identifier ("19:meeting_...") used for
// Microsoft Graph lookups; the numeric MeetingID and passcode are the
// human-facing values printed in the invite.
type MeetingInfo struct {
	MeetingID   string
	Passcode    string
	JoinLink    string
	ThreadID    string
	OrganizerID string
	TenantID    string
}

// HasThreadID reports whether the invite yielded a Graph-usable meeting ID.
func (m MeetingInfo) HasThreadID() bool {
	return m.ThreadID != ""
}

// Report is an archived attendance report for one meeting.
type Report struct {
	ID        string
	MeetingID string
	ThreadID  string
	Subject   string
	FetchedAt time.Time
	// Raw is the combined Graph response (reports plus records) as JSON.
	Raw []byte
}

// AttendanceEntry is one attendee's presence in an archived report.
type AttendanceEntry struct {
	DisplayName string
	Email       string
	JoinedAt    time.Time
	LeftAt      time.Time
	Duration    time.Duration
}
